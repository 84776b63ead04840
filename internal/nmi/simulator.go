package nmi

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"
)

// testCards are fixed numbers that always simulate, even when a real
// credential is configured. They keep demos deterministic and off the live
// gateway.
var testCards = map[string]struct{}{
	"4111111111111111": {},
	"4000000000000002": {},
	"5431111111111111": {},
	"6011601160116611": {},
	"341111111111111":  {},
}

// IsTestCard reports whether the submitted number is in the fixed test set.
func IsTestCard(number string) bool {
	_, ok := testCards[NormalizeCardNumber(number)]
	return ok
}

// NewTransactionID builds a correlation token of the form
// prefix_epochMillis_base36suffix. Not cryptographically secure, and does
// not need to be: these identify simulated/free transactions in logs and
// history rows, nothing more.
func NewTransactionID(prefix string) string {
	suffix := strconv.FormatInt(rand.Int63(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

// SimulateCharge fabricates a schema-compatible approval without touching
// the gateway. The Raw field round-trips through ParseResponse so callers
// cannot tell a simulated body apart from a real one structurally.
func SimulateCharge(params ChargeParams) *Result {
	result := Result{
		Success:       true,
		ResponseCode:  "100",
		ResponseText:  "SUCCESS",
		TransactionID: NewTransactionID("sim"),
		AuthCode:      "123456",
	}
	if params.Recurring {
		result.SubscriptionID = NewTransactionID("sim_sub")
		result.CustomerVaultID = NewTransactionID("sim_vault")
	}

	raw := url.Values{}
	raw.Set("response", "1")
	raw.Set("responsetext", result.ResponseText)
	raw.Set("authcode", result.AuthCode)
	raw.Set("transactionid", result.TransactionID)
	raw.Set("response_code", result.ResponseCode)
	if result.SubscriptionID != "" {
		raw.Set("subscription_id", result.SubscriptionID)
	}
	if result.CustomerVaultID != "" {
		raw.Set("customer_vault_id", result.CustomerVaultID)
	}
	result.Raw = raw.Encode()
	return &result
}
