package nmi

import "net/url"

// Result is the structured form of a gateway reply. The wire format is
// key=value&key=value text, not JSON; absent fields stay empty and are never
// an error, since the gateway omits identifiers that do not apply to the
// transaction type (no vault id on a plain sale, no subscription id on a
// one-time charge).
type Result struct {
	Success         bool
	ResponseCode    string
	ResponseText    string
	TransactionID   string
	AuthCode        string
	CustomerVaultID string
	SubscriptionID  string
	Raw             string
}

// approvedResponse is the gateway convention: 1=approved, 2=declined, 3=error.
const approvedResponse = "1"

// ParseResponse decodes the gateway's URL-encoded response body. Malformed
// input degrades to an unsuccessful Result carrying the raw text; callers
// decide how loudly to complain.
func ParseResponse(body string) Result {
	result := Result{Raw: body}

	values, err := url.ParseQuery(body)
	if err != nil {
		return result
	}

	result.Success = values.Get("response") == approvedResponse
	result.ResponseCode = values.Get("response_code")
	result.ResponseText = values.Get("responsetext")
	result.TransactionID = values.Get("transactionid")
	result.AuthCode = values.Get("authcode")
	result.CustomerVaultID = values.Get("customer_vault_id")
	result.SubscriptionID = values.Get("subscription_id")
	return result
}
