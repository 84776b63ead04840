package nmi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jgstylez/blackowndemand-backend/pkg/config"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

// BillingAddress carries the optional address fields forwarded to the
// gateway. Empty fields are skipped on the wire.
type BillingAddress struct {
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// ChargeParams describes a single outbound charge. Recurring selects the
// gateway's subscription enrollment shape instead of a plain sale.
type ChargeParams struct {
	AmountCents    int64
	Currency       string
	Description    string
	Email          string
	CardNumber     string
	CardExpiry     string // MM/YY as submitted by the form
	CardCVV        string
	CardholderName string
	BillingAddress *BillingAddress
	Recurring      bool
}

// NetworkError marks a transport-level failure reaching the gateway:
// timeout, DNS, connection reset. It is distinct from a decline, which is a
// successful HTTP exchange with an unhappy answer.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport-level gateway failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client speaks the gateway's form-encoded transaction protocol. The
// security key and environment are resolved once at construction and never
// re-read.
type Client struct {
	endpoint    string
	securityKey string
	environment string
	httpClient  *http.Client
	logg        *logger.Logger
}

// NewClient builds a gateway client from the bootstrap configuration.
func NewClient(cfg config.NMIConfig, logg *logger.Logger) *Client {
	return &Client{
		endpoint:    cfg.Endpoint,
		securityKey: cfg.SecurityKey(),
		environment: cfg.Environment(),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logg:        logg,
	}
}

// Configured reports whether a security key exists for the active
// environment. Without one every charge is simulated.
func (c *Client) Configured() bool {
	return c.securityKey != ""
}

// Environment returns the environment tag resolved at construction.
func (c *Client) Environment() string {
	return c.environment
}

// Charge performs a single gateway transaction. One attempt, no retry; a
// transport failure comes back as *NetworkError so the caller can tell
// infrastructure trouble apart from a decline.
func (c *Client) Charge(ctx context.Context, params ChargeParams) (*Result, error) {
	form := c.buildForm(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	result := ParseResponse(string(body))
	return &result, nil
}

func (c *Client) buildForm(params ChargeParams) url.Values {
	form := url.Values{}
	form.Set("security_key", c.securityKey)
	form.Set("ccnumber", NormalizeCardNumber(params.CardNumber))
	form.Set("ccexp", strings.ReplaceAll(params.CardExpiry, "/", ""))
	form.Set("cvv", params.CardCVV)

	first, last := splitCardholderName(params.CardholderName)
	setNonEmpty(form, "first_name", first)
	setNonEmpty(form, "last_name", last)
	setNonEmpty(form, "email", params.Email)

	if addr := params.BillingAddress; addr != nil {
		setNonEmpty(form, "address1", addr.Line1)
		setNonEmpty(form, "city", addr.City)
		setNonEmpty(form, "state", addr.State)
		setNonEmpty(form, "zip", addr.PostalCode)
		setNonEmpty(form, "country", addr.Country)
	}

	amount := FormatAmount(params.AmountCents)
	if params.Recurring {
		form.Set("type", "add_subscription")
		form.Set("plan_payments", "0")
		form.Set("plan_amount", amount)
		form.Set("day_frequency", "365")
		form.Set("customer_vault", "add_customer")
	} else {
		form.Set("type", "sale")
		form.Set("amount", amount)
	}

	setNonEmpty(form, "order_description", params.Description)
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}
	form.Set("currency", currency)
	return form
}

// FormatAmount renders minor units as a 2-decimal major-unit string, the
// only amount shape the gateway accepts.
func FormatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// NormalizeCardNumber strips whitespace from a submitted card number.
func NormalizeCardNumber(number string) string {
	return strings.Join(strings.Fields(number), "")
}

// splitCardholderName takes the first token as first name and the remainder
// as last name, matching the gateway's separate-field billing contract.
func splitCardholderName(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func setNonEmpty(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
