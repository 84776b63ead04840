package nmi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgstylez/blackowndemand-backend/pkg/config"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	return NewClient(config.NMIConfig{
		Endpoint:        endpoint,
		TestSecurityKey: "sk-test",
		Env:             config.GatewayEnvTest,
		Timeout:         5 * time.Second,
	}, testLogger())
}

func TestChargeSendsSaleForm(t *testing.T) {
	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		w.Write([]byte("response=1&responsetext=SUCCESS&transactionid=987654"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), ChargeParams{
		AmountCents:    1200,
		Description:    "Directory listing",
		Email:          "owner@example.com",
		CardNumber:     "4929 1234 5678 9012",
		CardExpiry:     "12/28",
		CardCVV:        "123",
		CardholderName: "Ada Jean Lovelace",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "987654", result.TransactionID)

	assert.Equal(t, "sale", captured.Get("type"))
	assert.Equal(t, "12.00", captured.Get("amount"))
	assert.Equal(t, "sk-test", captured.Get("security_key"))
	assert.Equal(t, "4929123456789012", captured.Get("ccnumber"))
	assert.Equal(t, "1228", captured.Get("ccexp"))
	assert.Equal(t, "123", captured.Get("cvv"))
	assert.Equal(t, "Ada", captured.Get("first_name"))
	assert.Equal(t, "Jean Lovelace", captured.Get("last_name"))
	assert.Equal(t, "USD", captured.Get("currency"))
	assert.Equal(t, "Directory listing", captured.Get("order_description"))
}

func TestChargeSendsSubscriptionForm(t *testing.T) {
	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		w.Write([]byte("response=1&transactionid=555&subscription_id=sub-1&customer_vault_id=vault-1"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), ChargeParams{
		AmountCents: 1200,
		CardNumber:  "4929123456789012",
		CardExpiry:  "01/27",
		CardCVV:     "999",
		Recurring:   true,
		BillingAddress: &BillingAddress{
			Line1:      "1 Main St",
			City:       "Atlanta",
			State:      "GA",
			PostalCode: "30303",
			Country:    "US",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "sub-1", result.SubscriptionID)
	assert.Equal(t, "vault-1", result.CustomerVaultID)

	assert.Equal(t, "add_subscription", captured.Get("type"))
	assert.Equal(t, "12.00", captured.Get("plan_amount"))
	assert.Equal(t, "0", captured.Get("plan_payments"))
	assert.Equal(t, "365", captured.Get("day_frequency"))
	assert.Equal(t, "add_customer", captured.Get("customer_vault"))
	assert.Empty(t, captured.Get("amount"))
	assert.Equal(t, "1 Main St", captured.Get("address1"))
	assert.Equal(t, "30303", captured.Get("zip"))
}

func TestChargeConnectionFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Charge(context.Background(), ChargeParams{AmountCents: 100})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestChargeTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(config.NMIConfig{
		Endpoint:        srv.URL,
		TestSecurityKey: "sk-test",
		Env:             config.GatewayEnvTest,
		Timeout:         50 * time.Millisecond,
	}, testLogger())

	_, err := client.Charge(context.Background(), ChargeParams{AmountCents: 100})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestConfigured(t *testing.T) {
	client := newTestClient(t, "http://gateway.invalid")
	assert.True(t, client.Configured())

	empty := NewClient(config.NMIConfig{Env: config.GatewayEnvTest}, testLogger())
	assert.False(t, empty.Configured())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.00", FormatAmount(1200))
	assert.Equal(t, "0.50", FormatAmount(50))
	assert.Equal(t, "1199.99", FormatAmount(119999))
}
