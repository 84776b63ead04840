package payments

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jgstylez/blackowndemand-backend/pkg/errors"

	"github.com/jgstylez/blackowndemand-backend/internal/billing"
	"github.com/jgstylez/blackowndemand-backend/internal/nmi"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

type stubGateway struct {
	configured  bool
	environment string
	result      *nmi.Result
	err         error
	charges     int
	lastParams  nmi.ChargeParams
}

func (g *stubGateway) Configured() bool     { return g.configured }
func (g *stubGateway) Environment() string  { return g.environment }
func (g *stubGateway) Charge(ctx context.Context, params nmi.ChargeParams) (*nmi.Result, error) {
	g.charges++
	g.lastParams = params
	return g.result, g.err
}

type stubRecorder struct {
	recordErr     error
	recorded      []billing.RecordPaymentParams
	appliedCodes  []string
}

func (r *stubRecorder) RecordPayment(ctx context.Context, params billing.RecordPaymentParams) error {
	r.recorded = append(r.recorded, params)
	return r.recordErr
}

func (r *stubRecorder) ApplyDiscount(ctx context.Context, codeID string) {
	r.appliedCodes = append(r.appliedCodes, codeID)
}

func newTestService(t *testing.T, gateway *stubGateway, recorder *stubRecorder, strict bool) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Gateway:             gateway,
		Recorder:            recorder,
		Logger:              logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		StrictNetworkErrors: strict,
		Now:                 func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func cardRequest() PaymentRequest {
	return PaymentRequest{
		Amount:        1200,
		Currency:      "USD",
		Description:   "Annual listing",
		CustomerEmail: "owner@example.com",
		PlanName:      "Premium",
		PaymentMethod: &PaymentMethod{
			CardNumber:     "4929 1234 5678 9012",
			ExpiryDate:     "12/28",
			CVV:            "123",
			CardholderName: "Ada Lovelace",
		},
	}
}

func approvedRecurringResult() *nmi.Result {
	return &nmi.Result{
		Success:         true,
		ResponseCode:    "100",
		TransactionID:   "tx-1",
		SubscriptionID:  "sub-1",
		CustomerVaultID: "vault-1",
		Raw:             "response=1&transactionid=tx-1",
	}
}

func TestProcessZeroAmountIsFree(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "test"}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	req := PaymentRequest{Amount: 0, CustomerEmail: "owner@example.com"}
	details, err := svc.Process(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, details.Success)
	assert.True(t, strings.HasPrefix(details.TransactionID, "free_"), details.TransactionID)
	assert.Equal(t, float64(0), details.Amount)
	assert.Equal(t, "free", details.PaymentMethodDetails.Type)
	assert.Equal(t, "approved", details.Status)
	assert.Zero(t, gateway.charges)
	assert.Empty(t, recorder.recorded)
}

func TestProcessZeroAmountViaFinalAmount(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "test"}
	svc := newTestService(t, gateway, &stubRecorder{}, false)

	zero := int64(0)
	req := cardRequest()
	req.FinalAmount = &zero
	details, err := svc.Process(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(details.TransactionID, "free_"))
	assert.Zero(t, gateway.charges)
}

func TestProcessNegativeAmountRejected(t *testing.T) {
	svc := newTestService(t, &stubGateway{}, &stubRecorder{}, false)

	req := cardRequest()
	req.Amount = -100
	_, err := svc.Process(context.Background(), req)

	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code())
}

func TestProcessMissingPaymentMethodRejected(t *testing.T) {
	svc := newTestService(t, &stubGateway{}, &stubRecorder{}, false)

	req := cardRequest()
	req.PaymentMethod = nil
	_, err := svc.Process(context.Background(), req)

	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code())
}

func TestProcessRecurringBelowMinimumRejected(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "test"}
	svc := newTestService(t, gateway, &stubRecorder{}, false)

	req := cardRequest()
	req.Amount = 50
	_, err := svc.Process(context.Background(), req)

	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code())
	assert.Zero(t, gateway.charges)

	// the same 50 cents is fine as a one-time charge
	oneTime := false
	req.IsRecurring = &oneTime
	gateway.result = &nmi.Result{Success: true, TransactionID: "tx-small"}
	_, err = svc.Process(context.Background(), req)
	require.NoError(t, err)
}

func TestProcessTestCardSimulatesEvenWithCredential(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production"}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	req := cardRequest()
	req.PaymentMethod.CardNumber = "4000000000000002"
	details, err := svc.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, gateway.charges)
	assert.True(t, details.Simulated)
	assert.True(t, strings.HasPrefix(details.TransactionID, "sim_"))
	assert.Equal(t, float64(12), details.Amount)
	assert.Equal(t, "0002", details.PaymentMethodDetails.LastFour)
	assert.Equal(t, "12", details.PaymentMethodDetails.ExpMonth)
	assert.Equal(t, "28", details.PaymentMethodDetails.ExpYear)

	// simulated recurring enrollment still persists
	require.Len(t, recorder.recorded, 1)
	assert.True(t, strings.HasPrefix(recorder.recorded[0].SubscriptionID, "sim_sub_"))
}

func TestProcessUnconfiguredGatewaySimulates(t *testing.T) {
	gateway := &stubGateway{configured: false, environment: "test"}
	svc := newTestService(t, gateway, &stubRecorder{}, false)

	details, err := svc.Process(context.Background(), cardRequest())
	require.NoError(t, err)

	assert.Zero(t, gateway.charges)
	assert.True(t, details.Simulated)
}

func TestProcessApprovedRecurringPersists(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: approvedRecurringResult()}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	details, err := svc.Process(context.Background(), cardRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.charges)
	assert.True(t, gateway.lastParams.Recurring)
	assert.Equal(t, "tx-1", details.TransactionID)
	assert.Equal(t, "sub-1", details.SubscriptionID)
	assert.Equal(t, "vault-1", details.CustomerVaultID)
	assert.False(t, details.Simulated)
	assert.Equal(t, "2026-03-01T10:00:00Z", details.PaymentDate)

	require.Len(t, recorder.recorded, 1)
	recorded := recorder.recorded[0]
	assert.Equal(t, "owner@example.com", recorded.CustomerEmail)
	assert.Equal(t, "sub-1", recorded.SubscriptionID)
	assert.Equal(t, "vault-1", recorded.CustomerVaultID)
	assert.Equal(t, int64(1200), recorded.AmountCents)
	assert.Equal(t, "Premium", recorded.PlanName)
	assert.Equal(t, "9012", recorded.CardLastFour)
}

func TestProcessOneTimeApprovalSkipsPersistence(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: &nmi.Result{
		Success:       true,
		TransactionID: "tx-2",
	}}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	oneTime := false
	req := cardRequest()
	req.IsRecurring = &oneTime
	_, err := svc.Process(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, gateway.lastParams.Recurring)
	assert.Empty(t, recorder.recorded)
}

func TestProcessRecurringWithoutSubscriptionIDSkipsPersistence(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: &nmi.Result{
		Success:       true,
		TransactionID: "tx-3",
	}}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	_, err := svc.Process(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.Empty(t, recorder.recorded)
}

func TestProcessDeclineTranslated(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: &nmi.Result{
		Success:      false,
		ResponseCode: "223",
		ResponseText: "DECLINE",
	}}
	svc := newTestService(t, gateway, &stubRecorder{}, false)

	_, err := svc.Process(context.Background(), cardRequest())
	require.Error(t, err)

	var decline *DeclineError
	require.True(t, errors.As(err, &decline))
	assert.Equal(t, "223", decline.Code)
	assert.Equal(t, "DECLINE", decline.ResponseText)
	assert.Contains(t, decline.Message, "Expired card")
}

func TestProcessNetworkFailureFallsBackToSimulation(t *testing.T) {
	gateway := &stubGateway{
		configured:  true,
		environment: "production",
		err:         &nmi.NetworkError{Err: errors.New("dial tcp: i/o timeout")},
	}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	details, err := svc.Process(context.Background(), cardRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.charges)
	assert.True(t, details.Simulated)
	assert.True(t, strings.HasPrefix(details.TransactionID, "sim_"))
}

func TestProcessNetworkFailureStrictMode(t *testing.T) {
	gateway := &stubGateway{
		configured:  true,
		environment: "production",
		err:         &nmi.NetworkError{Err: errors.New("dial tcp: connection refused")},
	}
	svc := newTestService(t, gateway, &stubRecorder{}, true)

	_, err := svc.Process(context.Background(), cardRequest())
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeDependency, appErr.Code())
}

func TestProcessPersistenceFailureStillSucceeds(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: approvedRecurringResult()}
	recorder := &stubRecorder{recordErr: errors.New("businesses table unavailable")}
	svc := newTestService(t, gateway, recorder, false)

	details, err := svc.Process(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.True(t, details.Success)
	require.Len(t, recorder.recorded, 1)
}

func TestProcessDiscountAppliedBeforeCharge(t *testing.T) {
	gateway := &stubGateway{configured: true, environment: "production", result: approvedRecurringResult()}
	recorder := &stubRecorder{}
	svc := newTestService(t, gateway, recorder, false)

	req := cardRequest()
	req.DiscountCodeID = "code-1"
	_, err := svc.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"code-1"}, recorder.appliedCodes)
}

func TestProcessDiscountAppliedOnFreePath(t *testing.T) {
	recorder := &stubRecorder{}
	svc := newTestService(t, &stubGateway{environment: "test"}, recorder, false)

	req := PaymentRequest{Amount: 0, DiscountCodeID: "code-free"}
	_, err := svc.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"code-free"}, recorder.appliedCodes)
}

func TestRecurringDefaultsToTrue(t *testing.T) {
	req := PaymentRequest{}
	assert.True(t, req.Recurring())

	off := false
	req.IsRecurring = &off
	assert.False(t, req.Recurring())
}
