package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/jgstylez/blackowndemand-backend/pkg/errors"

	"github.com/jgstylez/blackowndemand-backend/internal/billing"
	"github.com/jgstylez/blackowndemand-backend/internal/nmi"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
	"github.com/jgstylez/blackowndemand-backend/pkg/metrics"
)

// Gateway recurring billing rejects plan amounts under one major unit.
const minRecurringCents = 100

const freeTransactionPrefix = "free"

// GatewayClient is the outbound card gateway surface the orchestrator
// needs. *nmi.Client satisfies it.
type GatewayClient interface {
	Configured() bool
	Environment() string
	Charge(ctx context.Context, params nmi.ChargeParams) (*nmi.Result, error)
}

// Recorder persists the side effects of an approved recurring charge.
// *billing.Writer satisfies it.
type Recorder interface {
	RecordPayment(ctx context.Context, params billing.RecordPaymentParams) error
	ApplyDiscount(ctx context.Context, codeID string)
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Gateway  GatewayClient
	Recorder Recorder
	Logger   *logger.Logger
	Metrics  *metrics.PaymentMetrics

	// StrictNetworkErrors surfaces gateway transport failures as errors
	// instead of degrading to a simulated success.
	StrictNetworkErrors bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service orchestrates a single payment attempt: validation, discount
// application, zero-amount and simulation short-circuits, the gateway
// charge, and the post-approval persistence handoff.
type Service struct {
	gateway       GatewayClient
	recorder      Recorder
	logg          *logger.Logger
	metrics       *metrics.PaymentMetrics
	strictNetwork bool
	now           func() time.Time
}

// NewService builds a payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		gateway:       params.Gateway,
		recorder:      params.Recorder,
		logg:          params.Logger,
		metrics:       params.Metrics,
		strictNetwork: params.StrictNetworkErrors,
		now:           params.Now,
	}, nil
}

// Process runs one payment attempt end to end. A *DeclineError return means
// the gateway refused the card; an *apperrors.Error means the request never
// reached, or could not reach, the gateway.
func (s *Service) Process(ctx context.Context, req PaymentRequest) (*PaymentDetails, error) {
	amount := req.EffectiveAmount()
	recurring := req.Recurring()

	if amount < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be a non-negative number")
	}
	if amount > 0 && req.PaymentMethod == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "payment_method is required for non-zero amounts")
	}
	if amount > 0 && recurring && amount < minRecurringCents {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("recurring amount must be at least %d minor units", minRecurringCents))
	}

	// Discount application is best-effort and must never block the charge.
	if req.DiscountCodeID != "" {
		s.recorder.ApplyDiscount(ctx, req.DiscountCodeID)
	}

	if amount == 0 {
		s.metrics.IncOutcome(metrics.OutcomeFree, recurring)
		return s.freeDetails(req), nil
	}

	result, simulated, err := s.charge(ctx, req, amount, recurring)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithTransactionID(ctx, result.TransactionID)

	if !result.Success {
		s.metrics.IncOutcome(metrics.OutcomeDeclined, recurring)
		s.logg.Warn(ctx, "gateway declined payment")
		return nil, &DeclineError{
			Code:         result.ResponseCode,
			ResponseText: result.ResponseText,
			Message:      nmi.DeclineMessage(result.ResponseCode, result.ResponseText),
		}
	}

	lastFour := cardLastFour(req.PaymentMethod.CardNumber)
	if recurring && result.SubscriptionID != "" {
		s.persist(ctx, req, result, amount, lastFour)
	}

	if !simulated {
		s.metrics.IncOutcome(metrics.OutcomeApproved, recurring)
	}
	return s.successDetails(req, result, amount, lastFour, simulated), nil
}

// charge decides the processing mode and performs at most one gateway call.
// The boolean reports whether the result was fabricated locally.
func (s *Service) charge(ctx context.Context, req PaymentRequest, amount int64, recurring bool) (*nmi.Result, bool, error) {
	params := s.chargeParams(req, amount, recurring)

	if !s.gateway.Configured() {
		s.logg.Warn(ctx, "no gateway credential configured, simulating payment")
		s.metrics.IncOutcome(metrics.OutcomeSimulated, recurring)
		return nmi.SimulateCharge(params), true, nil
	}
	if nmi.IsTestCard(req.PaymentMethod.CardNumber) {
		s.logg.Info(ctx, "test card submitted, simulating payment")
		s.metrics.IncOutcome(metrics.OutcomeSimulated, recurring)
		return nmi.SimulateCharge(params), true, nil
	}

	start := s.now()
	result, err := s.gateway.Charge(ctx, params)
	s.metrics.ObserveGatewayLatency(s.gateway.Environment(), time.Since(start))
	if err != nil {
		if nmi.IsNetworkError(err) {
			if s.strictNetwork {
				return nil, false, apperrors.Wrap(apperrors.CodeDependency, err, "card gateway unreachable")
			}
			// Availability over strictness: the failure is infrastructural,
			// not a rejection of the card. Logged loudly for reconciliation.
			s.logg.Error(ctx, "gateway unreachable, falling back to simulated payment", err)
			s.metrics.IncOutcome(metrics.OutcomeNetworkFallback, recurring)
			return nmi.SimulateCharge(params), true, nil
		}
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, err, "gateway charge failed")
	}
	return result, false, nil
}

func (s *Service) chargeParams(req PaymentRequest, amount int64, recurring bool) nmi.ChargeParams {
	params := nmi.ChargeParams{
		AmountCents:    amount,
		Currency:       req.Currency,
		Description:    req.Description,
		Email:          req.CustomerEmail,
		CardNumber:     req.PaymentMethod.CardNumber,
		CardExpiry:     req.PaymentMethod.ExpiryDate,
		CardCVV:        req.PaymentMethod.CVV,
		CardholderName: req.PaymentMethod.CardholderName,
		Recurring:      recurring,
	}
	if addr := req.PaymentMethod.BillingAddress; addr != nil {
		params.BillingAddress = &nmi.BillingAddress{
			Line1:      addr.Line1,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		}
	}
	return params
}

// persist hands the approved charge to the billing writer. Failures are
// logged and swallowed: the cardholder has already been charged, so a
// bookkeeping failure must not turn the response into an error.
func (s *Service) persist(ctx context.Context, req PaymentRequest, result *nmi.Result, amount int64, lastFour string) {
	err := s.recorder.RecordPayment(ctx, billing.RecordPaymentParams{
		CustomerEmail:   req.CustomerEmail,
		TransactionID:   result.TransactionID,
		SubscriptionID:  result.SubscriptionID,
		CustomerVaultID: result.CustomerVaultID,
		AmountCents:     amount,
		PlanName:        req.PlanName,
		CardLastFour:    lastFour,
		RawResponse:     result.Raw,
	})
	if err != nil {
		s.logg.Error(ctx, "failed to persist approved payment", err)
	}
}

func (s *Service) freeDetails(req PaymentRequest) *PaymentDetails {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	return &PaymentDetails{
		Success:       true,
		TransactionID: nmi.NewTransactionID(freeTransactionPrefix),
		Amount:        0,
		Currency:      currency,
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		PaymentDate:   s.now().UTC().Format(time.RFC3339),
		Status:        "approved",
		PaymentMethodDetails: PaymentMethodDetails{
			Type: "free",
		},
		Environment: s.gateway.Environment(),
	}
}

func (s *Service) successDetails(req PaymentRequest, result *nmi.Result, amount int64, lastFour string, simulated bool) *PaymentDetails {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	expMonth, expYear := splitExpiry(req.PaymentMethod.ExpiryDate)
	return &PaymentDetails{
		Success:         true,
		TransactionID:   result.TransactionID,
		SubscriptionID:  result.SubscriptionID,
		CustomerVaultID: result.CustomerVaultID,
		Amount:          decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)).InexactFloat64(),
		Currency:        currency,
		Description:     req.Description,
		CustomerEmail:   req.CustomerEmail,
		PaymentDate:     s.now().UTC().Format(time.RFC3339),
		Status:          "approved",
		PaymentMethodDetails: PaymentMethodDetails{
			Type:     "card",
			LastFour: lastFour,
			ExpMonth: expMonth,
			ExpYear:  expYear,
		},
		RawResponse: result.Raw,
		Environment: s.gateway.Environment(),
		Simulated:   simulated,
	}
}

func cardLastFour(number string) string {
	digits := nmi.NormalizeCardNumber(number)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func splitExpiry(expiry string) (string, string) {
	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 {
		return expiry, ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
