package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	apperrors "github.com/jgstylez/blackowndemand-backend/pkg/errors"

	"github.com/jgstylez/blackowndemand-backend/pkg/db/models"
	"github.com/jgstylez/blackowndemand-backend/pkg/enums"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

const subscriptionPeriodDays = 365

// WriterParams groups dependencies for the billing writer.
type WriterParams struct {
	Repo     Repository
	Logger   *logger.Logger
	Provider string

	// RequireBusiness turns an unknown customer email into an error
	// instead of a logged no-op.
	RequireBusiness bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Writer records the persistence side effects of an approved subscription
// charge: subscription upsert, business billing fields, payment history.
// The three writes are independent; a failure in one never blocks the
// others.
type Writer struct {
	repo            Repository
	logg            *logger.Logger
	provider        string
	requireBusiness bool
	now             func() time.Time
}

// NewWriter builds a billing writer.
func NewWriter(params WriterParams) (*Writer, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Provider == "" {
		params.Provider = "nmi"
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Writer{
		repo:            params.Repo,
		logg:            params.Logger,
		provider:        params.Provider,
		requireBusiness: params.RequireBusiness,
		now:             params.Now,
	}, nil
}

// RecordPaymentParams carries everything needed to persist one approved
// recurring charge.
type RecordPaymentParams struct {
	CustomerEmail   string
	TransactionID   string
	SubscriptionID  string
	CustomerVaultID string
	AmountCents     int64
	PlanName        string
	CardLastFour    string
	RawResponse     string
}

// RecordPayment persists the outcome of an approved recurring charge. The
// returned error aggregates every write that failed; callers on the payment
// path log it and keep going, since the customer has already been charged.
func (w *Writer) RecordPayment(ctx context.Context, params RecordPaymentParams) error {
	business, err := w.repo.FindBusinessByEmail(ctx, params.CustomerEmail)
	if err != nil {
		return fmt.Errorf("looking up business by email: %w", err)
	}
	if business == nil {
		if w.requireBusiness {
			return apperrors.New(apperrors.CodeNotFound, "no business found for customer email")
		}
		w.logg.Warn(ctx, "no business matched customer email, skipping billing persistence")
		return nil
	}

	ctx = w.logg.WithBusinessID(ctx, business.ID.String())
	ctx = w.logg.WithTransactionID(ctx, params.TransactionID)
	now := w.now().UTC()

	var errs error
	if err := w.upsertSubscription(ctx, business, params, now); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("upserting subscription: %w", err))
	}
	if err := w.updateBusinessBilling(ctx, business, params, now); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("updating business billing: %w", err))
	}
	if err := w.appendPaymentHistory(ctx, business, params, now); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("recording payment history: %w", err))
	}
	return errs
}

func (w *Writer) upsertSubscription(ctx context.Context, business *models.Business, params RecordPaymentParams, now time.Time) error {
	subscription := &models.Subscription{
		BusinessID:         business.ID,
		Status:             enums.SubscriptionStatusActive,
		PaymentStatus:      enums.PaymentStatusPaid,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 0, subscriptionPeriodDays),
		PaymentProvider:    w.provider,
		NMISubscriptionID:  &params.SubscriptionID,
	}
	if params.CustomerVaultID != "" {
		subscription.NMICustomerVaultID = &params.CustomerVaultID
	}
	if params.PlanName != "" {
		plan, err := w.repo.FindPlanByName(ctx, params.PlanName)
		if err != nil {
			w.logg.Error(ctx, "plan lookup failed, storing subscription without plan id", err)
		} else if plan != nil {
			subscription.PlanID = &plan.ID
		}
	}
	return w.repo.UpsertSubscription(ctx, subscription)
}

func (w *Writer) updateBusinessBilling(ctx context.Context, business *models.Business, params RecordPaymentParams, now time.Time) error {
	fields := map[string]any{
		"subscription_status": enums.SubscriptionStatusActive,
		"last_payment_date":   now,
		"next_billing_date":   now.AddDate(0, 0, subscriptionPeriodDays),
	}
	if params.PlanName != "" {
		fields["plan_name"] = params.PlanName
	}
	if params.CardLastFour != "" {
		fields["payment_method_last_four"] = params.CardLastFour
	}
	return w.repo.UpdateBusinessBilling(ctx, business.ID, fields)
}

func (w *Writer) appendPaymentHistory(ctx context.Context, business *models.Business, params RecordPaymentParams, now time.Time) error {
	record := &models.PaymentHistory{
		BusinessID:    business.ID,
		TransactionID: params.TransactionID,
		Amount:        decimal.NewFromInt(params.AmountCents).Div(decimal.NewFromInt(100)),
		Status:        "completed",
		Type:          enums.HistoryTypeInitialSubscription,
		CreatedAt:     now,
	}
	if params.RawResponse != "" {
		record.Response = &params.RawResponse
	}
	return w.repo.CreatePaymentHistory(ctx, record)
}

// ApplyDiscount marks a discount code as used. Failures are logged, never
// surfaced: the charge has already settled by the time this runs.
func (w *Writer) ApplyDiscount(ctx context.Context, codeID string) {
	if codeID == "" {
		return
	}
	if err := w.repo.ApplyDiscountCode(ctx, codeID); err != nil {
		w.logg.Error(ctx, "failed to apply discount code", err)
	}
}
