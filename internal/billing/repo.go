package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgstylez/blackowndemand-backend/pkg/db/models"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBusinessByEmail(ctx context.Context, email string) (*models.Business, error)
	UpdateBusinessBilling(ctx context.Context, businessID uuid.UUID, fields map[string]any) error
	UpsertSubscription(ctx context.Context, subscription *models.Subscription) error
	CreatePaymentHistory(ctx context.Context, record *models.PaymentHistory) error
	FindPlanByName(ctx context.Context, name string) (*models.Plan, error)
	ApplyDiscountCode(ctx context.Context, codeID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBusinessByEmail(ctx context.Context, email string) (*models.Business, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var business models.Business
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		Order("created_at DESC").
		First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}

func (r *repository) UpdateBusinessBilling(ctx context.Context, businessID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ?", businessID).
		Updates(fields).Error
}

// UpsertSubscription inserts or replaces the subscription row for a
// business. The conflict target is business_id, so repeated writes for the
// same business converge on a single row.
func (r *repository) UpsertSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id",
				"status",
				"payment_status",
				"current_period_start",
				"current_period_end",
				"payment_provider",
				"nmi_subscription_id",
				"nmi_customer_vault_id",
				"updated_at",
			}),
		}).
		Create(subscription).Error
}

func (r *repository) CreatePaymentHistory(ctx context.Context, record *models.PaymentHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	if name == "" {
		return nil, nil
	}
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ApplyDiscountCode increments the usage counter for a discount code via
// the database function that owns the counting rules.
func (r *repository) ApplyDiscountCode(ctx context.Context, codeID string) error {
	if codeID == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT apply_discount_code(?)", codeID).Error
}
