package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jgstylez/blackowndemand-backend/pkg/enums"
)

// Subscription persists gateway enrollment state per business. The unique
// index on business_id is what makes the writer's upsert idempotent: at most
// one subscription row survives per business on this write path.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID         uuid.UUID                `gorm:"column:business_id;type:uuid;not null;uniqueIndex"`
	PlanID             *uuid.UUID               `gorm:"column:plan_id;type:uuid"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'active'"`
	PaymentStatus      enums.PaymentStatus      `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	CurrentPeriodStart time.Time                `gorm:"column:current_period_start;not null"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null"`
	PaymentProvider    string                   `gorm:"column:payment_provider;not null"`
	NMISubscriptionID  *string                  `gorm:"column:nmi_subscription_id"`
	NMICustomerVaultID *string                  `gorm:"column:nmi_customer_vault_id"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
