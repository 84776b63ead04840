package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jgstylez/blackowndemand-backend/pkg/enums"
)

// Business is the directory listing whose billing fields this service
// mutates. The customer vault id deliberately has no column here: the
// tokenized payment handle lives only on Subscription, which has a narrower
// read surface.
type Business struct {
	ID                    uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string                   `gorm:"column:name;not null"`
	Email                 string                   `gorm:"column:email;not null;index"`
	SubscriptionStatus    enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status"`
	PlanName              *string                  `gorm:"column:plan_name"`
	NextBillingDate       *time.Time               `gorm:"column:next_billing_date"`
	LastPaymentDate       *time.Time               `gorm:"column:last_payment_date"`
	PaymentMethodLastFour *string                  `gorm:"column:payment_method_last_four"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
