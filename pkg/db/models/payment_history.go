package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jgstylez/blackowndemand-backend/pkg/enums"
)

// PaymentHistory is an append-only audit record. Rows are never updated or
// deleted by this service; amount is stored in major currency units.
type PaymentHistory struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID    uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	TransactionID string            `gorm:"column:transaction_id;not null"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        string            `gorm:"column:status;not null"`
	Type          enums.HistoryType `gorm:"column:type;type:history_type;not null;default:'initial_subscription'"`
	Response      *string           `gorm:"column:response"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}
