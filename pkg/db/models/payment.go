package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Payment records a Stripe checkout settlement for an order or an agency
// subscription purchase.
type Payment struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         *uuid.UUID          `gorm:"column:order_id;type:uuid;index"`
	AgencyID        *uuid.UUID          `gorm:"column:agency_id;type:uuid;index"`
	StripeSessionID string              `gorm:"column:stripe_session_id;not null;uniqueIndex"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency        string              `gorm:"column:currency;not null;default:'USD'"`
	Status          enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
