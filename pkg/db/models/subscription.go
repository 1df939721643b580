package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Subscription tracks an agency's billing state mirrored from Stripe.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID             uuid.UUID                `gorm:"column:agency_id;type:uuid;not null;uniqueIndex"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id;not null"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;uniqueIndex"`
	Plan                 string                   `gorm:"column:plan;not null"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CurrentPeriodEnd     time.Time                `gorm:"column:current_period_end;not null"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
