package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// SubscriptionDTO is the agency-facing view of its billing state.
type SubscriptionDTO struct {
	ID               uuid.UUID                `json:"id"`
	AgencyID         uuid.UUID                `json:"agency_id"`
	Plan             string                   `json:"plan"`
	Status           enums.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd time.Time                `json:"current_period_end"`
	CanceledAt       *time.Time               `json:"canceled_at,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

// SubscriptionFromModel maps a subscription row to its DTO. Stripe ids stay
// server-side.
func SubscriptionFromModel(sub *models.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:               sub.ID,
		AgencyID:         sub.AgencyID,
		Plan:             sub.Plan,
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		CanceledAt:       sub.CanceledAt,
		CreatedAt:        sub.CreatedAt,
	}
}

// PaymentDTO is one settlement record.
type PaymentDTO struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   *uuid.UUID          `json:"order_id,omitempty"`
	Amount    decimal.Decimal     `json:"amount"`
	Currency  string              `json:"currency"`
	Status    enums.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// PaymentFromModel maps a payment row to its DTO.
func PaymentFromModel(payment *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Status:    payment.Status,
		CreatedAt: payment.CreatedAt,
	}
}
