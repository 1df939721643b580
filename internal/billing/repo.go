package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// SubscriptionRepository handles the agency billing rows mirrored from Stripe.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository binds a GORM DB to subscription operations.
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByAgencyID retrieves the agency's subscription.
func (r *SubscriptionRepository) FindByAgencyID(ctx context.Context, agencyID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByStripeSubscriptionID retrieves a subscription by its provider id.
func (r *SubscriptionRepository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", subscriptionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert writes the subscription keyed on agency_id, replacing the mutable
// billing fields on conflict. Webhook replays converge on the same row.
func (r *SubscriptionRepository) Upsert(tx *gorm.DB, sub *models.Subscription) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agency_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id",
			"stripe_subscription_id",
			"plan",
			"status",
			"current_period_end",
			"canceled_at",
			"updated_at",
		}),
	}).Create(sub).Error
}

// Save persists in-place changes to an existing subscription row.
func (r *SubscriptionRepository) Save(tx *gorm.DB, sub *models.Subscription) error {
	return tx.Save(sub).Error
}

// PaymentRepository handles checkout settlement records.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository binds a GORM DB to payment operations.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a payment row inside the caller's transaction.
func (r *PaymentRepository) Create(tx *gorm.DB, payment *models.Payment) error {
	return tx.Create(payment).Error
}

// FindByStripeSessionID retrieves the payment tied to a checkout session.
func (r *PaymentRepository) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByAgency returns the agency's payments, newest first.
func (r *PaymentRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID, offset, limit int) ([]models.Payment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Payment{}).Where("agency_id = ?", agencyID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Payment
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
