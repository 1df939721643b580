package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

type subscriptionRepository interface {
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	Upsert(tx *gorm.DB, sub *models.Subscription) error
	Save(tx *gorm.DB, sub *models.Subscription) error
}

type paymentRepository interface {
	FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	Create(tx *gorm.DB, payment *models.Payment) error
}

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	UpdateStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error
}

type stripeSubscriptionClient interface {
	Get(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Subscriptions     subscriptionRepository
	Payments          paymentRepository
	Orders            orderRepository
	StripeClient      stripeSubscriptionClient
	TransactionRunner txRunner
}

// Service applies Stripe webhook events to local billing and order state.
// Signature verification happens at the transport layer before events reach
// HandleEvent.
type Service struct {
	subscriptions subscriptionRepository
	payments      paymentRepository
	orders        orderRepository
	stripe        stripeSubscriptionClient
	txRunner      txRunner
}

// NewService constructs a webhook service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repo required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		subscriptions: params.Subscriptions,
		payments:      params.Payments,
		orders:        params.Orders,
		stripe:        params.StripeClient,
		txRunner:      params.TransactionRunner,
	}, nil
}

// HandleEvent routes one verified event. Unknown event types are acknowledged
// so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.handleCheckoutCompleted(ctx, &session)
	case stripe.EventTypeInvoicePaid:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		return s.refreshSubscription(ctx, subscriptionID)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.cancelSubscription(ctx, &stripeSub)
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	switch session.Mode {
	case stripe.CheckoutSessionModeSubscription:
		return s.activateSubscription(ctx, session)
	default:
		return s.settleOrderPayment(ctx, session)
	}
}

// activateSubscription records an agency's completed subscription purchase.
// The period end lives on the subscription object, so it is fetched fresh.
func (s *Service) activateSubscription(ctx context.Context, session *stripe.CheckoutSession) error {
	agencyID, err := uuid.Parse(session.Metadata["agency_id"])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agency id missing from session metadata")
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing from session")
	}

	stripeSub, err := s.stripe.Get(ctx, session.Subscription.ID, &stripe.SubscriptionParams{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
	}

	sub := models.Subscription{
		AgencyID:             agencyID,
		StripeSubscriptionID: stripeSub.ID,
		Plan:                 session.Metadata["plan"],
		Status:               mapSubscriptionStatus(stripeSub.Status),
		CurrentPeriodEnd:     periodEnd(stripeSub),
	}
	if session.Customer != nil {
		sub.StripeCustomerID = session.Customer.ID
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.subscriptions.Upsert(tx, &sub)
	})
}

// refreshSubscription re-reads the provider state after a successful invoice
// and rolls the stored period forward.
func (s *Service) refreshSubscription(ctx context.Context, subscriptionID string) error {
	stripeSub, err := s.stripe.Get(ctx, subscriptionID, &stripe.SubscriptionParams{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
	}

	stored, err := s.subscriptions.FindByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Invoice for a subscription we never recorded. Ack and move on.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find subscription")
	}

	stored.Status = mapSubscriptionStatus(stripeSub.Status)
	if end := periodEnd(stripeSub); !end.IsZero() {
		stored.CurrentPeriodEnd = end
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.subscriptions.Save(tx, stored)
	})
}

func (s *Service) cancelSubscription(ctx context.Context, stripeSub *stripe.Subscription) error {
	stored, err := s.subscriptions.FindByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find subscription")
	}

	stored.Status = enums.SubscriptionStatusCanceled
	canceledAt := time.Now().UTC()
	if stripeSub.CanceledAt > 0 {
		canceledAt = time.Unix(stripeSub.CanceledAt, 0).UTC()
	}
	stored.CanceledAt = &canceledAt

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.subscriptions.Save(tx, stored)
	})
}

// settleOrderPayment records the settlement and moves the order into
// processing. Replayed events find the existing payment row and ack.
func (s *Service) settleOrderPayment(ctx context.Context, session *stripe.CheckoutSession) error {
	if _, err := s.payments.FindByStripeSessionID(ctx, session.ID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find payment")
	}

	order, err := s.lookupOrder(ctx, session)
	if err != nil {
		return err
	}

	payment := models.Payment{
		OrderID:         &order.ID,
		StripeSessionID: session.ID,
		Amount:          decimal.New(session.AmountTotal, -2),
		Currency:        strings.ToUpper(string(session.Currency)),
		Status:          enums.PaymentStatusSucceeded,
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.Create(tx, &payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		if order.Status == enums.OrderStatusPending {
			if err := s.orders.UpdateStatusWithTx(tx, order.ID, enums.OrderStatusProcessing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
		}
		return nil
	})
}

func (s *Service) lookupOrder(ctx context.Context, session *stripe.CheckoutSession) (*models.Order, error) {
	if raw := session.Metadata["order_id"]; raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id in session metadata")
		}
		order, err := s.orders.FindByID(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
		}
	}

	order, err := s.orders.FindByStripeSessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return order, nil
}

func mapSubscriptionStatus(status stripe.SubscriptionStatus) enums.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusCanceled,
		stripe.SubscriptionStatusIncompleteExpired,
		stripe.SubscriptionStatusUnpaid:
		return enums.SubscriptionStatusCanceled
	default:
		return enums.SubscriptionStatusActive
	}
}

func periodEnd(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}
	}
	if end := sub.Items.Data[0].CurrentPeriodEnd; end > 0 {
		return time.Unix(end, 0).UTC()
	}
	return time.Time{}
}
