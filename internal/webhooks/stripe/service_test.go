package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

type stubSubRepo struct {
	byStripeID map[string]*models.Subscription
	upserted   []*models.Subscription
	saved      []*models.Subscription
}

func newStubSubRepo() *stubSubRepo {
	return &stubSubRepo{byStripeID: make(map[string]*models.Subscription)}
}

func (s *stubSubRepo) FindByStripeSubscriptionID(_ context.Context, subscriptionID string) (*models.Subscription, error) {
	sub, ok := s.byStripeID[subscriptionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sub
	return &copied, nil
}

func (s *stubSubRepo) Upsert(_ *gorm.DB, sub *models.Subscription) error {
	s.upserted = append(s.upserted, sub)
	s.byStripeID[sub.StripeSubscriptionID] = sub
	return nil
}

func (s *stubSubRepo) Save(_ *gorm.DB, sub *models.Subscription) error {
	s.saved = append(s.saved, sub)
	s.byStripeID[sub.StripeSubscriptionID] = sub
	return nil
}

type stubPaymentRepo struct {
	bySession map[string]*models.Payment
	created   []*models.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{bySession: make(map[string]*models.Payment)}
}

func (s *stubPaymentRepo) FindByStripeSessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	payment, ok := s.bySession[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (s *stubPaymentRepo) Create(_ *gorm.DB, payment *models.Payment) error {
	s.created = append(s.created, payment)
	s.bySession[payment.StripeSessionID] = payment
	return nil
}

type stubOrderRepo struct {
	byID      map[uuid.UUID]*models.Order
	bySession map[string]*models.Order
	statuses  map[uuid.UUID]enums.OrderStatus
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		byID:      make(map[uuid.UUID]*models.Order),
		bySession: make(map[string]*models.Order),
		statuses:  make(map[uuid.UUID]enums.OrderStatus),
	}
}

func (s *stubOrderRepo) add(order *models.Order, sessionID string) {
	s.byID[order.ID] = order
	if sessionID != "" {
		s.bySession[sessionID] = order
	}
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) FindByStripeSessionID(_ context.Context, sessionID string) (*models.Order, error) {
	order, ok := s.bySession[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) UpdateStatusWithTx(_ *gorm.DB, id uuid.UUID, status enums.OrderStatus) error {
	s.statuses[id] = status
	return nil
}

type stubStripeClient struct {
	subs map[string]*stripe.Subscription
}

func (s *stubStripeClient) Get(_ context.Context, id string, _ *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return sub, nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type webhookSetup struct {
	svc      *Service
	subs     *stubSubRepo
	payments *stubPaymentRepo
	orders   *stubOrderRepo
	stripe   *stubStripeClient
}

func newWebhookSetup(t *testing.T) *webhookSetup {
	t.Helper()
	setup := &webhookSetup{
		subs:     newStubSubRepo(),
		payments: newStubPaymentRepo(),
		orders:   newStubOrderRepo(),
		stripe:   &stubStripeClient{subs: make(map[string]*stripe.Subscription)},
	}
	svc, err := NewService(ServiceParams{
		Subscriptions:     setup.subs,
		Payments:          setup.payments,
		Orders:            setup.orders,
		StripeClient:      setup.stripe,
		TransactionRunner: &stubTxRunner{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	setup.svc = svc
	return setup
}

func checkoutEvent(t *testing.T, payload map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &stripe.Event{
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestCheckoutCompletedSettlesOrder(t *testing.T) {
	setup := newWebhookSetup(t)
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	setup.orders.add(order, "cs_123")

	event := checkoutEvent(t, map[string]any{
		"id":           "cs_123",
		"mode":         "payment",
		"amount_total": 3075,
		"currency":     "usd",
		"metadata":     map[string]string{"order_id": order.ID.String()},
	})
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(setup.payments.created) != 1 {
		t.Fatalf("expected one payment, got %d", len(setup.payments.created))
	}
	payment := setup.payments.created[0]
	if !payment.Amount.Equal(decimal.RequireFromString("30.75")) || payment.Currency != "USD" {
		t.Fatalf("unexpected payment %s %s", payment.Amount, payment.Currency)
	}
	if payment.Status != enums.PaymentStatusSucceeded || *payment.OrderID != order.ID {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if setup.orders.statuses[order.ID] != enums.OrderStatusProcessing {
		t.Fatalf("expected order moved to processing, got %s", setup.orders.statuses[order.ID])
	}
}

func TestCheckoutCompletedReplayAcked(t *testing.T) {
	setup := newWebhookSetup(t)
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusProcessing}
	setup.orders.add(order, "cs_123")
	setup.payments.bySession["cs_123"] = &models.Payment{ID: uuid.New(), StripeSessionID: "cs_123"}

	event := checkoutEvent(t, map[string]any{
		"id":           "cs_123",
		"mode":         "payment",
		"amount_total": 3075,
		"currency":     "usd",
	})
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(setup.payments.created) != 0 {
		t.Fatalf("replay must not create payments, got %d", len(setup.payments.created))
	}
}

func TestCheckoutCompletedActivatesSubscription(t *testing.T) {
	setup := newWebhookSetup(t)
	agencyID := uuid.New()
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	setup.stripe.subs["sub_1"] = &stripe.Subscription{
		ID:     "sub_1",
		Status: stripe.SubscriptionStatusActive,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{CurrentPeriodEnd: periodEnd}},
		},
	}

	event := checkoutEvent(t, map[string]any{
		"id":           "cs_sub",
		"mode":         "subscription",
		"customer":     "cus_1",
		"subscription": "sub_1",
		"metadata":     map[string]string{"agency_id": agencyID.String(), "plan": "growth"},
	})
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(setup.subs.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(setup.subs.upserted))
	}
	sub := setup.subs.upserted[0]
	if sub.AgencyID != agencyID || sub.Plan != "growth" || sub.StripeCustomerID != "cus_1" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.Status != enums.SubscriptionStatusActive || !sub.CurrentPeriodEnd.Equal(time.Unix(periodEnd, 0).UTC()) {
		t.Fatalf("unexpected billing state %+v", sub)
	}
}

func TestInvoicePaidRollsPeriodForward(t *testing.T) {
	setup := newWebhookSetup(t)
	oldEnd := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	newEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	setup.subs.byStripeID["sub_1"] = &models.Subscription{
		ID:                   uuid.New(),
		AgencyID:             uuid.New(),
		StripeSubscriptionID: "sub_1",
		Status:               enums.SubscriptionStatusActive,
		CurrentPeriodEnd:     oldEnd,
	}
	setup.stripe.subs["sub_1"] = &stripe.Subscription{
		ID:     "sub_1",
		Status: stripe.SubscriptionStatusActive,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{CurrentPeriodEnd: newEnd}},
		},
	}

	event := &stripe.Event{
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{
			Raw:    json.RawMessage(`{"subscription":"sub_1"}`),
			Object: map[string]interface{}{"subscription": "sub_1"},
		},
	}
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(setup.subs.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(setup.subs.saved))
	}
	if !setup.subs.saved[0].CurrentPeriodEnd.Equal(time.Unix(newEnd, 0).UTC()) {
		t.Fatalf("expected period end %v, got %v", time.Unix(newEnd, 0).UTC(), setup.subs.saved[0].CurrentPeriodEnd)
	}
}

func TestSubscriptionDeletedCancels(t *testing.T) {
	setup := newWebhookSetup(t)
	setup.subs.byStripeID["sub_1"] = &models.Subscription{
		ID:                   uuid.New(),
		AgencyID:             uuid.New(),
		StripeSubscriptionID: "sub_1",
		Status:               enums.SubscriptionStatusActive,
	}
	canceledAt := time.Now().Add(-time.Minute).Unix()

	event := &stripe.Event{
		Type: stripe.EventTypeCustomerSubscriptionDeleted,
		Data: &stripe.EventData{
			Raw: json.RawMessage(fmt.Sprintf(`{"id":"sub_1","canceled_at":%d}`, canceledAt)),
		},
	}
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(setup.subs.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(setup.subs.saved))
	}
	saved := setup.subs.saved[0]
	if saved.Status != enums.SubscriptionStatusCanceled || saved.CanceledAt == nil {
		t.Fatalf("expected canceled subscription, got %+v", saved)
	}
	if !saved.CanceledAt.Equal(time.Unix(canceledAt, 0).UTC()) {
		t.Fatalf("unexpected canceled_at %v", saved.CanceledAt)
	}
}

func TestUnknownEventAcked(t *testing.T) {
	setup := newWebhookSetup(t)
	event := &stripe.Event{
		Type: stripe.EventType("product.created"),
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := setup.svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown events must be acknowledged, got %v", err)
	}
}
