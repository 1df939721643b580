package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderRepo struct {
	byID    map[uuid.UUID]*models.Order
	created *models.Order
	updated map[uuid.UUID]enums.OrderStatus
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		byID:    map[uuid.UUID]*models.Order{},
		updated: map[uuid.UUID]enums.OrderStatus{},
	}
}

func (s *stubOrderRepo) Create(tx *gorm.DB, order *models.Order) error {
	order.ID = uuid.New()
	s.byID[order.ID] = order
	s.created = order
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, order := range s.byID {
		if order.StoreID == storeID {
			out = append(out, *order)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.updated[id] = status
	if order, ok := s.byID[id]; ok {
		order.Status = status
	}
	return nil
}

type stubProductTxRepo struct {
	byID  map[uuid.UUID]*models.Product
	stock map[uuid.UUID]int
}

func newStubProductTxRepo() *stubProductTxRepo {
	return &stubProductTxRepo{
		byID:  map[uuid.UUID]*models.Product{},
		stock: map[uuid.UUID]int{},
	}
}

func (s *stubProductTxRepo) add(product *models.Product) {
	s.byID[product.ID] = product
	s.stock[product.ID] = product.Stock
}

func (s *stubProductTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.byID[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductTxRepo) DecrementStock(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	if s.stock[productID] < quantity {
		return gorm.ErrRecordNotFound
	}
	s.stock[productID] -= quantity
	return nil
}

type stubCustomerTxRepo struct {
	byEmail map[string]*models.Customer
}

func newStubCustomerTxRepo() *stubCustomerTxRepo {
	return &stubCustomerTxRepo{byEmail: map[string]*models.Customer{}}
}

func (s *stubCustomerTxRepo) FindOrCreate(tx *gorm.DB, storeID uuid.UUID, email, name string) (*models.Customer, error) {
	if customer, ok := s.byEmail[email]; ok {
		return customer, nil
	}
	customer := &models.Customer{ID: uuid.New(), StoreID: storeID, Email: email, Name: name}
	s.byEmail[email] = customer
	return customer, nil
}

type stubSalesRecorder struct {
	sales   int
	revenue decimal.Decimal
}

func (s *stubSalesRecorder) IncrementSales(tx *gorm.DB, storeID uuid.UUID, date time.Time, revenue decimal.Decimal) error {
	s.sales++
	s.revenue = s.revenue.Add(revenue)
	return nil
}

type stubCounter struct {
	next int64
}

func (s *stubCounter) Incr(ctx context.Context, key string) (int64, error) {
	s.next++
	return s.next, nil
}

func (s *stubCounter) CounterKey(name string) string {
	return "cb:counter:" + name
}

type orderTestSetup struct {
	service   Service
	orders    *stubOrderRepo
	products  *stubProductTxRepo
	customers *stubCustomerTxRepo
	analytics *stubSalesRecorder
}

func newOrderTestSetup(t *testing.T) *orderTestSetup {
	t.Helper()
	orders := newStubOrderRepo()
	products := newStubProductTxRepo()
	customers := newStubCustomerTxRepo()
	analytics := &stubSalesRecorder{}
	svc, err := NewService(ServiceParams{
		TxRunner:  stubTxRunner{},
		Orders:    orders,
		Products:  products,
		Customers: customers,
		Analytics: analytics,
		Counter:   &stubCounter{},
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return &orderTestSetup{
		service:   svc,
		orders:    orders,
		products:  products,
		customers: customers,
		analytics: analytics,
	}
}

func scopeFor(agencyID, storeID uuid.UUID) tenancy.StoreContext {
	return tenancy.StoreContext{StoreID: storeID, AgencyID: agencyID}
}

func adminOf(agencyID uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), Role: enums.UserRoleAgencyAdmin, AgencyID: &agencyID}
}

func seedProduct(setup *orderTestSetup, storeID uuid.UUID, price string, stock int) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		StoreID:  storeID,
		Name:     "Widget",
		Slug:     "widget",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	setup.products.add(product)
	return product
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	setup := newOrderTestSetup(t)
	storeID := uuid.New()
	widget := seedProduct(setup, storeID, "10.50", 5)
	gadget := seedProduct(setup, storeID, "3.25", 10)

	dto, err := setup.service.Create(context.Background(), scopeFor(uuid.New(), storeID), CreateOrderInput{
		CustomerEmail: "Jane@Buyer.test",
		CustomerName:  "Jane Rivera",
		Items: []OrderItemInput{
			{ProductID: widget.ID, Quantity: 2},
			{ProductID: gadget.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	want := decimal.RequireFromString("30.75")
	if !dto.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, dto.Total)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(dto.Items))
	}
	if !dto.Items[0].Price.Equal(widget.Price) {
		t.Fatal("expected price snapshot from product")
	}
	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", dto.Status)
	}
	if !strings.HasPrefix(dto.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", dto.OrderNumber)
	}
	if dto.CustomerEmail != "jane@buyer.test" {
		t.Fatalf("expected normalized email, got %q", dto.CustomerEmail)
	}

	if setup.products.stock[widget.ID] != 3 || setup.products.stock[gadget.ID] != 7 {
		t.Fatal("expected stock decremented")
	}
	if setup.analytics.sales != 1 || !setup.analytics.revenue.Equal(want) {
		t.Fatal("expected sales rollup recorded")
	}
	if dto.CustomerID == nil {
		t.Fatal("expected customer linked")
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	setup := newOrderTestSetup(t)
	storeID := uuid.New()
	widget := seedProduct(setup, storeID, "10.00", 1)

	_, err := setup.service.Create(context.Background(), scopeFor(uuid.New(), storeID), CreateOrderInput{
		CustomerEmail: "jane@buyer.test",
		CustomerName:  "Jane",
		Items:         []OrderItemInput{{ProductID: widget.ID, Quantity: 2}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "insufficient stock") {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if setup.analytics.sales != 0 {
		t.Fatal("expected no rollup on failure")
	}
}

func TestCreateOrderForeignProductRejected(t *testing.T) {
	setup := newOrderTestSetup(t)
	foreign := seedProduct(setup, uuid.New(), "10.00", 5)

	_, err := setup.service.Create(context.Background(), scopeFor(uuid.New(), uuid.New()), CreateOrderInput{
		CustomerEmail: "jane@buyer.test",
		CustomerName:  "Jane",
		Items:         []OrderItemInput{{ProductID: foreign.ID, Quantity: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderInactiveProductRejected(t *testing.T) {
	setup := newOrderTestSetup(t)
	storeID := uuid.New()
	widget := seedProduct(setup, storeID, "10.00", 5)
	widget.IsActive = false

	_, err := setup.service.Create(context.Background(), scopeFor(uuid.New(), storeID), CreateOrderInput{
		CustomerEmail: "jane@buyer.test",
		CustomerName:  "Jane",
		Items:         []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	setup := newOrderTestSetup(t)
	scope := scopeFor(uuid.New(), uuid.New())

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"bad email", CreateOrderInput{CustomerEmail: "nope", CustomerName: "Jane", Items: []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}}}},
		{"missing name", CreateOrderInput{CustomerEmail: "jane@buyer.test", Items: []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}}}},
		{"no items", CreateOrderInput{CustomerEmail: "jane@buyer.test", CustomerName: "Jane"}},
		{"zero quantity", CreateOrderInput{CustomerEmail: "jane@buyer.test", CustomerName: "Jane", Items: []OrderItemInput{{ProductID: uuid.New(), Quantity: 0}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := setup.service.Create(context.Background(), scope, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	setup := newOrderTestSetup(t)
	agencyID, storeID := uuid.New(), uuid.New()
	order := &models.Order{ID: uuid.New(), StoreID: storeID, Status: enums.OrderStatusPending, OrderNumber: "ORD-1"}
	setup.orders.byID[order.ID] = order
	principal := adminOf(agencyID)
	scope := scopeFor(agencyID, storeID)

	dto, err := setup.service.UpdateStatus(context.Background(), principal, scope, order.ID, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if dto.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", dto.Status)
	}

	if _, err := setup.service.UpdateStatus(context.Background(), principal, scope, order.ID, enums.OrderStatusCompleted); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}

	// Completed orders can only be refunded.
	_, err = setup.service.UpdateStatus(context.Background(), principal, scope, order.ID, enums.OrderStatusPending)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := setup.service.UpdateStatus(context.Background(), principal, scope, order.ID, enums.OrderStatusRefunded); err != nil {
		t.Fatalf("completed -> refunded: %v", err)
	}
}

func TestGetOrderCrossStoreNotFound(t *testing.T) {
	setup := newOrderTestSetup(t)
	agencyID, storeID := uuid.New(), uuid.New()
	order := &models.Order{ID: uuid.New(), StoreID: uuid.New(), Status: enums.OrderStatusPending}
	setup.orders.byID[order.ID] = order

	_, err := setup.service.GetByID(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderNumbersIncrement(t *testing.T) {
	setup := newOrderTestSetup(t)
	storeID := uuid.New()
	widget := seedProduct(setup, storeID, "1.00", 100)
	scope := scopeFor(uuid.New(), storeID)

	first, err := setup.service.Create(context.Background(), scope, CreateOrderInput{
		CustomerEmail: "jane@buyer.test",
		CustomerName:  "Jane",
		Items:         []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	second, err := setup.service.Create(context.Background(), scope, CreateOrderInput{
		CustomerEmail: "jane@buyer.test",
		CustomerName:  "Jane",
		Items:         []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if first.OrderNumber == second.OrderNumber {
		t.Fatal("expected distinct order numbers")
	}
}
