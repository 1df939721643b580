package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

// Allowed status transitions. A missing key means the state is terminal.
var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusCompleted:  {enums.OrderStatusRefunded},
}

type orderRepository interface {
	Create(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

type productTxRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStock(tx *gorm.DB, productID uuid.UUID, quantity int) error
}

type customerTxRepository interface {
	FindOrCreate(tx *gorm.DB, storeID uuid.UUID, email, name string) (*models.Customer, error)
}

type salesRecorder interface {
	IncrementSales(tx *gorm.DB, storeID uuid.UUID, date time.Time, revenue decimal.Decimal) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

// Service exposes order management inside a resolved store scope. CreateOrder
// is also reachable from the public storefront surface with a nil principal
// check handled by the caller.
type Service interface {
	Create(ctx context.Context, scope tenancy.StoreContext, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, status *enums.OrderStatus, params pagination.Params) ([]OrderDTO, types.Pagination, error)
	GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	DB        *db.Client
	TxRunner  txRunner
	Orders    orderRepository
	Products  productTxRepository
	Customers customerTxRepository
	Analytics salesRecorder
	Counter   orderCounter
}

type service struct {
	tx        txRunner
	orders    orderRepository
	products  productTxRepository
	customers customerTxRepository
	analytics salesRecorder
	counter   orderCounter
}

// NewService constructs an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	runner := params.TxRunner
	if runner == nil {
		if params.DB == nil {
			return nil, fmt.Errorf("database client required")
		}
		runner = params.DB
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Analytics == nil {
		return nil, fmt.Errorf("analytics recorder required")
	}
	if params.Counter == nil {
		return nil, fmt.Errorf("order counter required")
	}
	return &service{
		tx:        runner,
		orders:    params.Orders,
		products:  params.Products,
		customers: params.Customers,
		analytics: params.Analytics,
		counter:   params.Counter,
	}, nil
}

// OrderItemInput names a product and quantity in a new order.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput captures a storefront checkout payload.
type CreateOrderInput struct {
	CustomerEmail   string           `json:"customer_email" validate:"required,email"`
	CustomerName    string           `json:"customer_name" validate:"required"`
	ShippingAddress *string          `json:"shipping_address,omitempty"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create places an order: it snapshots prices, decrements stock, rolls the
// daily sales counter, and assigns a sequential order number. Everything but
// the order number runs in one transaction.
func (s *service) Create(ctx context.Context, scope tenancy.StoreContext, input CreateOrderInput) (*OrderDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	name := strings.TrimSpace(input.CustomerName)
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer email")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	orderNumber, err := s.nextOrderNumber(ctx, scope.StoreID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product.StoreID != scope.StoreID || !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "product not found")
			}

			if err := s.products.DecrementStock(tx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %s", product.Name))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}

			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		customer, err := s.customers.FindOrCreate(tx, scope.StoreID, email, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve customer")
		}

		order = &models.Order{
			StoreID:         scope.StoreID,
			CustomerID:      &customer.ID,
			OrderNumber:     orderNumber,
			Status:          enums.OrderStatusPending,
			Total:           total,
			CustomerEmail:   email,
			CustomerName:    name,
			ShippingAddress: input.ShippingAddress,
			Items:           items,
		}
		if err := s.orders.Create(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := s.analytics.IncrementSales(tx, scope.StoreID, time.Now().UTC(), total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, status *enums.OrderStatus, params pagination.Params) ([]OrderDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, types.Pagination{}, err
	}
	if status != nil && !status.IsValid() {
		return nil, types.Pagination{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	normalized := params.Normalize()
	rows, total, err := s.orders.ListByStore(ctx, scope.StoreID, status, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*OrderDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, err
	}

	order, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	return FromModel(order), nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range statusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func storeResource(scope tenancy.StoreContext) authz.Resource {
	storeID := scope.StoreID
	return authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}
}

func (s *service) loadScoped(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.StoreID != scope.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) nextOrderNumber(ctx context.Context, storeID uuid.UUID) (string, error) {
	seq, err := s.counter.Incr(ctx, s.counter.CounterKey("orders:"+storeID.String()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next order number")
	}
	return fmt.Sprintf("ORD-%s-%06d", strings.ToUpper(storeID.String()[:8]), seq), nil
}
