package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// OrderDTO is the transport shape for store orders.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	StoreID         uuid.UUID         `json:"store_id"`
	CustomerID      *uuid.UUID        `json:"customer_id,omitempty"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	Total           decimal.Decimal   `json:"total"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerName    string            `json:"customer_name"`
	ShippingAddress *string           `json:"shipping_address,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderItemDTO carries the price snapshot taken at purchase time.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// FromModel maps the persisted order into a DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &OrderDTO{
		ID:              m.ID,
		StoreID:         m.StoreID,
		CustomerID:      m.CustomerID,
		OrderNumber:     m.OrderNumber,
		Status:          m.Status,
		Total:           m.Total,
		CustomerEmail:   m.CustomerEmail,
		CustomerName:    m.CustomerName,
		ShippingAddress: m.ShippingAddress,
		Items:           items,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
