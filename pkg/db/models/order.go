package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Order is a store-scoped purchase. Total is the sum of the item snapshots,
// never recomputed from live product prices.
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	CustomerID      *uuid.UUID        `gorm:"column:customer_id;type:uuid;index"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	ShippingAddress *string           `gorm:"column:shipping_address"`
	StripeSessionID *string           `gorm:"column:stripe_session_id;uniqueIndex"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the product price at purchase time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
