package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/internal/categories"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

// ProductDTO is the transport shape for catalog products.
type ProductDTO struct {
	ID          uuid.UUID               `json:"id"`
	StoreID     uuid.UUID               `json:"store_id"`
	CategoryID  *uuid.UUID              `json:"category_id,omitempty"`
	Name        string                  `json:"name"`
	Slug        string                  `json:"slug"`
	Description *string                 `json:"description,omitempty"`
	Price       decimal.Decimal         `json:"price"`
	Stock       int                     `json:"stock"`
	Images      []string                `json:"images"`
	IsActive    bool                    `json:"is_active"`
	Category    *categories.CategoryDTO `json:"category,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// CreateProductDTO holds creation-time data for a new product.
type CreateProductDTO struct {
	StoreID     uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	Slug        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	Images      []string
}

// FromModel maps the persisted product into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:          m.ID,
		StoreID:     m.StoreID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Images:      append([]string(nil), []string(m.Images)...),
		IsActive:    m.IsActive,
		Category:    categories.FromModel(m.Category),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO.
func (c CreateProductDTO) ToModel() *models.Product {
	images := c.Images
	if images == nil {
		images = []string{}
	}
	productSlug := c.Slug
	if productSlug == "" {
		productSlug = slug.Make(c.Name)
	}
	return &models.Product{
		StoreID:     c.StoreID,
		CategoryID:  c.CategoryID,
		Name:        c.Name,
		Slug:        productSlug,
		Description: c.Description,
		Price:       c.Price,
		Stock:       c.Stock,
		Images:      pq.StringArray(images),
		IsActive:    true,
	}
}
