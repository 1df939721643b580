package storefront

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/products"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
)

type stubProductReader struct {
	rows       []models.Product
	total      int64
	byID       map[uuid.UUID]*models.Product
	lastFilter products.ListFilter
}

func (s *stubProductReader) ListByStore(_ context.Context, _ uuid.UUID, filter products.ListFilter, _, _ int) ([]models.Product, int64, error) {
	s.lastFilter = filter
	return s.rows, s.total, nil
}

func (s *stubProductReader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type stubCategoryReader struct {
	rows []models.Category
}

func (s *stubCategoryReader) ListByStore(context.Context, uuid.UUID) ([]models.Category, error) {
	return s.rows, nil
}

func testScope() tenancy.StoreContext {
	return tenancy.StoreContext{StoreID: uuid.New(), AgencyID: uuid.New(), Label: "acme"}
}

func TestCatalogForcesActiveOnly(t *testing.T) {
	scope := testScope()
	reader := &stubProductReader{
		rows: []models.Product{{
			ID:      uuid.New(),
			StoreID: scope.StoreID,
			Name:    "Mug",
			Slug:    "mug",
			Price:   decimal.RequireFromString("12.50"),
			Stock:   4,
		}},
		total: 1,
	}
	svc, err := NewService(reader, &stubCategoryReader{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows, meta, err := svc.Catalog(context.Background(), scope, CatalogFilter{Search: " mug "}, pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if !reader.lastFilter.ActiveOnly {
		t.Fatal("public catalog must only list active products")
	}
	if reader.lastFilter.Search != "mug" {
		t.Fatalf("search not trimmed: %q", reader.lastFilter.Search)
	}
	if len(rows) != 1 || meta.Total != 1 {
		t.Fatalf("unexpected page: rows=%d total=%d", len(rows), meta.Total)
	}
}

func TestProductHidesInactiveAndForeignRows(t *testing.T) {
	scope := testScope()
	inactive := &models.Product{ID: uuid.New(), StoreID: scope.StoreID, IsActive: false}
	foreign := &models.Product{ID: uuid.New(), StoreID: uuid.New(), IsActive: true}
	visible := &models.Product{ID: uuid.New(), StoreID: scope.StoreID, IsActive: true, Name: "Mug", Slug: "mug"}

	reader := &stubProductReader{byID: map[uuid.UUID]*models.Product{
		inactive.ID: inactive,
		foreign.ID:  foreign,
		visible.ID:  visible,
	}}
	svc, err := NewService(reader, &stubCategoryReader{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	for name, id := range map[string]uuid.UUID{
		"inactive": inactive.ID,
		"foreign":  foreign.ID,
		"missing":  uuid.New(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Product(context.Background(), scope, id)
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}

	product, err := svc.Product(context.Background(), scope, visible.ID)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if product.ID != visible.ID {
		t.Fatalf("wrong product %s", product.ID)
	}
}

func TestCategoriesListsStoreRows(t *testing.T) {
	scope := testScope()
	svc, err := NewService(&stubProductReader{}, &stubCategoryReader{rows: []models.Category{
		{ID: uuid.New(), StoreID: scope.StoreID, Name: "Drinkware", Slug: "drinkware"},
	}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows, err := svc.Categories(context.Background(), scope)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Drinkware" {
		t.Fatalf("unexpected categories %+v", rows)
	}
}
