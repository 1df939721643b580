package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

type stubCategoryRepo struct {
	byID    map[uuid.UUID]*models.Category
	deleted []uuid.UUID
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{byID: map[uuid.UUID]*models.Category{}}
}

func (s *stubCategoryRepo) add(category *models.Category) {
	s.byID[category.ID] = category
}

func (s *stubCategoryRepo) Create(ctx context.Context, dto CreateCategoryDTO) (*models.Category, error) {
	category := dto.ToModel()
	category.ID = uuid.New()
	s.add(category)
	return category, nil
}

func (s *stubCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if category, ok := s.byID[id]; ok {
		return category, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) FindByStoreSlug(ctx context.Context, storeID uuid.UUID, slug string) (*models.Category, error) {
	for _, category := range s.byID {
		if category.StoreID == storeID && category.Slug == slug {
			return category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, category := range s.byID {
		if category.StoreID == storeID {
			out = append(out, *category)
		}
	}
	return out, nil
}

func (s *stubCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	s.byID[category.ID] = category
	return nil
}

func (s *stubCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

func scopeFor(agencyID, storeID uuid.UUID) tenancy.StoreContext {
	return tenancy.StoreContext{StoreID: storeID, AgencyID: agencyID}
}

func adminOf(agencyID uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), Role: enums.UserRoleAgencyAdmin, AgencyID: &agencyID}
}

func viewerOf(agencyID uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), Role: enums.UserRoleAgencyUser, AgencyID: &agencyID}
}

func newCategoryService(t *testing.T, repo categoryRepository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateCategorySlugPerStore(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCategoryRepo()
	svc := newCategoryService(t, repo)
	scope := scopeFor(agencyID, storeID)

	dto, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateCategoryInput{Name: "Hot Drinks"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if dto.Slug != "hot-drinks" {
		t.Fatalf("unexpected slug %q", dto.Slug)
	}

	// Same slug in another store is fine.
	otherScope := scopeFor(agencyID, uuid.New())
	if _, err := svc.Create(context.Background(), adminOf(agencyID), otherScope, CreateCategoryInput{Name: "Hot Drinks"}); err != nil {
		t.Fatalf("create in second store: %v", err)
	}

	// Duplicate within the same store conflicts.
	_, err = svc.Create(context.Background(), adminOf(agencyID), scope, CreateCategoryInput{Name: "Hot Drinks"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateCategoryAgencyUserForbidden(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	svc := newCategoryService(t, newStubCategoryRepo())

	_, err := svc.Create(context.Background(), viewerOf(agencyID), scopeFor(agencyID, storeID), CreateCategoryInput{Name: "Hot Drinks"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateCategoryCrossStoreNotFound(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCategoryRepo()
	other := &models.Category{ID: uuid.New(), StoreID: uuid.New(), Name: "Snacks", Slug: "snacks"}
	repo.add(other)
	svc := newCategoryService(t, repo)

	name := "Renamed"
	_, err := svc.Update(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), other.ID, UpdateCategoryInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateCategoryRename(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCategoryRepo()
	category := &models.Category{ID: uuid.New(), StoreID: storeID, Name: "Snacks", Slug: "snacks"}
	repo.add(category)
	svc := newCategoryService(t, repo)

	name := "Sweet Snacks"
	dto, err := svc.Update(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), category.ID, UpdateCategoryInput{Name: &name})
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if dto.Slug != "sweet-snacks" {
		t.Fatalf("expected regenerated slug, got %q", dto.Slug)
	}
}

func TestDeleteCategory(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCategoryRepo()
	category := &models.Category{ID: uuid.New(), StoreID: storeID, Name: "Snacks", Slug: "snacks"}
	repo.add(category)
	svc := newCategoryService(t, repo)

	if err := svc.Delete(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected delete call")
	}
}

func TestListCategoriesReadableByAgencyUser(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCategoryRepo()
	repo.add(&models.Category{ID: uuid.New(), StoreID: storeID, Name: "Snacks", Slug: "snacks"})
	svc := newCategoryService(t, repo)

	rows, err := svc.List(context.Background(), viewerOf(agencyID), scopeFor(agencyID, storeID))
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 category, got %d", len(rows))
	}
}
