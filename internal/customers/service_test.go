package customers

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
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
)

type stubCustomerRepo struct {
	byID    map[uuid.UUID]*models.Customer
	list    []models.Customer
	total   int64
	deleted []uuid.UUID
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byID: map[uuid.UUID]*models.Customer{}}
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if customer, ok := s.byID[id]; ok {
		return customer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerRepo) ListByStore(ctx context.Context, storeID uuid.UUID, search string, offset, limit int) ([]models.Customer, int64, error) {
	return s.list, s.total, nil
}

func (s *stubCustomerRepo) Update(ctx context.Context, customer *models.Customer) error {
	s.byID[customer.ID] = customer
	return nil
}

func (s *stubCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
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

func newCustomerService(t *testing.T, repo customerRepository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetCustomerCrossStoreNotFound(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCustomerRepo()
	other := &models.Customer{ID: uuid.New(), StoreID: uuid.New(), Email: "jane@buyer.test", Name: "Jane"}
	repo.byID[other.ID] = other
	svc := newCustomerService(t, repo)

	_, err := svc.GetByID(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), other.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateCustomer(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCustomerRepo()
	customer := &models.Customer{ID: uuid.New(), StoreID: storeID, Email: "jane@buyer.test", Name: "Jane"}
	repo.byID[customer.ID] = customer
	svc := newCustomerService(t, repo)

	name := "Jane Rivera"
	phone := "+1-555-0100"
	dto, err := svc.Update(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), customer.ID, UpdateCustomerInput{
		Name:  &name,
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("update customer: %v", err)
	}
	if dto.Name != "Jane Rivera" || dto.Phone == nil || *dto.Phone != phone {
		t.Fatalf("unexpected customer %+v", dto)
	}
	if dto.Email != "jane@buyer.test" {
		t.Fatal("email must not change")
	}
}

func TestUpdateCustomerAgencyUserForbidden(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCustomerRepo()
	customer := &models.Customer{ID: uuid.New(), StoreID: storeID, Email: "jane@buyer.test", Name: "Jane"}
	repo.byID[customer.ID] = customer
	svc := newCustomerService(t, repo)

	name := "Changed"
	_, err := svc.Update(context.Background(), viewerOf(agencyID), scopeFor(agencyID, storeID), customer.ID, UpdateCustomerInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListCustomersPaginates(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCustomerRepo()
	repo.list = []models.Customer{{ID: uuid.New(), StoreID: storeID, Email: "jane@buyer.test", Name: "Jane"}}
	repo.total = 55
	svc := newCustomerService(t, repo)

	rows, meta, err := svc.List(context.Background(), viewerOf(agencyID), scopeFor(agencyID, storeID), "", pagination.Params{Page: 1, Limit: 25})
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if meta.Total != 55 || meta.TotalPages != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestDeleteCustomer(t *testing.T) {
	agencyID, storeID := uuid.New(), uuid.New()
	repo := newStubCustomerRepo()
	customer := &models.Customer{ID: uuid.New(), StoreID: storeID, Email: "jane@buyer.test", Name: "Jane"}
	repo.byID[customer.ID] = customer
	svc := newCustomerService(t, repo)

	if err := svc.Delete(context.Background(), adminOf(agencyID), scopeFor(agencyID, storeID), customer.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected delete call")
	}
}
