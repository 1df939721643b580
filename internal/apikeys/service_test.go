package apikeys

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/security"
)

type stubKeyRepo struct {
	byID   map[uuid.UUID]*models.ApiKey
	byHash map[string]*models.ApiKey
	usage  []models.ApiUsage
}

func newStubKeyRepo() *stubKeyRepo {
	return &stubKeyRepo{
		byID:   make(map[uuid.UUID]*models.ApiKey),
		byHash: make(map[string]*models.ApiKey),
	}
}

func (s *stubKeyRepo) Create(_ context.Context, key *models.ApiKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now()
	s.byID[key.ID] = key
	s.byHash[key.KeyHash] = key
	return nil
}

func (s *stubKeyRepo) FindByID(_ context.Context, id uuid.UUID) (*models.ApiKey, error) {
	key, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *key
	return &copied, nil
}

func (s *stubKeyRepo) FindByHash(_ context.Context, hash string) (*models.ApiKey, error) {
	key, ok := s.byHash[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *key
	return &copied, nil
}

func (s *stubKeyRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]models.ApiKey, error) {
	var out []models.ApiKey
	for _, key := range s.byID {
		if key.StoreID == storeID {
			out = append(out, *key)
		}
	}
	return out, nil
}

func (s *stubKeyRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.ApiKeyStatus) error {
	if key, ok := s.byID[id]; ok {
		key.Status = status
	}
	return nil
}

func (s *stubKeyRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	if key, ok := s.byID[id]; ok {
		key.LastUsedAt = &at
	}
	return nil
}

func (s *stubKeyRepo) LogUsage(_ context.Context, usage *models.ApiUsage) error {
	s.usage = append(s.usage, *usage)
	return nil
}

func newKeySetup(t *testing.T) (Service, *stubKeyRepo) {
	t.Helper()
	repo := newStubKeyRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func adminOf(agencyID uuid.UUID) authz.Principal {
	return authz.Principal{
		UserID:   uuid.New(),
		Role:     enums.UserRoleAgencyAdmin,
		AgencyID: &agencyID,
	}
}

func scopeFor(agencyID uuid.UUID) tenancy.StoreContext {
	return tenancy.StoreContext{StoreID: uuid.New(), AgencyID: agencyID}
}

func TestCreateKeyReturnsPlaintextOnce(t *testing.T) {
	svc, repo := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)

	created, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateAPIKeyInput{
		Name:       "storefront",
		Permission: enums.ApiKeyPermissionRead,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(created.Key, "sk_read_") {
		t.Fatalf("unexpected key shape %q", created.Key)
	}
	if created.KeyMask == created.Key {
		t.Fatal("mask must not equal the plaintext")
	}
	if created.Status != enums.ApiKeyStatusActive {
		t.Fatalf("expected active key, got %s", created.Status)
	}

	stored := repo.byID[created.ID]
	if stored.KeyHash != security.HashAPIKey(created.Key) {
		t.Fatal("stored hash does not match the issued key")
	}

	keys, err := svc.List(context.Background(), adminOf(agencyID), scope)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0].KeyMask != created.KeyMask {
		t.Fatalf("expected one masked key, got %+v", keys)
	}
}

func TestCreateKeyValidation(t *testing.T) {
	svc, _ := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name  string
		input CreateAPIKeyInput
	}{
		{"missing name", CreateAPIKeyInput{Permission: enums.ApiKeyPermissionRead}},
		{"bad permission", CreateAPIKeyInput{Name: "k", Permission: "root"}},
		{"expiry in the past", CreateAPIKeyInput{Name: "k", Permission: enums.ApiKeyPermissionRead, ExpiresAt: &past}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), adminOf(agencyID), scope, tc.input)
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateKeyAgencyUserForbidden(t *testing.T) {
	svc, _ := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)

	principal := authz.Principal{
		UserID:   uuid.New(),
		Role:     enums.UserRoleAgencyUser,
		AgencyID: &agencyID,
		StoreIDs: []uuid.UUID{scope.StoreID},
	}
	_, err := svc.Create(context.Background(), principal, scope, CreateAPIKeyInput{
		Name:       "storefront",
		Permission: enums.ApiKeyPermissionRead,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRevokeKeyStopsValidation(t *testing.T) {
	svc, _ := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)

	created, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateAPIKeyInput{
		Name:       "storefront",
		Permission: enums.ApiKeyPermissionFull,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Validate(context.Background(), created.Key, scope.StoreID); err != nil {
		t.Fatalf("Validate before revoke: %v", err)
	}
	if err := svc.Revoke(context.Background(), adminOf(agencyID), scope, created.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	_, err = svc.Validate(context.Background(), created.Key, scope.StoreID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after revoke, got %v", err)
	}
}

func TestRevokeCrossStoreNotFound(t *testing.T) {
	svc, _ := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)
	other := scopeFor(agencyID)

	created, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateAPIKeyInput{
		Name:       "storefront",
		Permission: enums.ApiKeyPermissionRead,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Revoke(context.Background(), adminOf(agencyID), other, created.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidateChecksPermissionAndStore(t *testing.T) {
	svc, repo := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)

	created, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateAPIKeyInput{
		Name:       "storefront",
		Permission: enums.ApiKeyPermissionRead,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	key, err := svc.Validate(context.Background(), created.Key, scope.StoreID, enums.ApiKeyPermissionRead, enums.ApiKeyPermissionFull)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if key.ID != created.ID {
		t.Fatal("validate returned the wrong key")
	}
	if repo.byID[created.ID].LastUsedAt == nil {
		t.Fatal("expected last_used_at to be refreshed")
	}

	// Read keys cannot authenticate mutations.
	_, err = svc.Validate(context.Background(), created.Key, scope.StoreID, enums.ApiKeyPermissionWrite, enums.ApiKeyPermissionFull)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Keys never cross store boundaries.
	_, err = svc.Validate(context.Background(), created.Key, uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsExpiredAndMalformed(t *testing.T) {
	svc, _ := newKeySetup(t)
	agencyID := uuid.New()
	scope := scopeFor(agencyID)

	future := time.Now().Add(time.Minute)
	created, err := svc.Create(context.Background(), adminOf(agencyID), scope, CreateAPIKeyInput{
		Name:       "short lived",
		Permission: enums.ApiKeyPermissionRead,
		ExpiresAt:  &future,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Force the key past its expiry.
	expired := time.Now().Add(-time.Minute)
	svcImpl := svc.(*service)
	repo := svcImpl.repo.(*stubKeyRepo)
	repo.byID[created.ID].ExpiresAt = &expired

	_, err = svc.Validate(context.Background(), created.Key, scope.StoreID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired key, got %v", err)
	}

	_, err = svc.Validate(context.Background(), "not-a-key", scope.StoreID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for malformed key, got %v", err)
	}
}

func TestLogUsageAppendsRow(t *testing.T) {
	svc, repo := newKeySetup(t)
	key := &models.ApiKey{ID: uuid.New(), StoreID: uuid.New()}

	if err := svc.LogUsage(context.Background(), key, "/api/v1/products", "GET", 200); err != nil {
		t.Fatalf("LogUsage: %v", err)
	}
	if len(repo.usage) != 1 || repo.usage[0].Endpoint != "/api/v1/products" || repo.usage[0].StatusCode != 200 {
		t.Fatalf("unexpected usage rows: %+v", repo.usage)
	}
}
