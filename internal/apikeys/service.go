package apikeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// invalidKeyMessage is returned for every authentication failure so a caller
// cannot probe which keys exist, are expired, or belong to another store.
const invalidKeyMessage = "invalid api key"

type keyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ApiKey, error)
	FindByHash(ctx context.Context, hash string) (*models.ApiKey, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.ApiKey, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ApiKeyStatus) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	LogUsage(ctx context.Context, usage *models.ApiUsage) error
}

// CreateAPIKeyInput is the payload for issuing a new key.
type CreateAPIKeyInput struct {
	Name       string
	Permission enums.ApiKeyPermission
	ExpiresAt  *time.Time
}

// Service manages the lifecycle and validation of storefront api keys.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateAPIKeyInput) (*CreatedAPIKeyDTO, error)
	List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext) ([]APIKeyDTO, error)
	Revoke(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error
	Validate(ctx context.Context, rawKey string, storeID uuid.UUID, required ...enums.ApiKeyPermission) (*models.ApiKey, error)
	LogUsage(ctx context.Context, key *models.ApiKey, endpoint, method string, statusCode int) error
}

type service struct {
	repo keyRepository
}

// NewService constructs an api key service backed by the given repository.
func NewService(repo keyRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("api key repository required")
	}
	return &service{repo: repo}, nil
}

func storeResource(scope tenancy.StoreContext) authz.Resource {
	storeID := scope.StoreID
	return authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}
}

func (s *service) Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateAPIKeyInput) (*CreatedAPIKeyDTO, error) {
	if err := authz.Decide(principal, authz.ActionManageKeys, storeResource(scope)); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key name is required")
	}
	if !input.Permission.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid key permission")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}

	generated, err := security.GenerateAPIKey(input.Permission)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate api key")
	}

	key := models.ApiKey{
		StoreID:    scope.StoreID,
		Name:       name,
		KeyHash:    generated.Hash,
		KeyMask:    generated.Mask,
		Permission: input.Permission,
		Status:     enums.ApiKeyStatusActive,
		ExpiresAt:  input.ExpiresAt,
	}
	if err := s.repo.Create(ctx, &key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create api key")
	}

	return &CreatedAPIKeyDTO{APIKeyDTO: FromModel(&key), Key: generated.Plaintext}, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext) ([]APIKeyDTO, error) {
	if err := authz.Decide(principal, authz.ActionManageKeys, storeResource(scope)); err != nil {
		return nil, err
	}

	keys, err := s.repo.ListByStore(ctx, scope.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list api keys")
	}

	out := make([]APIKeyDTO, 0, len(keys))
	for i := range keys {
		out = append(out, FromModel(&keys[i]))
	}
	return out, nil
}

func (s *service) Revoke(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error {
	if err := authz.Decide(principal, authz.ActionManageKeys, storeResource(scope)); err != nil {
		return err
	}

	key, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, key.ID, enums.ApiKeyStatusInactive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke api key")
	}
	return nil
}

// Validate authenticates a raw storefront key against the resolved store and
// checks it carries one of the required permissions. The last-used timestamp
// is refreshed best-effort.
func (s *service) Validate(ctx context.Context, rawKey string, storeID uuid.UUID, required ...enums.ApiKeyPermission) (*models.ApiKey, error) {
	if !security.LooksLikeAPIKey(rawKey) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
	}

	key, err := s.repo.FindByHash(ctx, security.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up api key")
	}

	if key.StoreID != storeID || key.Status != enums.ApiKeyStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
	}
	if key.ExpiresAt != nil && !key.ExpiresAt.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
	}
	if len(required) > 0 && !key.Permission.In(required...) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient key permission")
	}

	_ = s.repo.TouchLastUsed(ctx, key.ID, time.Now().UTC())

	return key, nil
}

// LogUsage appends one usage row for an authenticated storefront call.
func (s *service) LogUsage(ctx context.Context, key *models.ApiKey, endpoint, method string, statusCode int) error {
	usage := models.ApiUsage{
		ApiKeyID:   key.ID,
		StoreID:    key.StoreID,
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: statusCode,
	}
	if err := s.repo.LogUsage(ctx, &usage); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log api usage")
	}
	return nil
}

func (s *service) loadScoped(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*models.ApiKey, error) {
	key, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "api key not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find api key")
	}
	if key.StoreID != scope.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "api key not found")
	}
	return key, nil
}
