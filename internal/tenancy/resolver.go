package tenancy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

// StoreContext is the resolved tenant scope attached to a request. It is
// computed server-side and never trusted from client input.
type StoreContext struct {
	StoreID  uuid.UUID
	AgencyID uuid.UUID
	Label    string
}

type subdomainRepository interface {
	FindActiveByLabel(ctx context.Context, label string) (*models.Subdomain, error)
}

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
}

// Resolver maps hostnames and explicit store ids to tenant scope.
type Resolver struct {
	subdomains subdomainRepository
	stores     storeRepository
}

// NewResolver builds a tenancy resolver with the provided repositories.
func NewResolver(subdomains subdomainRepository, stores storeRepository) (*Resolver, error) {
	if subdomains == nil {
		return nil, fmt.Errorf("subdomain repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &Resolver{subdomains: subdomains, stores: stores}, nil
}

// LabelFromHost extracts the leftmost host label when the host has at least
// three dot segments and is not localhost. Returns "" when the host carries no
// tenant label.
func LabelFromHost(host string) string {
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return ""
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	label := parts[0]
	if label == "www" || label == "api" {
		return ""
	}
	return label
}

// ResolveHost maps a request host to a store context via the subdomain
// binding table, falling back to the store slug when no binding exists.
func (r *Resolver) ResolveHost(ctx context.Context, host string) (*StoreContext, error) {
	label := LabelFromHost(host)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no tenant for host")
	}

	binding, err := r.subdomains.FindActiveByLabel(ctx, label)
	if err == nil {
		return &StoreContext{StoreID: binding.StoreID, AgencyID: binding.AgencyID, Label: label}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subdomain")
	}

	store, err := r.stores.FindBySlug(ctx, label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no tenant for host")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store by slug")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no tenant for host")
	}
	return &StoreContext{StoreID: store.ID, AgencyID: store.AgencyID, Label: label}, nil
}

// ResolveStore maps a store id from an authenticated management route to its
// scope. No access decision happens here; services deny cross-tenant callers
// with the uniform not-found.
func (r *Resolver) ResolveStore(ctx context.Context, storeID uuid.UUID) (*StoreContext, error) {
	store, err := r.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return &StoreContext{StoreID: store.ID, AgencyID: store.AgencyID, Label: store.Slug}, nil
}

// ResolveExplicit maps an explicit store id to a store context. Only super
// admins may bypass host-based resolution; everyone else gets the uniform
// not-found denial.
func (r *Resolver) ResolveExplicit(ctx context.Context, principal authz.Principal, storeID uuid.UUID) (*StoreContext, error) {
	if principal.Role != enums.UserRoleSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}

	store, err := r.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return &StoreContext{StoreID: store.ID, AgencyID: store.AgencyID, Label: store.Slug}, nil
}
