package authz

import (
	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

// Action names an operation class checked by the policy.
type Action string

const (
	ActionRead       Action = "read"
	ActionWrite      Action = "write"
	ActionManageKeys Action = "manage_keys"
	ActionPlatform   Action = "platform"
)

// Principal carries the identity facts the policy decides on. StoreIDs, when
// non-empty, narrows an agency user to a subset of the agency's stores.
type Principal struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	AgencyID *uuid.UUID
	StoreIDs []uuid.UUID
}

// Resource identifies what is being touched.
type Resource struct {
	AgencyID uuid.UUID
	StoreID  *uuid.UUID
}

// errNotFound is the uniform denial for cross-tenant access: a caller must not
// be able to distinguish "exists but not yours" from "does not exist".
func errNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
}

// Decide returns nil when the principal may perform action on resource. The
// decision is pure: it never touches storage.
func Decide(p Principal, action Action, resource Resource) error {
	if !p.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}

	if p.Role == enums.UserRoleSuperAdmin {
		return nil
	}

	if action == ActionPlatform {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super admin access required")
	}

	if p.AgencyID == nil || *p.AgencyID != resource.AgencyID {
		return errNotFound()
	}

	if resource.StoreID != nil && len(p.StoreIDs) > 0 && !containsID(p.StoreIDs, *resource.StoreID) {
		return errNotFound()
	}

	if p.Role == enums.UserRoleAgencyUser {
		switch action {
		case ActionWrite:
			// Writes require an assigned store. Agency-level writes (store
			// creation, no store in scope) stay admin-only.
			if resource.StoreID == nil || !containsID(p.StoreIDs, *resource.StoreID) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "store membership required")
			}
		case ActionManageKeys:
			return pkgerrors.New(pkgerrors.CodeForbidden, "agency admin access required")
		}
	}

	return nil
}

// ServicePrincipal builds the principal an api key acts as: an agency admin
// narrowed to the key's store. Read/write breadth is enforced upstream by the
// key validator, so the policy only has to pin tenancy.
func ServicePrincipal(keyID, agencyID, storeID uuid.UUID) Principal {
	agency := agencyID
	return Principal{
		UserID:   keyID,
		Role:     enums.UserRoleAgencyAdmin,
		AgencyID: &agency,
		StoreIDs: []uuid.UUID{storeID},
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
