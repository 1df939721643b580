package enums

import "fmt"

// UserRole represents a platform-level permissions role.
type UserRole string

const (
	UserRoleSuperAdmin  UserRole = "super_admin"
	UserRoleAgencyAdmin UserRole = "agency_admin"
	UserRoleAgencyUser  UserRole = "agency_user"
)

var validUserRoles = []UserRole{
	UserRoleSuperAdmin,
	UserRoleAgencyAdmin,
	UserRoleAgencyUser,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// RequiresAgency reports whether users holding the role must be linked to an agency.
func (r UserRole) RequiresAgency() bool {
	return r == UserRoleAgencyAdmin || r == UserRoleAgencyUser
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
