package enums

import "fmt"

// ApiKeyPermission is the access level granted to a store API key.
type ApiKeyPermission string

const (
	ApiKeyPermissionRead  ApiKeyPermission = "read"
	ApiKeyPermissionWrite ApiKeyPermission = "write"
	ApiKeyPermissionFull  ApiKeyPermission = "full"
)

var validApiKeyPermissions = []ApiKeyPermission{
	ApiKeyPermissionRead,
	ApiKeyPermissionWrite,
	ApiKeyPermissionFull,
}

// String implements fmt.Stringer.
func (p ApiKeyPermission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ApiKeyPermission.
func (p ApiKeyPermission) IsValid() bool {
	for _, candidate := range validApiKeyPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// In reports whether the permission is a member of the required set.
func (p ApiKeyPermission) In(required ...ApiKeyPermission) bool {
	for _, candidate := range required {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseApiKeyPermission converts raw input into an ApiKeyPermission.
func ParseApiKeyPermission(value string) (ApiKeyPermission, error) {
	for _, candidate := range validApiKeyPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid api key permission %q", value)
}

// ApiKeyStatus marks whether a key can still authenticate requests.
type ApiKeyStatus string

const (
	ApiKeyStatusActive   ApiKeyStatus = "active"
	ApiKeyStatusInactive ApiKeyStatus = "inactive"
)

// IsValid reports whether the value is a known ApiKeyStatus.
func (s ApiKeyStatus) IsValid() bool {
	return s == ApiKeyStatusActive || s == ApiKeyStatusInactive
}

// String implements fmt.Stringer.
func (s ApiKeyStatus) String() string {
	return string(s)
}
