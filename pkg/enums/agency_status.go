package enums

import "fmt"

// AgencyStatus is the platform approval state of a tenant agency.
type AgencyStatus string

const (
	AgencyStatusActive    AgencyStatus = "active"
	AgencyStatusPending   AgencyStatus = "pending"
	AgencyStatusSuspended AgencyStatus = "suspended"
)

var validAgencyStatuses = []AgencyStatus{
	AgencyStatusActive,
	AgencyStatusPending,
	AgencyStatusSuspended,
}

// String implements fmt.Stringer.
func (s AgencyStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AgencyStatus.
func (s AgencyStatus) IsValid() bool {
	for _, candidate := range validAgencyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAgencyStatus converts raw input into an AgencyStatus.
func ParseAgencyStatus(value string) (AgencyStatus, error) {
	for _, candidate := range validAgencyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agency status %q", value)
}
