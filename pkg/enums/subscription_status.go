package enums

// SubscriptionStatus mirrors the billing provider's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// IsValid reports whether the value is a known SubscriptionStatus.
func (s SubscriptionStatus) IsValid() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusCanceled
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}
