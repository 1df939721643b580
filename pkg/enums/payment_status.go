package enums

// PaymentStatus tracks the provider-side outcome of an order payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}
