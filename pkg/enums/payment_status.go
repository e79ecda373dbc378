package enums

// PaymentStatus mirrors the gateway-reported lifecycle of a payment attempt.
// The gateway owns the vocabulary: unknown strings are stored verbatim and
// treated as non-successful, so the set here is intentionally open.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsSuccessful reports whether the status unlocks payment side effects.
func (p PaymentStatus) IsSuccessful() bool {
	return p == PaymentStatusSuccessful
}

// IsTerminal reports whether the gateway considers the attempt settled.
func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentStatusSuccessful || p == PaymentStatusFailed
}
