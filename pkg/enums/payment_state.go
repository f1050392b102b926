package enums

// PaymentState is the orchestrator's view of a processor authorization.
type PaymentState string

const (
	PaymentStateSucceeded      PaymentState = "succeeded"
	PaymentStateProcessing     PaymentState = "processing"
	PaymentStateRequiresAction PaymentState = "requires_action"
	PaymentStateFailed         PaymentState = "failed"
)

// String implements fmt.Stringer.
func (s PaymentState) String() string {
	return string(s)
}

// Settled reports whether funds are confirmed.
func (s PaymentState) Settled() bool {
	return s == PaymentStateSucceeded
}

// Outstanding reports whether the processor may still settle the payment.
func (s PaymentState) Outstanding() bool {
	return s == PaymentStateProcessing || s == PaymentStateRequiresAction
}
