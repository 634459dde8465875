package domain

// Status represents the status of a payment intent.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusRequiresAction Status = "requires_action"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// IsTerminal returns true if the status is a terminal state. A terminal
// intent never transitions again; succeeded may only move to refunded.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled || s == StatusRefunded
}

// IsSucceeded returns true if the status is succeeded.
func (s Status) IsSucceeded() bool {
	return s == StatusSucceeded
}

// CanTransitionTo returns true if the status can transition to the target
// status. Transitions are monotonic: nothing ever returns to pending.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusRequiresAction ||
			target == StatusSucceeded || target == StatusFailed || target == StatusCancelled
	case StatusProcessing:
		return target == StatusRequiresAction || target == StatusSucceeded ||
			target == StatusFailed || target == StatusCancelled
	case StatusRequiresAction:
		return target == StatusProcessing || target == StatusSucceeded ||
			target == StatusFailed || target == StatusCancelled
	case StatusSucceeded:
		return target == StatusRefunded
	case StatusFailed, StatusCancelled, StatusRefunded:
		return false
	default:
		return false
	}
}
