package payment

// SessionState is the checkout session's position in the payment flow. It
// tracks the session, not the intent: the intent's own status lives on
// domain.Intent and the two advance together but are not the same value.
type SessionState string

const (
	// StateIdle means no intent is held.
	StateIdle SessionState = "idle"
	// StateInitializing means the create call is in flight.
	StateInitializing SessionState = "initializing"
	// StateForm means an intent is held and awaits instrument submission.
	StateForm SessionState = "form"
	// StateProcessing means the provider has the payment and the poller
	// is (or was) watching it.
	StateProcessing SessionState = "processing"
	// StateRequiresAction means the provider needs out-of-band user action.
	StateRequiresAction SessionState = "requires_action"

	StateSucceeded SessionState = "succeeded"
	StateFailed    SessionState = "failed"
	StateCancelled SessionState = "cancelled"
)

// Resolved reports whether the session reached a final outcome.
func (s SessionState) Resolved() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

var sessionTransitions = map[SessionState][]SessionState{
	StateIdle:           {StateInitializing},
	StateInitializing:   {StateIdle, StateForm},
	StateForm:           {StateProcessing, StateRequiresAction, StateSucceeded, StateFailed, StateCancelled},
	StateProcessing:     {StateRequiresAction, StateSucceeded, StateFailed, StateCancelled},
	StateRequiresAction: {StateProcessing, StateSucceeded, StateFailed, StateCancelled},
}

// CanTransitionTo reports whether the session may move to target. Resolved
// states only leave via an explicit reset, which bypasses this table.
func (s SessionState) CanTransitionTo(target SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
