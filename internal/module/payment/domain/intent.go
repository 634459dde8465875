package domain

import "time"

// Intent is the authoritative record of one payment attempt. The id is
// assigned by the provider adapter at creation; id, orderID, amount and
// currency are immutable afterwards.
type Intent struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`

	// Method may stay empty until confirm for flow-agnostic providers.
	Method Method `json:"method,omitempty"`
	Status Status `json:"status"`

	// Populated only when Status is failed.
	FailureCode   string `json:"failure_code,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	// Provider-side reference, set once the provider accepts the confirm.
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy so callers never share the held intent.
func (i *Intent) Clone() *Intent {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// ApplyStatus transitions the intent to the target status, refreshing
// UpdatedAt. It returns false when the transition is not permitted, in
// which case the intent is left untouched.
func (i *Intent) ApplyStatus(target Status, now time.Time) bool {
	if i.Status == target {
		return true
	}
	if !i.Status.CanTransitionTo(target) {
		return false
	}
	i.Status = target
	i.UpdatedAt = now
	return true
}
