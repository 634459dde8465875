package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents an order's position in its lifecycle.
type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusRefunded        Status = "refunded"
)

// CanTransitionTo reports whether the order may move to the target status.
// Completed, cancelled and refunded are final.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusAwaitingPayment:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusCompleted || target == StatusRefunded
	default:
		return false
	}
}

// Order is the booking record backing a completed checkout. Payment
// references are embedded for audit: the intent id and the provider's
// transaction id tie the booking back to the charge.
type Order struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderRef  string    `json:"order_ref" gorm:"uniqueIndex;not null"`
	SessionID string    `json:"-" gorm:"index"`

	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency" gorm:"not null"`
	Status   Status `json:"status" gorm:"not null;default:awaiting_payment"`

	PaymentIntentID       string `json:"payment_intent_id" gorm:"index"`
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}
