package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// Payment is the persisted record of one payment attempt. The orchestrator
// owns the live intent; this row is the durable audit trail the rest of the
// platform (orders, refunds, support tooling) reads.
type Payment struct {
	ID       uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IntentID string        `json:"intent_id" gorm:"uniqueIndex;not null"`
	OrderID  string        `json:"order_id" gorm:"not null;index"`
	Amount   int64         `json:"amount"` // minor units
	Currency string        `json:"currency" gorm:"not null"`
	Method   domain.Method `json:"method"`
	Status   domain.Status `json:"status" gorm:"not null;default:pending"`
	Provider string        `json:"provider" gorm:"not null"`

	ProviderTransactionID string `json:"-" gorm:"index"`

	FailureCode   *string `json:"failure_code,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`

	RefundedAmount  int64  `json:"refunded_amount" gorm:"default:0"`
	RefundReference string `json:"-"`

	SucceededAt *time.Time `json:"succeeded_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (Payment) TableName() string {
	return "payments"
}

// IsSucceeded returns true if the payment succeeded.
func (p *Payment) IsSucceeded() bool {
	return p.Status == domain.StatusSucceeded
}

// RefundableAmount returns how much of the capture is still refundable.
func (p *Payment) RefundableAmount() int64 {
	if !p.IsSucceeded() && p.Status != domain.StatusRefunded {
		return 0
	}
	return p.Amount - p.RefundedAmount
}

// applyIntent copies the intent's current status onto the record.
func (p *Payment) applyIntent(intent *domain.Intent, now time.Time) {
	p.Status = intent.Status
	p.Method = intent.Method
	p.ProviderTransactionID = intent.ProviderTransactionID
	if intent.FailureCode != "" {
		code, reason := intent.FailureCode, intent.FailureReason
		p.FailureCode = &code
		p.FailureReason = &reason
	}
	switch intent.Status {
	case domain.StatusSucceeded:
		if p.SucceededAt == nil {
			p.SucceededAt = &now
		}
	case domain.StatusFailed:
		if p.FailedAt == nil {
			p.FailedAt = &now
		}
	}
}
