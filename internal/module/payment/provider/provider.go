package provider

import (
	"context"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// CreateIntentRequest carries everything an adapter needs to open an intent.
type CreateIntentRequest struct {
	OrderID     string
	Amount      int64 // minor units
	Currency    string
	Method      domain.Method // may be empty for flow-agnostic providers
	Description string
	Metadata    map[string]string
}

// ConfirmRequest submits the collected instrument against a held intent.
type ConfirmRequest struct {
	IntentID       string
	Details        domain.MethodDetails
	BillingDetails *domain.BillingDetails
}

// Adapter is the four-operation contract every payment provider implements.
// ConfirmIntent must be idempotent for repeated calls with the same intent
// id and identical instrument data; that is the provider's responsibility,
// the orchestrator does not enforce it. GetIntent is a read-only re-fetch
// and must not side-effect the underlying payment.
type Adapter interface {
	Name() string
	SupportedMethods() []domain.Method

	CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.Intent, error)
	ConfirmIntent(ctx context.Context, req ConfirmRequest) (*domain.Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*domain.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*domain.Intent, error)
}

// Refunder is implemented by adapters whose gateway supports refunds. The
// returned string is the gateway's refund reference. An amount of zero means
// a full refund.
type Refunder interface {
	RefundIntent(ctx context.Context, intentID string, amount int64, reason string) (string, error)
}
