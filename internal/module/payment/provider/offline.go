package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// OfflineAdapter records payments collected outside any gateway, such as
// cash on delivery. Confirm settles immediately: there is no external party
// to wait on, so nothing ever polls.
type OfflineAdapter struct {
	mu      sync.Mutex
	intents map[string]*domain.Intent

	now func() time.Time
}

// NewOfflineAdapter creates the offline adapter.
func NewOfflineAdapter() *OfflineAdapter {
	return &OfflineAdapter{
		intents: make(map[string]*domain.Intent),
		now:     time.Now,
	}
}

// Name returns the provider name.
func (a *OfflineAdapter) Name() string {
	return "offline"
}

// SupportedMethods lists the methods collected without a gateway.
func (a *OfflineAdapter) SupportedMethods() []domain.Method {
	return []domain.Method{domain.MethodCOD}
}

// CreateIntent records a pending offline payment.
func (a *OfflineAdapter) CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("offline: amount must be positive")
	}

	now := a.now()
	intent := &domain.Intent{
		ID:        "pi_cod_" + uuid.NewString(),
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	a.mu.Lock()
	a.intents[intent.ID] = intent
	a.mu.Unlock()

	return intent.Clone(), nil
}

// ConfirmIntent acknowledges the offline commitment. Replays return the
// already-settled intent.
func (a *OfflineAdapter) ConfirmIntent(ctx context.Context, req ConfirmRequest) (*domain.Intent, error) {
	if err := req.Details.Validate(); err != nil {
		return nil, err
	}
	if !req.Details.Method.IsOffline() {
		return nil, fmt.Errorf("offline: unsupported method %s", req.Details.Method)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[req.IntentID]
	if !ok {
		return nil, fmt.Errorf("offline: no such intent %s", req.IntentID)
	}
	if intent.Status == domain.StatusSucceeded {
		return intent.Clone(), nil
	}
	if intent.Status.IsTerminal() {
		return nil, fmt.Errorf("offline: intent %s already %s", req.IntentID, intent.Status)
	}

	intent.Method = req.Details.Method
	intent.ProviderTransactionID = "txn_cod_" + uuid.NewString()
	intent.ApplyStatus(domain.StatusSucceeded, a.now())
	return intent.Clone(), nil
}

// CancelIntent releases a not-yet-confirmed offline payment.
func (a *OfflineAdapter) CancelIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("offline: no such intent %s", intentID)
	}
	if intent.Status.IsTerminal() {
		return nil, fmt.Errorf("offline: intent %s already %s", intentID, intent.Status)
	}
	intent.ApplyStatus(domain.StatusCancelled, a.now())
	return intent.Clone(), nil
}

// GetIntent returns the recorded state. Read only.
func (a *OfflineAdapter) GetIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("offline: no such intent %s", intentID)
	}
	return intent.Clone(), nil
}
