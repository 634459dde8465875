package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
	"github.com/gharseva/server/internal/shared/config"
)

// memoryRepository is an in-memory Repository for service tests.
type memoryRepository struct {
	mu       sync.Mutex
	payments map[string]*Payment // keyed by intent id
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{payments: make(map[string]*Payment)}
}

func (r *memoryRepository) CreatePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.payments[p.IntentID] = &cp
	return nil
}

func (r *memoryRepository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (r *memoryRepository) GetPaymentByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[intentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepository) UpdatePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.IntentID] = &cp
	return nil
}

func (r *memoryRepository) ListPaymentsByOrder(ctx context.Context, orderID string) ([]*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// recordingReconciler captures the success handoff.
type recordingReconciler struct {
	calls chan *domain.Intent
}

func (r *recordingReconciler) PaymentSucceeded(ctx context.Context, sessionID string, intent *domain.Intent) error {
	r.calls <- intent
	return nil
}

func testPaymentConfig() *config.PaymentConfig {
	return &config.PaymentConfig{
		DefaultCurrency: "INR",
		Country:         "IN",
		PollInterval:    10 * time.Millisecond,
		PollCeiling:     150 * time.Millisecond,
		Providers: map[string]config.ProviderConfig{
			"mock": {Environment: "sandbox", Features: config.ProviderFeatures{Refunds: true}},
		},
	}
}

func newTestService(t *testing.T, repo Repository, rec Reconciler) *Service {
	t.Helper()
	registry := NewProviderRegistry()
	registry.Register(provider.NewMockAdapter())
	svc := NewService(testPaymentConfig(), registry, repo, rec, nil, nil)
	t.Cleanup(svc.Close)
	return svc
}

func TestService_InitializeAndConfirm(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(t, repo, nil)

	intent, err := svc.Initialize(ctx, "sess-1", InitializePaymentRequest{
		Amount:  50000,
		OrderID: "ORD1",
		Method:  domain.MethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, "INR", intent.Currency) // default currency applied

	// The attempt is persisted as pending.
	record, err := repo.GetPaymentByIntentID(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Equal(t, "mock", record.Provider)

	got, err := svc.Confirm(ctx, "sess-1", ConfirmPaymentRequest{
		PaymentIntentID: intent.ID,
		Details: domain.MethodDetails{
			Method: domain.MethodCard,
			Card:   &domain.CardDetails{Number: provider.MockCardSuccess, Last4: "4242"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, got.Status)

	record, err = repo.GetPaymentByIntentID(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, record.Status)
	assert.NotNil(t, record.SucceededAt)
	assert.NotEmpty(t, record.ProviderTransactionID)
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Confirm(context.Background(), "nope", ConfirmPaymentRequest{
		PaymentIntentID: "pi_x",
		Details:         domain.MethodDetails{Method: domain.MethodCOD},
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.Reset("nope"), ErrSessionNotFound)
}

func TestService_ReconcilerReceivesSuccess(t *testing.T) {
	ctx := context.Background()
	rec := &recordingReconciler{calls: make(chan *domain.Intent, 1)}
	svc := newTestService(t, newMemoryRepository(), rec)

	intent, err := svc.Initialize(ctx, "sess-1", InitializePaymentRequest{
		Amount: 500, OrderID: "ORD1", Method: domain.MethodCOD,
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, "sess-1", ConfirmPaymentRequest{
		PaymentIntentID: intent.ID,
		Details:         domain.MethodDetails{Method: domain.MethodCOD},
	})
	require.NoError(t, err)

	select {
	case got := <-rec.calls:
		assert.Equal(t, intent.ID, got.ID)
		assert.Equal(t, "ORD1", got.OrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler never received the success event")
	}
}

func TestService_ResetThenFreshInitialize(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newMemoryRepository(), nil)

	first, err := svc.Initialize(ctx, "sess-1", InitializePaymentRequest{
		Amount: 500, OrderID: "ORD1", Method: domain.MethodUPI,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reset("sess-1"))

	view, err := svc.Session("sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)
	assert.Nil(t, view.Intent)

	second, err := svc.Initialize(ctx, "sess-1", InitializePaymentRequest{
		Amount: 500, OrderID: "ORD1", Method: domain.MethodUPI,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_Refund(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(t, repo, nil)

	intent, err := svc.Initialize(ctx, "sess-1", InitializePaymentRequest{
		Amount: 50000, OrderID: "ORD1", Method: domain.MethodCard,
	})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, "sess-1", ConfirmPaymentRequest{
		PaymentIntentID: intent.ID,
		Details: domain.MethodDetails{
			Method: domain.MethodCard,
			Card:   &domain.CardDetails{Number: provider.MockCardSuccess, Last4: "4242"},
		},
	})
	require.NoError(t, err)

	record, err := repo.GetPaymentByIntentID(ctx, intent.ID)
	require.NoError(t, err)

	t.Run("partial refund keeps status", func(t *testing.T) {
		got, err := svc.Refund(ctx, record.ID, 10000, "damaged item")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), got.RefundedAmount)
		assert.Equal(t, domain.StatusSucceeded, got.Status)
	})

	t.Run("remaining refund flips to refunded", func(t *testing.T) {
		got, err := svc.Refund(ctx, record.ID, 0, "order cancelled")
		require.NoError(t, err)
		assert.Equal(t, int64(50000), got.RefundedAmount)
		assert.Equal(t, domain.StatusRefunded, got.Status)
	})

	t.Run("over-refund rejected", func(t *testing.T) {
		_, err := svc.Refund(ctx, record.ID, 1, "again")
		assert.ErrorIs(t, err, ErrRefundNotEligible)
	})
}

func TestService_Providers(t *testing.T) {
	svc := newTestService(t, nil, nil)
	infos := svc.Providers()
	require.Len(t, infos, 1)
	assert.Equal(t, "mock", infos[0].Name)
	assert.Equal(t, "sandbox", infos[0].Environment)
	assert.True(t, infos[0].Features.Refunds)
	assert.NotEmpty(t, infos[0].Methods)
}
