package order

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gharseva/server/internal/module/payment/domain"
)

type memoryRepository struct {
	mu     sync.Mutex
	orders map[string]*Order // keyed by order ref
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{orders: make(map[string]*Order)}
}

func (r *memoryRepository) CreateOrder(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orders[o.OrderRef] = &cp
	return nil
}

func (r *memoryRepository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *memoryRepository) GetOrderByRef(ctx context.Context, ref string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ref]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memoryRepository) UpdateOrder(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderRef] = &cp
	return nil
}

type recordingCart struct {
	cleared []string
}

func (r *recordingCart) Clear(ctx context.Context, sessionID string) error {
	r.cleared = append(r.cleared, sessionID)
	return nil
}

func succeededIntent() *domain.Intent {
	return &domain.Intent{
		ID:                    "pi_mock_1",
		OrderID:               "ORD1",
		Amount:                50000,
		Currency:              "INR",
		Status:                domain.StatusSucceeded,
		ProviderTransactionID: "txn_mock_1",
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusAwaitingPayment.CanTransitionTo(StatusPaid))
	assert.True(t, StatusAwaitingPayment.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusPaid.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPaid.CanTransitionTo(StatusRefunded))

	assert.False(t, StatusPaid.CanTransitionTo(StatusAwaitingPayment))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPaid))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPaid))
	assert.False(t, StatusRefunded.CanTransitionTo(StatusPaid))
}

func TestPaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("creates paid order and clears cart", func(t *testing.T) {
		repo := newMemoryRepository()
		carts := &recordingCart{}
		svc := NewService(repo, carts, nil)

		require.NoError(t, svc.PaymentSucceeded(ctx, "sess-1", succeededIntent()))

		o, err := repo.GetOrderByRef(ctx, "ORD1")
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, o.Status)
		assert.Equal(t, "pi_mock_1", o.PaymentIntentID)
		assert.Equal(t, "txn_mock_1", o.ProviderTransactionID)
		assert.NotNil(t, o.PaidAt)
		assert.Equal(t, []string{"sess-1"}, carts.cleared)
	})

	t.Run("marks an awaiting order paid", func(t *testing.T) {
		repo := newMemoryRepository()
		require.NoError(t, repo.CreateOrder(ctx, &Order{
			OrderRef: "ORD1", Amount: 50000, Currency: "INR", Status: StatusAwaitingPayment,
		}))
		svc := NewService(repo, nil, nil)

		require.NoError(t, svc.PaymentSucceeded(ctx, "sess-1", succeededIntent()))

		o, err := repo.GetOrderByRef(ctx, "ORD1")
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, o.Status)
	})

	t.Run("re-delivery is idempotent", func(t *testing.T) {
		repo := newMemoryRepository()
		carts := &recordingCart{}
		svc := NewService(repo, carts, nil)

		intent := succeededIntent()
		require.NoError(t, svc.PaymentSucceeded(ctx, "sess-1", intent))
		require.NoError(t, svc.PaymentSucceeded(ctx, "sess-1", intent))

		assert.Len(t, carts.cleared, 1)
	})

	t.Run("cancelled order rejects reconciliation", func(t *testing.T) {
		repo := newMemoryRepository()
		require.NoError(t, repo.CreateOrder(ctx, &Order{
			OrderRef: "ORD1", Status: StatusCancelled,
		}))
		svc := NewService(repo, nil, nil)

		err := svc.PaymentSucceeded(ctx, "sess-1", succeededIntent())
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.PaymentSucceeded(ctx, "sess-1", succeededIntent()))
	o, err := repo.GetOrderByRef(ctx, "ORD1")
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = svc.CancelOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
