package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gharseva/server/internal/module/payment/domain"
)

func mockCreate(t *testing.T, a *MockAdapter) *domain.Intent {
	t.Helper()
	intent, err := a.CreateIntent(context.Background(), CreateIntentRequest{
		OrderID:  "ORD1",
		Amount:   50000,
		Currency: "INR",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, intent.Status)
	return intent
}

func TestMockAdapter_CreateIntent(t *testing.T) {
	a := NewMockAdapter()

	t.Run("opens pending intent", func(t *testing.T) {
		intent := mockCreate(t, a)
		assert.NotEmpty(t, intent.ID)
		assert.Equal(t, "ORD1", intent.OrderID)
		assert.Equal(t, int64(50000), intent.Amount)
		assert.Equal(t, "INR", intent.Currency)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := a.CreateIntent(context.Background(), CreateIntentRequest{
			OrderID: "ORD1", Amount: 0, Currency: "INR",
		})
		assert.Error(t, err)
	})
}

func TestMockAdapter_ConfirmCard(t *testing.T) {
	ctx := context.Background()

	t.Run("test card succeeds", func(t *testing.T) {
		a := NewMockAdapter()
		intent := mockCreate(t, a)

		got, err := a.ConfirmIntent(ctx, ConfirmRequest{
			IntentID: intent.ID,
			Details: domain.MethodDetails{
				Method: domain.MethodCard,
				Card:   &domain.CardDetails{Number: MockCardSuccess, Last4: "4242"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSucceeded, got.Status)
		assert.NotEmpty(t, got.ProviderTransactionID)
	})

	t.Run("declined card fails with reason", func(t *testing.T) {
		a := NewMockAdapter()
		intent := mockCreate(t, a)

		got, err := a.ConfirmIntent(ctx, ConfirmRequest{
			IntentID: intent.ID,
			Details: domain.MethodDetails{
				Method: domain.MethodCard,
				Card:   &domain.CardDetails{Number: MockCardDeclined, Last4: "0002"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, got.Status)
		assert.NotEmpty(t, got.FailureCode)
		assert.NotEmpty(t, got.FailureReason)
	})

	t.Run("3ds card requires action", func(t *testing.T) {
		a := NewMockAdapter()
		intent := mockCreate(t, a)

		got, err := a.ConfirmIntent(ctx, ConfirmRequest{
			IntentID: intent.ID,
			Details: domain.MethodDetails{
				Method: domain.MethodCard,
				Card:   &domain.CardDetails{Number: MockCardRequiresAction, Last4: "3063"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRequiresAction, got.Status)
	})
}

func TestMockAdapter_ConfirmIdempotent(t *testing.T) {
	ctx := context.Background()
	a := NewMockAdapter()
	intent := mockCreate(t, a)

	details := domain.MethodDetails{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: MockCardSuccess, Last4: "4242"},
	}

	first, err := a.ConfirmIntent(ctx, ConfirmRequest{IntentID: intent.ID, Details: details})
	require.NoError(t, err)

	second, err := a.ConfirmIntent(ctx, ConfirmRequest{IntentID: intent.ID, Details: details})
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ProviderTransactionID, second.ProviderTransactionID)
}

func TestMockAdapter_UPI(t *testing.T) {
	ctx := context.Background()

	confirmUPI := func(t *testing.T, a *MockAdapter, vpa string) *domain.Intent {
		t.Helper()
		intent := mockCreate(t, a)
		got, err := a.ConfirmIntent(ctx, ConfirmRequest{
			IntentID: intent.ID,
			Details: domain.MethodDetails{
				Method: domain.MethodUPI,
				UPI:    &domain.UPIDetails{VPA: vpa, Flow: "collect"},
			},
		})
		require.NoError(t, err)
		require.Equal(t, domain.StatusProcessing, got.Status)
		return got
	}

	t.Run("collect settles to succeeded", func(t *testing.T) {
		a := NewMockAdapter()
		a.SettleFetches = 2
		intent := confirmUPI(t, a, MockVPASuccess)

		got, err := a.GetIntent(ctx, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, got.Status)

		got, err = a.GetIntent(ctx, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSucceeded, got.Status)
	})

	t.Run("rejected collect settles to failed", func(t *testing.T) {
		a := NewMockAdapter()
		a.SettleFetches = 1
		intent := confirmUPI(t, a, MockVPAFailure)

		got, err := a.GetIntent(ctx, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, got.Status)
		assert.NotEmpty(t, got.FailureReason)
	})

	t.Run("timeout vpa never settles", func(t *testing.T) {
		a := NewMockAdapter()
		a.SettleFetches = 1
		intent := confirmUPI(t, a, MockVPATimeout)

		for i := 0; i < 10; i++ {
			got, err := a.GetIntent(ctx, intent.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusProcessing, got.Status)
		}
	})
}

func TestMockAdapter_COD(t *testing.T) {
	a := NewMockAdapter()
	intent := mockCreate(t, a)

	got, err := a.ConfirmIntent(context.Background(), ConfirmRequest{
		IntentID: intent.ID,
		Details:  domain.MethodDetails{Method: domain.MethodCOD},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, got.Status)
}

func TestMockAdapter_Cancel(t *testing.T) {
	ctx := context.Background()
	a := NewMockAdapter()

	t.Run("cancels pending intent", func(t *testing.T) {
		intent := mockCreate(t, a)
		got, err := a.CancelIntent(ctx, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
	})

	t.Run("terminal intent cannot be cancelled", func(t *testing.T) {
		intent := mockCreate(t, a)
		_, err := a.ConfirmIntent(ctx, ConfirmRequest{
			IntentID: intent.ID,
			Details: domain.MethodDetails{
				Method: domain.MethodCard,
				Card:   &domain.CardDetails{Number: MockCardSuccess, Last4: "4242"},
			},
		})
		require.NoError(t, err)

		_, err = a.CancelIntent(ctx, intent.ID)
		assert.Error(t, err)
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := a.CancelIntent(ctx, "pi_mock_missing")
		assert.Error(t, err)
	})
}

func TestMockAdapter_GetIntentReadOnlyForSettled(t *testing.T) {
	ctx := context.Background()
	a := NewMockAdapter()
	intent := mockCreate(t, a)

	_, err := a.ConfirmIntent(ctx, ConfirmRequest{
		IntentID: intent.ID,
		Details: domain.MethodDetails{
			Method: domain.MethodCard,
			Card:   &domain.CardDetails{Number: MockCardSuccess, Last4: "4242"},
		},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := a.GetIntent(ctx, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSucceeded, got.Status)
	}
}
