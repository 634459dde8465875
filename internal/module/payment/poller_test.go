package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
)

func confirmUPI(t *testing.T, o *Orchestrator, vpa string) *domain.Intent {
	t.Helper()
	intent := initialize(t, o)
	got, perr := o.Confirm(context.Background(), ConfirmRequest{
		PaymentIntentID: intent.ID,
		Details:         upiDetails(vpa),
	})
	require.Nil(t, perr)
	require.Equal(t, domain.StatusProcessing, got.Status)
	require.Equal(t, StateProcessing, o.State())
	return got
}

func TestPoller_TerminatesOnSettlement(t *testing.T) {
	mock := provider.NewMockAdapter()
	mock.SettleFetches = 3
	counting := &countingAdapter{Adapter: mock}
	o := newTestOrchestrator(t, counting)

	confirmUPI(t, o, provider.MockVPASuccess)

	ev := waitEvent(t, o, EventSucceeded)
	assert.Equal(t, domain.StatusSucceeded, ev.Intent.Status)
	assert.Equal(t, StateSucceeded, o.State())

	// Polling stops within one tick of the terminal response, and the
	// success event never fires twice.
	settled := counting.fetches.Load()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, counting.fetches.Load(), settled+1)
	assertNoEvent(t, o, 60*time.Millisecond)
}

func TestPoller_PropagatesFailure(t *testing.T) {
	mock := provider.NewMockAdapter()
	mock.SettleFetches = 2
	o := newTestOrchestrator(t, mock)

	confirmUPI(t, o, provider.MockVPAFailure)

	ev := waitEvent(t, o, EventFailed)
	require.NotNil(t, ev.Err)
	assert.NotEmpty(t, ev.Err.Message)
	assert.Equal(t, StateFailed, o.State())
	assert.NotEmpty(t, o.Intent().FailureReason)
}

func TestPoller_CeilingLeavesProcessing(t *testing.T) {
	counting := &countingAdapter{Adapter: provider.NewMockAdapter()}
	o := newTestOrchestrator(t, counting)

	intent := confirmUPI(t, o, provider.MockVPATimeout)

	ev := waitEvent(t, o, EventPollTimeout)
	assert.Equal(t, intent.ID, ev.Intent.ID)

	// The ceiling is a soft stop: no more fetches, no forced terminal state.
	assert.Equal(t, StateProcessing, o.State())
	assert.Equal(t, domain.StatusProcessing, o.Intent().Status)

	settled := counting.fetches.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, counting.fetches.Load())
}

func TestPoller_CancelStopsPolling(t *testing.T) {
	counting := &countingAdapter{Adapter: provider.NewMockAdapter()}
	o := newTestOrchestrator(t, counting)

	intent := confirmUPI(t, o, provider.MockVPATimeout)

	perr := o.Cancel(context.Background(), intent.ID)
	require.Nil(t, perr)
	assert.Equal(t, StateCancelled, o.State())
	waitEvent(t, o, EventCancelled)

	time.Sleep(30 * time.Millisecond)
	settled := counting.fetches.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, counting.fetches.Load())
}
