package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// pollHandle is the cancellation handle for one poll loop. Cancel stops the
// loop on its next scheduling point; no adapter call follows.
type pollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startPollerLocked launches the status poll loop for the held intent. It
// re-fetches the intent on a fixed interval until a terminal status lands
// or the ceiling elapses. The ceiling is a soft stop: background work ends,
// the session stays in processing. Caller holds o.mu.
func (o *Orchestrator) startPollerLocked() {
	if o.poll != nil || o.intent == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &pollHandle{cancel: cancel, done: make(chan struct{})}
	o.poll = h

	go o.runPoller(ctx, h, o.intent.ID)
}

// stopPollerLocked detaches and cancels the active poll loop, if any.
// Caller holds o.mu. The loop goroutine may still be draining an in-flight
// fetch; its result is discarded because the handle is no longer current.
func (o *Orchestrator) stopPollerLocked() {
	if o.poll == nil {
		return
	}
	o.poll.cancel()
	o.poll = nil
}

func (o *Orchestrator) runPoller(ctx context.Context, h *pollHandle, intentID string) {
	defer close(h.done)
	defer h.cancel()

	logger := o.logger.With(zap.String("intent_id", intentID))
	logger.Debug("status poller started",
		zap.Duration("interval", o.pollInterval),
		zap.Duration("ceiling", o.pollCeiling))

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.pollCeiling)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			o.abandonPoll(h)
			logger.Warn("status poll ceiling reached, payment left in processing")
			return

		case <-ticker.C:
			fresh, err := o.adapter.GetIntent(ctx, intentID)
			if o.metrics != nil {
				o.metrics.PollerTicks.WithLabelValues(o.adapter.Name()).Inc()
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Transient fetch failures keep the loop alive; the
				// ceiling bounds how long that can go on.
				logger.Warn("status poll fetch failed", zap.Error(err))
				continue
			}
			if o.applyPolled(h, fresh) {
				logger.Info("status poller finished", zap.String("status", string(fresh.Status)))
				return
			}
		}
	}
}

// applyPolled feeds one fetched intent back into the session. It reports
// true when the loop should stop: the handle was superseded or the payment
// reached a terminal status.
func (o *Orchestrator) applyPolled(h *pollHandle, fresh *domain.Intent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.poll != h {
		return true // reset or cancel won the race, result discarded
	}

	o.applyIntentLocked(fresh)

	if o.intent == nil || o.intent.Status.IsTerminal() {
		o.poll = nil
		return true
	}
	return false
}

// abandonPoll detaches the loop at the ceiling without touching state.
func (o *Orchestrator) abandonPoll(h *pollHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.poll != h {
		return
	}
	o.poll = nil

	if o.metrics != nil {
		o.metrics.PollerTimeouts.WithLabelValues(o.adapter.Name()).Inc()
	}
	o.emit(Event{Type: EventPollTimeout, Intent: o.intent.Clone()})
}
