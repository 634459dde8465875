package payment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
	"github.com/gharseva/server/internal/shared/metrics"
)

// EventType discriminates the orchestrator's emitted events.
type EventType string

const (
	EventSucceeded   EventType = "succeeded"
	EventFailed      EventType = "failed"
	EventCancelled   EventType = "cancelled"
	EventPollTimeout EventType = "poll_timeout"
)

// Event is the orchestrator's outcome notification. Terminal events
// (succeeded, failed, cancelled) fire at most once per intent; poll_timeout
// is informational and leaves the session in processing.
type Event struct {
	Type   EventType
	Intent *domain.Intent
	Err    *domain.Error
}

// InitializeRequest opens a new payment for the session.
type InitializeRequest struct {
	Amount      int64
	Currency    string
	OrderID     string
	Method      domain.Method
	Description string
}

// ConfirmRequest submits the collected instrument against the held intent.
type ConfirmRequest struct {
	PaymentIntentID string
	Details         domain.MethodDetails
	BillingDetails  *domain.BillingDetails
}

// Config wires an Orchestrator. Adapter is required; everything else has a
// usable default.
type Config struct {
	Adapter      provider.Adapter
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	PollInterval time.Duration
	PollCeiling  time.Duration
}

const (
	defaultPollInterval = 2 * time.Second
	defaultPollCeiling  = 5 * time.Minute
)

// Orchestrator owns the payment lifecycle of one checkout session: at most
// one non-terminal intent at a time, at most one confirm in flight. The
// adapter is fixed at construction; sessions never share orchestrators.
type Orchestrator struct {
	mu sync.Mutex

	adapter provider.Adapter
	logger  *zap.Logger
	metrics *metrics.Metrics

	pollInterval time.Duration
	pollCeiling  time.Duration

	state   SessionState
	intent  *domain.Intent
	lastErr *domain.Error

	// busy guards the adapter confirm boundary: a second confirm while one
	// is unresolved is rejected, never dispatched.
	busy bool

	// terminalFired makes succeeded/failed/cancelled emit exactly once.
	terminalFired bool

	poll *pollHandle

	events chan Event
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator for one checkout session.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ceiling := cfg.PollCeiling
	if ceiling <= 0 {
		ceiling = defaultPollCeiling
	}
	return &Orchestrator{
		adapter:      cfg.Adapter,
		logger:       logger.With(zap.String("provider", cfg.Adapter.Name())),
		metrics:      cfg.Metrics,
		pollInterval: interval,
		pollCeiling:  ceiling,
		state:        StateIdle,
		events:       make(chan Event, 8),
		now:          time.Now,
	}
}

// Events exposes the session's outcome notifications. The channel is
// buffered; the orchestrator never blocks on a slow consumer.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// State returns the session state.
func (o *Orchestrator) State() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Intent returns a copy of the held intent, or nil.
func (o *Orchestrator) Intent() *domain.Intent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.intent.Clone()
}

// LastError returns the recorded orchestration error, or nil.
func (o *Orchestrator) LastError() *domain.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Initialize opens a new intent through the adapter. On adapter failure no
// intent is held and the session stays idle so the call can be retried.
func (o *Orchestrator) Initialize(ctx context.Context, req InitializeRequest) (*domain.Intent, *domain.Error) {
	if err := validateInitialize(req); err != nil {
		o.recordError(err)
		return nil, err
	}

	o.mu.Lock()
	if o.intent != nil && !o.intent.Status.IsTerminal() {
		o.mu.Unlock()
		err := domain.NewValidationError(domain.CodeInitializationFailed,
			"session already holds an active payment, reset first")
		o.recordError(err)
		return nil, err
	}
	if o.busy {
		o.mu.Unlock()
		return nil, domain.NewAPIError(domain.CodeInitializationFailed, "another operation is in flight")
	}
	o.busy = true
	o.state = StateInitializing
	o.mu.Unlock()

	intent, err := o.adapter.CreateIntent(ctx, provider.CreateIntentRequest{
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      req.Method,
		Description: req.Description,
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false

	if err != nil {
		o.state = StateIdle
		o.countInitialized("error")
		o.logger.Warn("payment initialization failed", zap.Error(err))
		perr := domain.NewAPIError(domain.CodeInitializationFailed, err.Error())
		o.lastErr = perr
		return nil, perr
	}

	o.intent = intent.Clone()
	o.lastErr = nil
	o.terminalFired = false
	o.state = StateForm
	o.countInitialized("ok")
	o.logger.Info("payment initialized",
		zap.String("intent_id", intent.ID),
		zap.String("order_id", intent.OrderID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency))
	return intent.Clone(), nil
}

// Confirm submits the instrument. The adapter's returned status drives the
// session transition; adapter failures preserve the prior state so the same
// intent can be retried.
func (o *Orchestrator) Confirm(ctx context.Context, req ConfirmRequest) (*domain.Intent, *domain.Error) {
	o.mu.Lock()
	if o.intent == nil {
		o.mu.Unlock()
		err := domain.NewValidationError(domain.CodeNoPaymentIntent, "no payment intent held")
		o.recordError(err)
		return nil, err
	}
	if req.PaymentIntentID != o.intent.ID {
		o.mu.Unlock()
		err := domain.NewValidationError(domain.CodeNoPaymentIntent,
			"unknown payment intent: "+req.PaymentIntentID)
		o.recordError(err)
		return nil, err
	}
	if o.intent.Status.IsTerminal() {
		o.mu.Unlock()
		err := domain.NewValidationError(domain.CodeNoPaymentIntent,
			"payment already "+string(o.intent.Status))
		o.recordError(err)
		return nil, err
	}
	if o.busy {
		o.mu.Unlock()
		// Rejected, not queued. Not recorded either: the in-flight confirm
		// owns the session's error slot.
		return nil, domain.NewAPIError(domain.CodeConfirmationFailed, "a confirmation is already in flight")
	}
	if verr := req.Details.Validate(); verr != nil {
		o.mu.Unlock()
		err := verr.(*domain.Error)
		o.recordError(err)
		return nil, err
	}
	o.busy = true
	o.mu.Unlock()

	intent, err := o.adapter.ConfirmIntent(ctx, provider.ConfirmRequest{
		IntentID:       req.PaymentIntentID,
		Details:        req.Details,
		BillingDetails: req.BillingDetails,
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	o.countConfirmed(req.Details.Method)

	if err != nil {
		o.logger.Warn("payment confirmation failed",
			zap.String("intent_id", req.PaymentIntentID),
			zap.Error(err))
		var perr *domain.Error
		if derr, ok := err.(*domain.Error); ok {
			perr = derr
		} else {
			perr = domain.NewAPIError(domain.CodeConfirmationFailed, err.Error())
		}
		o.lastErr = perr
		return nil, perr
	}

	o.applyIntentLocked(intent)
	return o.intent.Clone(), nil
}

// Cancel voids the held payment, best effort. An adapter failure is logged
// and swallowed; state only changes when the provider confirms the cancel.
func (o *Orchestrator) Cancel(ctx context.Context, paymentIntentID string) *domain.Error {
	o.mu.Lock()
	if o.intent == nil || o.intent.ID != paymentIntentID {
		o.mu.Unlock()
		err := domain.NewValidationError(domain.CodeNoPaymentIntent, "no payment intent held")
		o.recordError(err)
		return err
	}
	if o.intent.Status.IsTerminal() {
		o.mu.Unlock()
		return nil
	}
	o.stopPollerLocked()
	o.mu.Unlock()

	intent, err := o.adapter.CancelIntent(ctx, paymentIntentID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.logger.Warn("payment cancellation failed",
			zap.String("intent_id", paymentIntentID),
			zap.String("code", domain.CodeCancellationFailed),
			zap.Error(err))
		return nil
	}

	o.applyIntentLocked(intent)
	return nil
}

// ClearError drops the recorded error so the user can retry. Intent and
// state are untouched.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = nil
}

// Reset unconditionally discards the held intent and error and returns the
// session to idle. It is a local operation: no adapter call is made, and
// any active poller stops without another fetch.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopPollerLocked()
	o.intent = nil
	o.lastErr = nil
	o.busy = false
	o.terminalFired = false
	o.state = StateIdle
}

// applyIntentLocked merges the adapter's response into the held intent and
// moves the session. Terminal intent statuses are sticky: a stale or
// contradictory response never rolls one back.
func (o *Orchestrator) applyIntentLocked(fresh *domain.Intent) {
	if fresh == nil || o.intent == nil || fresh.ID != o.intent.ID {
		return
	}

	if !o.intent.ApplyStatus(fresh.Status, o.now()) {
		o.logger.Warn("ignoring disallowed status transition",
			zap.String("intent_id", o.intent.ID),
			zap.String("from", string(o.intent.Status)),
			zap.String("to", string(fresh.Status)))
		return
	}
	if fresh.Method != "" {
		o.intent.Method = fresh.Method
	}
	if fresh.ProviderTransactionID != "" {
		o.intent.ProviderTransactionID = fresh.ProviderTransactionID
	}
	o.intent.FailureCode = fresh.FailureCode
	o.intent.FailureReason = fresh.FailureReason

	switch o.intent.Status {
	case domain.StatusSucceeded:
		o.moveLocked(StateSucceeded)
		o.emitTerminalLocked(Event{Type: EventSucceeded, Intent: o.intent.Clone()})
	case domain.StatusFailed:
		o.moveLocked(StateFailed)
		o.emitTerminalLocked(Event{
			Type:   EventFailed,
			Intent: o.intent.Clone(),
			Err: &domain.Error{
				Code:    o.intent.FailureCode,
				Type:    domain.ErrorTypeCard,
				Message: o.intent.FailureReason,
			},
		})
	case domain.StatusCancelled, domain.StatusRefunded:
		o.moveLocked(StateCancelled)
		o.emitTerminalLocked(Event{Type: EventCancelled, Intent: o.intent.Clone()})
	case domain.StatusRequiresAction:
		o.moveLocked(StateRequiresAction)
	case domain.StatusProcessing:
		o.moveLocked(StateProcessing)
		o.startPollerLocked()
	}
}

func (o *Orchestrator) moveLocked(target SessionState) {
	if o.state == target {
		return
	}
	if !o.state.CanTransitionTo(target) {
		o.logger.Error("disallowed session transition",
			zap.String("from", string(o.state)),
			zap.String("to", string(target)))
		return
	}
	o.state = target
	if target.Resolved() && o.metrics != nil && o.intent != nil {
		o.metrics.PaymentsTerminal.WithLabelValues(o.adapter.Name(), string(o.intent.Status)).Inc()
	}
}

func (o *Orchestrator) emitTerminalLocked(ev Event) {
	if o.terminalFired {
		return
	}
	o.terminalFired = true
	o.emit(ev)
}

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		o.logger.Warn("event channel full, dropping event", zap.String("type", string(ev.Type)))
	}
}

func (o *Orchestrator) recordError(err *domain.Error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = err
}

func (o *Orchestrator) countInitialized(outcome string) {
	if o.metrics != nil {
		o.metrics.PaymentsInitialized.WithLabelValues(o.adapter.Name(), outcome).Inc()
	}
}

func (o *Orchestrator) countConfirmed(method domain.Method) {
	if o.metrics != nil {
		o.metrics.PaymentsConfirmed.WithLabelValues(o.adapter.Name(), string(method)).Inc()
	}
}

func validateInitialize(req InitializeRequest) *domain.Error {
	switch {
	case req.Amount <= 0:
		return domain.NewValidationError(domain.CodeInitializationFailed, "amount must be positive")
	case req.Currency == "":
		return domain.NewValidationError(domain.CodeInitializationFailed, "currency is required")
	case req.OrderID == "":
		return domain.NewValidationError(domain.CodeInitializationFailed, "order id is required")
	default:
		return nil
	}
}
