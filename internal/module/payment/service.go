package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
	"github.com/gharseva/server/internal/shared/config"
	"github.com/gharseva/server/internal/shared/metrics"
)

// Reconciler consumes the success outcome: it creates the backing order
// record and clears the cart. The payment module only reports the terminal
// intent; it knows nothing about orders beyond this boundary.
type Reconciler interface {
	PaymentSucceeded(ctx context.Context, sessionID string, intent *domain.Intent) error
}

// session binds one checkout session to its orchestrator. done tears down
// the session's event consumer when the session ends or rebinds.
type session struct {
	orchestrator *Orchestrator
	provider     string
	done         chan struct{}
}

// Service manages checkout sessions, routes each to a provider-bound
// orchestrator, persists every attempt, and bridges success events to
// order reconciliation.
type Service struct {
	cfg        *config.PaymentConfig
	registry   *ProviderRegistry
	repo       Repository
	reconciler Reconciler
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*session

	closed chan struct{}
	wg     sync.WaitGroup
}

// NewService creates the payment service. repo and reconciler may be nil in
// tests; persistence and reconciliation are then skipped.
func NewService(cfg *config.PaymentConfig, registry *ProviderRegistry, repo Repository, reconciler Reconciler, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		registry:   registry,
		repo:       repo,
		reconciler: reconciler,
		logger:     logger,
		metrics:    m,
		sessions:   make(map[string]*session),
		closed:     make(chan struct{}),
	}
}

// Close stops all event consumers and resets every live session, which
// also cancels any active pollers.
func (s *Service) Close() {
	close(s.closed)

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.orchestrator.Reset()
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	s.wg.Wait()
}

// Initialize opens a payment for the session, routing to the provider that
// owns the requested method family.
func (s *Service) Initialize(ctx context.Context, sessionID string, req InitializePaymentRequest) (*domain.Intent, error) {
	if !req.Method.Valid() {
		return nil, domain.NewValidationError(domain.CodeInitializationFailed,
			"unknown payment method: "+string(req.Method))
	}
	adapter, err := s.registry.GetByMethod(req.Method)
	if err != nil {
		return nil, domain.NewValidationError(domain.CodeInitializationFailed, err.Error())
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	sess, err := s.ensureSession(sessionID, adapter)
	if err != nil {
		return nil, err
	}

	intent, perr := sess.orchestrator.Initialize(ctx, InitializeRequest{
		Amount:      req.Amount,
		Currency:    currency,
		OrderID:     req.OrderID,
		Method:      req.Method,
		Description: req.Description,
	})
	if perr != nil {
		return nil, perr
	}

	s.persistNew(ctx, sess.provider, intent)
	return intent, nil
}

// Confirm submits the collected instrument for the session's held intent.
func (s *Service) Confirm(ctx context.Context, sessionID string, req ConfirmPaymentRequest) (*domain.Intent, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	intent, perr := sess.orchestrator.Confirm(ctx, ConfirmRequest{
		PaymentIntentID: req.PaymentIntentID,
		Details:         req.Details,
		BillingDetails:  req.BillingDetails,
	})
	if perr != nil {
		return nil, perr
	}

	s.persistIntent(ctx, intent)
	return intent, nil
}

// Cancel voids the session's held payment, best effort.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	intent := sess.orchestrator.Intent()
	if intent == nil {
		return domain.NewValidationError(domain.CodeNoPaymentIntent, "no payment intent held")
	}
	if perr := sess.orchestrator.Cancel(ctx, intent.ID); perr != nil {
		return perr
	}
	s.persistIntent(ctx, sess.orchestrator.Intent())
	return nil
}

// Reset discards the session's intent and error locally. The provider is
// never contacted: abandoning checkout is a UI state reset, only an
// explicit cancel issues a provider-side void.
func (s *Service) Reset(sessionID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.orchestrator.Reset()
	return nil
}

// ClearError drops the session's recorded error so the user can retry.
func (s *Service) ClearError(sessionID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.orchestrator.ClearError()
	return nil
}

// EndSession tears the session down entirely.
func (s *Service) EndSession(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if ok {
		sess.orchestrator.Reset()
		close(sess.done)
		if s.metrics != nil {
			s.metrics.ActiveSessions.Dec()
		}
	}
}

// Session returns the session's current checkout view.
func (s *Service) Session(sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		SessionID: sessionID,
		Provider:  sess.provider,
		State:     sess.orchestrator.State(),
		Intent:    sess.orchestrator.Intent(),
		LastError: sess.orchestrator.LastError(),
	}, nil
}

// GetPayment returns a persisted payment record.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPaymentsByOrder returns all attempts recorded against an order.
func (s *Service) ListPaymentsByOrder(ctx context.Context, orderID string) ([]*Payment, error) {
	return s.repo.ListPaymentsByOrder(ctx, orderID)
}

// Refund refunds a captured payment, in part or in full. An amount of zero
// refunds whatever remains.
func (s *Service) Refund(ctx context.Context, paymentID uuid.UUID, amount int64, reason string) (*Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsSucceeded() {
		return nil, fmt.Errorf("%w: status is %s", ErrRefundNotEligible, payment.Status)
	}
	if pc, ok := s.cfg.Providers[payment.Provider]; ok && !pc.Features.Refunds {
		return nil, fmt.Errorf("%w: %s", ErrRefundNotSupported, payment.Provider)
	}

	remaining := payment.RefundableAmount()
	if amount == 0 {
		amount = remaining
	}
	if amount > remaining {
		return nil, fmt.Errorf("%w: %d > %d", ErrRefundExceedsTotal, amount, remaining)
	}

	refunder, err := s.registry.GetRefunder(payment.Provider)
	if err != nil {
		return nil, err
	}

	ref, err := refunder.RefundIntent(ctx, payment.IntentID, amount, reason)
	if err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	payment.RefundedAmount += amount
	payment.RefundReference = ref
	if payment.RefundedAmount >= payment.Amount {
		payment.Status = domain.StatusRefunded
	}
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("intent_id", payment.IntentID),
		zap.Int64("amount", amount))
	return payment, nil
}

// Providers describes the configured providers and their routing.
func (s *Service) Providers() []ProviderInfo {
	routing := s.registry.Methods()
	byProvider := make(map[string][]domain.Method)
	for m, name := range routing {
		byProvider[name] = append(byProvider[name], m)
	}

	infos := make([]ProviderInfo, 0, len(s.registry.List()))
	for _, name := range s.registry.List() {
		info := ProviderInfo{Name: name, Methods: byProvider[name]}
		if pc, ok := s.cfg.Providers[name]; ok {
			info.Environment = pc.Environment
			info.Features = pc.Features
		}
		infos = append(infos, info)
	}
	return infos
}

// ensureSession returns the session's orchestrator, creating or rebinding
// it for the adapter when the session is not mid-payment.
func (s *Service) ensureSession(sessionID string, adapter provider.Adapter) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		if sess.provider == adapter.Name() {
			return sess, nil
		}
		intent := sess.orchestrator.Intent()
		if intent != nil && !intent.Status.IsTerminal() {
			return nil, domain.NewValidationError(domain.CodeInitializationFailed,
				"session already holds an active payment on "+sess.provider)
		}
		// Idle or resolved: switch the session to the new provider.
		sess.orchestrator.Reset()
		close(sess.done)
	}

	orch := NewOrchestrator(Config{
		Adapter:      adapter,
		Logger:       s.logger,
		Metrics:      s.metrics,
		PollInterval: s.cfg.PollInterval,
		PollCeiling:  s.cfg.PollCeiling,
	})
	sess := &session{orchestrator: orch, provider: adapter.Name(), done: make(chan struct{})}
	if _, existed := s.sessions[sessionID]; !existed && s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	s.sessions[sessionID] = sess

	s.wg.Add(1)
	go s.consumeEvents(sessionID, sess)
	return sess, nil
}

func (s *Service) lookup(sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// consumeEvents watches one session's outcomes: terminal transitions are
// persisted, success hands off to order reconciliation.
func (s *Service) consumeEvents(sessionID string, sess *session) {
	defer s.wg.Done()

	logger := s.logger.With(zap.String("session_id", sessionID), zap.String("provider", sess.provider))
	for {
		select {
		case <-s.closed:
			return
		case <-sess.done:
			return
		case ev := <-sess.orchestrator.Events():
			switch ev.Type {
			case EventSucceeded:
				s.handleSuccess(sessionID, ev.Intent, logger)
			case EventFailed:
				logger.Info("payment failed",
					zap.String("intent_id", ev.Intent.ID),
					zap.String("reason", ev.Intent.FailureReason))
				s.persistAsync(ev.Intent)
			case EventCancelled:
				logger.Info("payment cancelled", zap.String("intent_id", ev.Intent.ID))
				s.persistAsync(ev.Intent)
			case EventPollTimeout:
				logger.Warn("payment status poll timed out, left in processing",
					zap.String("intent_id", ev.Intent.ID))
			}
		}
	}
}

func (s *Service) handleSuccess(sessionID string, intent *domain.Intent, logger *zap.Logger) {
	logger.Info("payment succeeded",
		zap.String("intent_id", intent.ID),
		zap.String("order_id", intent.OrderID),
		zap.String("provider_transaction_id", intent.ProviderTransactionID))
	s.persistAsync(intent)

	if s.reconciler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.reconciler.PaymentSucceeded(ctx, sessionID, intent); err != nil {
		// The payment is captured; reconciliation is retried out of band.
		logger.Error("order reconciliation failed", zap.Error(err))
	}
}

func (s *Service) persistNew(ctx context.Context, providerName string, intent *domain.Intent) {
	if s.repo == nil {
		return
	}
	record := &Payment{
		IntentID: intent.ID,
		OrderID:  intent.OrderID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		Method:   intent.Method,
		Status:   intent.Status,
		Provider: providerName,
	}
	if err := s.repo.CreatePayment(ctx, record); err != nil {
		s.logger.Error("persist payment failed", zap.String("intent_id", intent.ID), zap.Error(err))
	}
}

func (s *Service) persistIntent(ctx context.Context, intent *domain.Intent) {
	if s.repo == nil || intent == nil {
		return
	}
	record, err := s.repo.GetPaymentByIntentID(ctx, intent.ID)
	if err != nil {
		s.logger.Error("load payment for update failed", zap.String("intent_id", intent.ID), zap.Error(err))
		return
	}
	record.applyIntent(intent, time.Now())
	if err := s.repo.UpdatePayment(ctx, record); err != nil {
		s.logger.Error("update payment failed", zap.String("intent_id", intent.ID), zap.Error(err))
	}
}

func (s *Service) persistAsync(intent *domain.Intent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.persistIntent(ctx, intent)
}
