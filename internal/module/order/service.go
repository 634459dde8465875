package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// CartClearer empties a session's cart once its order is placed.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Service reconciles succeeded payments into booking orders. It implements
// the payment module's Reconciler boundary.
type Service struct {
	repo   Repository
	carts  CartClearer
	logger *zap.Logger
}

// NewService creates the order service. carts may be nil in tests.
func NewService(repo Repository, carts CartClearer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, carts: carts, logger: logger}
}

// PaymentSucceeded records the paid order for a settled intent and clears
// the session's cart. Re-delivery of the same success is a no-op, so the
// payment module may hand the event off more than once.
func (s *Service) PaymentSucceeded(ctx context.Context, sessionID string, intent *domain.Intent) error {
	now := time.Now()

	existing, err := s.repo.GetOrderByRef(ctx, intent.OrderID)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		o := &Order{
			OrderRef:              intent.OrderID,
			SessionID:             sessionID,
			Amount:                intent.Amount,
			Currency:              intent.Currency,
			Status:                StatusPaid,
			PaymentIntentID:       intent.ID,
			ProviderTransactionID: intent.ProviderTransactionID,
			PaidAt:                &now,
		}
		if err := s.repo.CreateOrder(ctx, o); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if existing.Status == StatusPaid && existing.PaymentIntentID == intent.ID {
			return nil // already reconciled
		}
		if !existing.Status.CanTransitionTo(StatusPaid) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, StatusPaid)
		}
		existing.Status = StatusPaid
		existing.PaymentIntentID = intent.ID
		existing.ProviderTransactionID = intent.ProviderTransactionID
		existing.PaidAt = &now
		if err := s.repo.UpdateOrder(ctx, existing); err != nil {
			return err
		}
	}

	s.logger.Info("order reconciled",
		zap.String("order_ref", intent.OrderID),
		zap.String("intent_id", intent.ID),
		zap.String("provider_transaction_id", intent.ProviderTransactionID))

	if s.carts != nil {
		if err := s.carts.Clear(ctx, sessionID); err != nil {
			// The order stands; a stale cart only lingers until its TTL.
			s.logger.Warn("cart clear failed after reconciliation",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// GetOrder returns an order by id.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetOrderByRef returns an order by its checkout reference.
func (s *Service) GetOrderByRef(ctx context.Context, ref string) (*Order, error) {
	return s.repo.GetOrderByRef(ctx, ref)
}

// Complete marks a paid order's service as delivered.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// CancelOrder cancels an order that is still awaiting payment.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.transition(ctx, id, StatusCancelled)
}

// MarkRefunded records that the order's payment was returned.
func (s *Service) MarkRefunded(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.transition(ctx, id, StatusRefunded)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target Status) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	if err := s.repo.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
