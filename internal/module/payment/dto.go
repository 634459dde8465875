package payment

import (
	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/shared/config"
)

// InitializePaymentRequest opens a payment for a checkout session.
type InitializePaymentRequest struct {
	Amount      int64         `json:"amount" binding:"required,gt=0"`
	Currency    string        `json:"currency"`
	OrderID     string        `json:"order_id" binding:"required"`
	Method      domain.Method `json:"method" binding:"required"`
	Description string        `json:"description"`
}

// ConfirmPaymentRequest submits the collected instrument.
type ConfirmPaymentRequest struct {
	PaymentIntentID string                 `json:"payment_intent_id" binding:"required"`
	Details         domain.MethodDetails   `json:"details" binding:"required"`
	BillingDetails  *domain.BillingDetails `json:"billing_details,omitempty"`
}

// RefundPaymentRequest refunds a captured payment. Amount 0 means full.
type RefundPaymentRequest struct {
	Amount int64  `json:"amount,omitempty"`
	Reason string `json:"reason"`
}

// SessionView is the checkout session's current payment snapshot.
type SessionView struct {
	SessionID string         `json:"session_id"`
	Provider  string         `json:"provider"`
	State     SessionState   `json:"state"`
	Intent    *domain.Intent `json:"intent,omitempty"`
	LastError *domain.Error  `json:"last_error,omitempty"`
}

// ProviderInfo describes one configured provider for the frontend.
type ProviderInfo struct {
	Name        string                  `json:"name"`
	Methods     []domain.Method         `json:"methods"`
	Environment string                  `json:"environment,omitempty"`
	Features    config.ProviderFeatures `json:"features"`
}
