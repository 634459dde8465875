package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// StripeAdapter charges card-family payments through Stripe.
type StripeAdapter struct {
	apiKey        string
	webhookSecret string
}

// NewStripeAdapter creates a new Stripe adapter.
func NewStripeAdapter(config *StripeConfig) *StripeAdapter {
	stripe.Key = config.APIKey
	return &StripeAdapter{
		apiKey:        config.APIKey,
		webhookSecret: config.WebhookSecret,
	}
}

// Name returns the provider name.
func (a *StripeAdapter) Name() string {
	return "stripe"
}

// SupportedMethods lists the card-family methods routed to Stripe.
func (a *StripeAdapter) SupportedMethods() []domain.Method {
	return []domain.Method{domain.MethodCard, domain.MethodEMI}
}

// CreateIntent opens a payment intent on Stripe.
func (a *StripeAdapter) CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return a.toIntent(pi, req.OrderID), nil
}

// ConfirmIntent submits the tokenised card against the intent. Stripe
// deduplicates repeated confirms on the same intent, so replays are safe.
func (a *StripeAdapter) ConfirmIntent(ctx context.Context, req ConfirmRequest) (*domain.Intent, error) {
	if err := req.Details.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	switch req.Details.Method {
	case domain.MethodCard:
		// Number carries the collector's payment method token, never a PAN.
		params.PaymentMethod = stripe.String(req.Details.Card.Number)
	case domain.MethodEMI:
		params.PaymentMethod = stripe.String(req.Details.EMI.Last4)
	default:
		return nil, fmt.Errorf("stripe: unsupported method %s", req.Details.Method)
	}

	pi, err := paymentintent.Confirm(req.IntentID, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.PaymentIntent != nil {
			return a.toIntent(stripeErr.PaymentIntent, ""), nil
		}
		return nil, fmt.Errorf("stripe: confirm payment intent: %w", err)
	}

	intent := a.toIntent(pi, "")
	intent.Method = req.Details.Method
	return intent, nil
}

// CancelIntent cancels a not-yet-settled intent.
func (a *StripeAdapter) CancelIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := paymentintent.Cancel(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: cancel payment intent: %w", err)
	}
	return a.toIntent(pi, ""), nil
}

// GetIntent re-fetches the intent. Read only.
func (a *StripeAdapter) GetIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return a.toIntent(pi, ""), nil
}

// RefundIntent refunds a captured payment, in part or in full.
func (a *StripeAdapter) RefundIntent(ctx context.Context, intentID string, amount int64, reason string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}
	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create refund: %w", err)
	}
	return r.ID, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header.
func (a *StripeAdapter) VerifyWebhookSignature(payload []byte, signature string) error {
	_, err := webhook.ConstructEvent(payload, signature, a.webhookSecret)
	return err
}

func (a *StripeAdapter) toIntent(pi *stripe.PaymentIntent, orderID string) *domain.Intent {
	if orderID == "" && pi.Metadata != nil {
		orderID = pi.Metadata["order_id"]
	}
	intent := &domain.Intent{
		ID:        pi.ID,
		OrderID:   orderID,
		Amount:    pi.Amount,
		Currency:  string(pi.Currency),
		Status:    mapStripeStatus(pi.Status),
		CreatedAt: time.Unix(pi.Created, 0),
		UpdatedAt: time.Now(),
	}
	if pi.LatestCharge != nil {
		intent.ProviderTransactionID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		intent.FailureCode = string(pi.LastPaymentError.Code)
		intent.FailureReason = pi.LastPaymentError.Msg
		if intent.Status == domain.StatusPending {
			// A confirm that was attempted and rejected reads as
			// requires_payment_method on Stripe; to us that is a failure.
			intent.Status = domain.StatusFailed
		}
	}
	return intent
}

func mapStripeStatus(s stripe.PaymentIntentStatus) domain.Status {
	switch s {
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusRequiresConfirmation:
		return domain.StatusPending
	case stripe.PaymentIntentStatusRequiresAction:
		return domain.StatusRequiresAction
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return domain.StatusProcessing
	case stripe.PaymentIntentStatusSucceeded:
		return domain.StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.StatusCancelled
	default:
		return domain.StatusProcessing
	}
}
