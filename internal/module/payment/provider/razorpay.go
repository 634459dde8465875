package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// RazorpayConfig holds Razorpay configuration.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string // defaults to the public API host
}

const razorpayDefaultBaseURL = "https://api.razorpay.com"

// RazorpayAdapter drives UPI, netbanking and wallet payments through the
// Razorpay REST API. All calls go through a circuit breaker so a degraded
// gateway fails fast instead of tying up checkout requests.
type RazorpayAdapter struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*razorpayPayment]
}

// NewRazorpayAdapter creates a new Razorpay adapter.
func NewRazorpayAdapter(config *RazorpayConfig) *RazorpayAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = razorpayDefaultBaseURL
	}
	breaker := gobreaker.NewCircuitBreaker[*razorpayPayment](gobreaker.Settings{
		Name:    "razorpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &RazorpayAdapter{
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
		breaker:   breaker,
	}
}

// Name returns the provider name.
func (a *RazorpayAdapter) Name() string {
	return "razorpay"
}

// SupportedMethods lists the bank-rail methods routed to Razorpay.
func (a *RazorpayAdapter) SupportedMethods() []domain.Method {
	return []domain.Method{
		domain.MethodUPI, domain.MethodNetBanking,
		domain.MethodWallet, domain.MethodBankTransfer,
	}
}

// razorpayPayment is the wire shape shared by all payment endpoints.
type razorpayPayment struct {
	ID              string `json:"id"`
	OrderID         string `json:"order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Method          string `json:"method,omitempty"`
	AcquirerTransID string `json:"acquirer_transaction_id,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	ErrorReason     string `json:"error_description,omitempty"`
	CreatedAt       int64  `json:"created_at"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent opens a payment order on Razorpay.
func (a *RazorpayAdapter) CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.Intent, error) {
	body := map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.OrderID,
		"notes":    req.Metadata,
	}
	p, err := a.do(ctx, http.MethodPost, "/v1/payments", body)
	if err != nil {
		return nil, err
	}
	intent := a.toIntent(p)
	intent.OrderID = req.OrderID
	return intent, nil
}

// ConfirmIntent submits the collected instrument. Razorpay keys the collect
// request on the payment id, so replaying an identical confirm returns the
// already-running collect instead of issuing a second one.
func (a *RazorpayAdapter) ConfirmIntent(ctx context.Context, req ConfirmRequest) (*domain.Intent, error) {
	if err := req.Details.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{"method": string(req.Details.Method)}
	switch req.Details.Method {
	case domain.MethodUPI:
		body["vpa"] = req.Details.UPI.VPA
		if req.Details.UPI.Flow != "" {
			body["flow"] = req.Details.UPI.Flow
		}
	case domain.MethodNetBanking:
		body["bank"] = req.Details.NetBanking.BankCode
	case domain.MethodWallet:
		body["wallet"] = req.Details.Wallet.Provider
	case domain.MethodBankTransfer:
		// acknowledgement only, no instrument payload
	default:
		return nil, fmt.Errorf("razorpay: unsupported method %s", req.Details.Method)
	}

	p, err := a.do(ctx, http.MethodPost, "/v1/payments/"+req.IntentID+"/confirm", body)
	if err != nil {
		return nil, err
	}
	return a.toIntent(p), nil
}

// CancelIntent voids a payment that has not settled.
func (a *RazorpayAdapter) CancelIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	p, err := a.do(ctx, http.MethodPost, "/v1/payments/"+intentID+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	return a.toIntent(p), nil
}

// GetIntent re-fetches the payment state. Read only.
func (a *RazorpayAdapter) GetIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	p, err := a.do(ctx, http.MethodGet, "/v1/payments/"+intentID, nil)
	if err != nil {
		return nil, err
	}
	return a.toIntent(p), nil
}

// RefundIntent refunds a captured payment, in part or in full.
func (a *RazorpayAdapter) RefundIntent(ctx context.Context, intentID string, amount int64, reason string) (string, error) {
	body := map[string]any{}
	if amount > 0 {
		body["amount"] = amount
	}
	if reason != "" {
		body["notes"] = map[string]string{"reason": reason}
	}
	p, err := a.do(ctx, http.MethodPost, "/v1/payments/"+intentID+"/refund", body)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (a *RazorpayAdapter) do(ctx context.Context, method, path string, body any) (*razorpayPayment, error) {
	return a.breaker.Execute(func() (*razorpayPayment, error) {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("razorpay: encode request: %w", err)
			}
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("razorpay: build request: %w", err)
		}
		req.SetBasicAuth(a.keyID, a.keySecret)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("razorpay: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("razorpay: read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			var apiErr razorpayError
			if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error.Code != "" {
				return nil, fmt.Errorf("razorpay: %s: %s", apiErr.Error.Code, apiErr.Error.Description)
			}
			return nil, fmt.Errorf("razorpay: %s %s: status %d", method, path, resp.StatusCode)
		}

		var p razorpayPayment
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("razorpay: decode response: %w", err)
		}
		return &p, nil
	})
}

func (a *RazorpayAdapter) toIntent(p *razorpayPayment) *domain.Intent {
	return &domain.Intent{
		ID:                    p.ID,
		OrderID:               p.OrderID,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Method:                domain.Method(p.Method),
		Status:                mapRazorpayStatus(p.Status),
		FailureCode:           p.ErrorCode,
		FailureReason:         p.ErrorReason,
		ProviderTransactionID: p.AcquirerTransID,
		CreatedAt:             time.Unix(p.CreatedAt, 0),
		UpdatedAt:             time.Now(),
	}
}

func mapRazorpayStatus(s string) domain.Status {
	switch s {
	case "created":
		return domain.StatusPending
	case "authorized", "attempted":
		return domain.StatusProcessing
	case "captured":
		return domain.StatusSucceeded
	case "failed":
		return domain.StatusFailed
	case "cancelled", "voided":
		return domain.StatusCancelled
	case "refunded":
		return domain.StatusRefunded
	default:
		return domain.StatusProcessing
	}
}
