package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/server/internal/module/payment/domain"
)

// Synthetic instrument values recognised by the mock adapter. They drive
// deterministic outcomes so checkout scenarios are reproducible in tests
// and sandbox environments.
const (
	MockCardSuccess        = "4242424242424242"
	MockCardDeclined       = "4000000000000002"
	MockCardRequiresAction = "4000000000003063"

	MockVPASuccess = "success@upi"
	MockVPAFailure = "failure@upi"
	MockVPATimeout = "timeout@upi"
)

// DefaultMockSettleFetches is how many GetIntent calls a processing mock
// payment takes before settling.
const DefaultMockSettleFetches = 2

type mockRecord struct {
	intent *domain.Intent

	// settleTo is the status a processing intent resolves to after
	// settleAfter further GetIntent calls. Empty means never settles.
	settleTo    domain.Status
	settleAfter int
	failCode    string
	failReason  string

	// fingerprint of the last accepted confirm, for idempotent replays.
	confirmedWith string
}

// MockAdapter is the conformance adapter used in development and tests.
// All state is in memory; every operation is safe for concurrent use.
type MockAdapter struct {
	mu      sync.Mutex
	records map[string]*mockRecord

	// SettleFetches overrides how long processing intents stay in flight.
	SettleFetches int

	now func() time.Time
}

// NewMockAdapter creates the conformance adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		records:       make(map[string]*mockRecord),
		SettleFetches: DefaultMockSettleFetches,
		now:           time.Now,
	}
}

// Name returns the provider name.
func (a *MockAdapter) Name() string {
	return "mock"
}

// SupportedMethods returns every method family; the mock stands in for any
// gateway during development.
func (a *MockAdapter) SupportedMethods() []domain.Method {
	return []domain.Method{
		domain.MethodCard, domain.MethodUPI, domain.MethodNetBanking,
		domain.MethodWallet, domain.MethodEMI, domain.MethodCOD, domain.MethodBankTransfer,
	}
}

// CreateIntent opens a fresh intent in pending state.
func (a *MockAdapter) CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("mock: amount must be positive")
	}
	if req.Currency == "" || req.OrderID == "" {
		return nil, fmt.Errorf("mock: currency and order id are required")
	}

	now := a.now()
	intent := &domain.Intent{
		ID:        "pi_mock_" + uuid.NewString(),
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	a.mu.Lock()
	a.records[intent.ID] = &mockRecord{intent: intent}
	a.mu.Unlock()

	return intent.Clone(), nil
}

// ConfirmIntent resolves the synthetic instrument to its scripted outcome.
// Replaying a confirm with the same instrument returns the current state
// without a second side effect.
func (a *MockAdapter) ConfirmIntent(ctx context.Context, req ConfirmRequest) (*domain.Intent, error) {
	if err := req.Details.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[req.IntentID]
	if !ok {
		return nil, fmt.Errorf("mock: no such intent %s", req.IntentID)
	}

	fp := fingerprint(req.Details)
	if rec.confirmedWith != "" {
		if rec.confirmedWith == fp {
			return rec.intent.Clone(), nil // idempotent replay
		}
		if rec.intent.Status.IsTerminal() {
			return nil, fmt.Errorf("mock: intent %s already %s", req.IntentID, rec.intent.Status)
		}
	}

	now := a.now()
	rec.confirmedWith = fp
	rec.intent.Method = req.Details.Method
	rec.intent.ProviderTransactionID = "txn_mock_" + uuid.NewString()

	switch outcome := a.scriptedOutcome(req.Details); outcome.status {
	case domain.StatusSucceeded:
		rec.intent.ApplyStatus(domain.StatusSucceeded, now)
	case domain.StatusFailed:
		rec.intent.ApplyStatus(domain.StatusFailed, now)
		rec.intent.FailureCode = outcome.failCode
		rec.intent.FailureReason = outcome.failReason
	case domain.StatusRequiresAction:
		rec.intent.ApplyStatus(domain.StatusRequiresAction, now)
	case domain.StatusProcessing:
		rec.intent.ApplyStatus(domain.StatusProcessing, now)
		rec.settleTo = outcome.settleTo
		rec.settleAfter = a.SettleFetches
		rec.failCode = outcome.failCode
		rec.failReason = outcome.failReason
	}

	return rec.intent.Clone(), nil
}

type scripted struct {
	status     domain.Status
	settleTo   domain.Status
	failCode   string
	failReason string
}

func (a *MockAdapter) scriptedOutcome(d domain.MethodDetails) scripted {
	switch d.Method {
	case domain.MethodCard, domain.MethodEMI:
		number := ""
		if d.Card != nil {
			number = d.Card.Number
		}
		if d.EMI != nil {
			number = d.EMI.Last4
		}
		switch number {
		case MockCardDeclined, "0002":
			return scripted{status: domain.StatusFailed, failCode: "card_declined", failReason: "Your card was declined."}
		case MockCardRequiresAction, "3063":
			return scripted{status: domain.StatusRequiresAction}
		default:
			return scripted{status: domain.StatusSucceeded}
		}
	case domain.MethodUPI:
		switch d.UPI.VPA {
		case MockVPAFailure:
			return scripted{
				status:     domain.StatusProcessing,
				settleTo:   domain.StatusFailed,
				failCode:   "upi_collect_rejected",
				failReason: "The UPI collect request was rejected.",
			}
		case MockVPATimeout:
			return scripted{status: domain.StatusProcessing} // never settles
		default:
			return scripted{status: domain.StatusProcessing, settleTo: domain.StatusSucceeded}
		}
	case domain.MethodCOD:
		// Cash on delivery is acknowledged immediately, nothing to poll.
		return scripted{status: domain.StatusSucceeded}
	default:
		return scripted{status: domain.StatusSucceeded}
	}
}

// CancelIntent moves a non-terminal intent to cancelled.
func (a *MockAdapter) CancelIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[intentID]
	if !ok {
		return nil, fmt.Errorf("mock: no such intent %s", intentID)
	}
	if rec.intent.Status.IsTerminal() {
		return nil, fmt.Errorf("mock: intent %s already %s", intentID, rec.intent.Status)
	}
	rec.intent.ApplyStatus(domain.StatusCancelled, a.now())
	rec.settleTo = ""
	return rec.intent.Clone(), nil
}

// GetIntent returns the current state. Processing intents with a scripted
// settlement count down one fetch per call and settle when exhausted.
func (a *MockAdapter) GetIntent(ctx context.Context, intentID string) (*domain.Intent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[intentID]
	if !ok {
		return nil, fmt.Errorf("mock: no such intent %s", intentID)
	}

	if rec.intent.Status == domain.StatusProcessing && rec.settleTo != "" {
		rec.settleAfter--
		if rec.settleAfter <= 0 {
			rec.intent.ApplyStatus(rec.settleTo, a.now())
			if rec.settleTo == domain.StatusFailed {
				rec.intent.FailureCode = rec.failCode
				rec.intent.FailureReason = rec.failReason
			}
			rec.settleTo = ""
		}
	}

	return rec.intent.Clone(), nil
}

// RefundIntent marks a succeeded intent refunded.
func (a *MockAdapter) RefundIntent(ctx context.Context, intentID string, amount int64, reason string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[intentID]
	if !ok {
		return "", fmt.Errorf("mock: no such intent %s", intentID)
	}
	if rec.intent.Status != domain.StatusSucceeded {
		return "", fmt.Errorf("mock: intent %s is %s, only succeeded payments refund", intentID, rec.intent.Status)
	}
	if amount > rec.intent.Amount {
		return "", fmt.Errorf("mock: refund exceeds captured amount")
	}
	if amount == 0 || amount == rec.intent.Amount {
		rec.intent.ApplyStatus(domain.StatusRefunded, a.now())
	}
	return "rf_mock_" + uuid.NewString(), nil
}

func fingerprint(d domain.MethodDetails) string {
	s := string(d.Method)
	switch {
	case d.Card != nil:
		s += "|" + d.Card.Number + "|" + d.Card.Last4
	case d.UPI != nil:
		s += "|" + d.UPI.VPA
	case d.NetBanking != nil:
		s += "|" + d.NetBanking.BankCode
	case d.Wallet != nil:
		s += "|" + d.Wallet.Provider
	case d.EMI != nil:
		s += "|" + d.EMI.Last4 + "|" + fmt.Sprint(d.EMI.Tenure)
	}
	return s
}
