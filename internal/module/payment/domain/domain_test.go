package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	t.Run("forward moves", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusProcessing))
		assert.True(t, StatusPending.CanTransitionTo(StatusSucceeded))
		assert.True(t, StatusProcessing.CanTransitionTo(StatusRequiresAction))
		assert.True(t, StatusRequiresAction.CanTransitionTo(StatusProcessing))
		assert.True(t, StatusSucceeded.CanTransitionTo(StatusRefunded))
	})

	t.Run("nothing returns to pending", func(t *testing.T) {
		for _, s := range []Status{StatusProcessing, StatusRequiresAction, StatusSucceeded, StatusFailed, StatusCancelled, StatusRefunded} {
			assert.False(t, s.CanTransitionTo(StatusPending), "from %s", s)
		}
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		targets := []Status{StatusPending, StatusProcessing, StatusRequiresAction, StatusSucceeded, StatusFailed, StatusCancelled}
		for _, s := range []Status{StatusFailed, StatusCancelled, StatusRefunded} {
			require.True(t, s.IsTerminal())
			for _, target := range targets {
				assert.False(t, s.CanTransitionTo(target), "%s -> %s", s, target)
			}
		}
		// succeeded is terminal for everything except its refund.
		assert.True(t, StatusSucceeded.IsTerminal())
		assert.False(t, StatusSucceeded.CanTransitionTo(StatusFailed))
	})
}

func TestIntentApplyStatus(t *testing.T) {
	now := time.Now()

	t.Run("permitted transition refreshes updatedAt", func(t *testing.T) {
		intent := &Intent{Status: StatusPending, UpdatedAt: now}
		later := now.Add(time.Second)
		require.True(t, intent.ApplyStatus(StatusProcessing, later))
		assert.Equal(t, StatusProcessing, intent.Status)
		assert.Equal(t, later, intent.UpdatedAt)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		intent := &Intent{Status: StatusProcessing, UpdatedAt: now}
		require.True(t, intent.ApplyStatus(StatusProcessing, now.Add(time.Second)))
		assert.Equal(t, now, intent.UpdatedAt)
	})

	t.Run("forbidden transition leaves intent untouched", func(t *testing.T) {
		intent := &Intent{Status: StatusFailed, UpdatedAt: now}
		require.False(t, intent.ApplyStatus(StatusSucceeded, now.Add(time.Second)))
		assert.Equal(t, StatusFailed, intent.Status)
		assert.Equal(t, now, intent.UpdatedAt)
	})
}

func TestIntentClone(t *testing.T) {
	var nilIntent *Intent
	assert.Nil(t, nilIntent.Clone())

	intent := &Intent{ID: "pi_1", Status: StatusPending}
	c := intent.Clone()
	c.Status = StatusFailed
	assert.Equal(t, StatusPending, intent.Status)
}

func TestMethodDetailsValidate(t *testing.T) {
	cases := []struct {
		name    string
		details MethodDetails
		wantErr bool
	}{
		{"card with payload", MethodDetails{Method: MethodCard, Card: &CardDetails{Last4: "4242"}}, false},
		{"card without payload", MethodDetails{Method: MethodCard}, true},
		{"upi with payload", MethodDetails{Method: MethodUPI, UPI: &UPIDetails{VPA: "a@upi"}}, false},
		{"upi without payload", MethodDetails{Method: MethodUPI}, true},
		{"netbanking without payload", MethodDetails{Method: MethodNetBanking}, true},
		{"wallet without payload", MethodDetails{Method: MethodWallet}, true},
		{"emi without payload", MethodDetails{Method: MethodEMI}, true},
		{"cod needs no payload", MethodDetails{Method: MethodCOD}, false},
		{"bank transfer needs no payload", MethodDetails{Method: MethodBankTransfer}, false},
		{"unknown method", MethodDetails{Method: Method("crypto")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.details.Validate()
			if tc.wantErr {
				require.Error(t, err)
				perr, ok := err.(*Error)
				require.True(t, ok)
				assert.Equal(t, "invalid_payment_method", perr.Code)
				assert.Equal(t, ErrorTypeValidation, perr.Type)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorRetryable(t *testing.T) {
	assert.True(t, NewAPIError(CodeInitializationFailed, "boom").Retryable())
	assert.True(t, NewAPIError(CodeConfirmationFailed, "boom").Retryable())
	assert.False(t, NewValidationError(CodeNoPaymentIntent, "none").Retryable())
	assert.False(t, NewAPIError(CodeCancellationFailed, "boom").Retryable())
}
