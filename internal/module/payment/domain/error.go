package domain

// ErrorType classifies a payment error for the UI.
type ErrorType string

const (
	ErrorTypeCard       ErrorType = "card_error"
	ErrorTypeAPI        ErrorType = "api_error"
	ErrorTypeValidation ErrorType = "validation_error"
)

// Orchestration error codes. Provider-declared failures are not errors:
// they are the failed terminal status on the intent itself.
const (
	CodeInitializationFailed = "payment_initialization_failed"
	CodeConfirmationFailed   = "payment_confirmation_failed"
	CodeNoPaymentIntent      = "no_payment_intent"
	CodeCancellationFailed   = "payment_cancellation_failed"
)

// Error is the structured payment error surfaced to callers. It is always
// returned as a value, recorded in session state for display, and never
// silently dropped.
type Error struct {
	Code    string    `json:"code"`
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Retryable reports whether re-invoking the failed operation can succeed
// without first re-initializing.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeInitializationFailed, CodeConfirmationFailed:
		return true
	default:
		return false
	}
}

// NewAPIError builds an api_error with the given code.
func NewAPIError(code, message string) *Error {
	return &Error{Code: code, Type: ErrorTypeAPI, Message: message}
}

// NewValidationError builds a validation_error with the given code.
func NewValidationError(code, message string) *Error {
	return &Error{Code: code, Type: ErrorTypeValidation, Message: message}
}
