package payment

import "errors"

// Module errors.
var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrProviderNotFound   = errors.New("payment provider not found")
	ErrMethodNotRouted    = errors.New("no payment provider for method")
	ErrRefundNotSupported = errors.New("provider does not support refunds")
	ErrRefundNotEligible  = errors.New("payment is not eligible for refund")
	ErrRefundExceedsTotal = errors.New("refund exceeds captured amount")
)
