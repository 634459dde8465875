package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/shared/response"
)

// Handler handles HTTP requests for checkout payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	checkout := r.Group("/checkout/:session")
	{
		checkout.GET("", h.GetSession)
		checkout.POST("/initialize", h.Initialize)
		checkout.POST("/confirm", h.Confirm)
		checkout.POST("/cancel", h.Cancel)
		checkout.POST("/reset", h.Reset)
		checkout.POST("/clear-error", h.ClearError)
		checkout.DELETE("", h.EndSession)
	}

	payments := r.Group("/payments")
	{
		payments.GET("/:id", h.GetPayment)
		payments.GET("/by-order/:ref", h.ListPaymentsByOrder)
		payments.POST("/:id/refund", h.Refund)
	}

	r.GET("/providers", h.ListProviders)
}

// Initialize opens a payment intent for the session.
func (h *Handler) Initialize(c *gin.Context) {
	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	intent, err := h.service.Initialize(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, intent)
}

// Confirm submits the collected instrument for the held intent.
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	intent, err := h.service.Confirm(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Cancel voids the session's held payment.
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("session")); err != nil {
		handlePaymentError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset discards the session's payment state locally.
func (h *Handler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Param("session")); err != nil {
		handlePaymentError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearError drops the session's recorded error.
func (h *Handler) ClearError(c *gin.Context) {
	if err := h.service.ClearError(c.Param("session")); err != nil {
		handlePaymentError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession returns the session's current checkout state.
func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.service.Session(c.Param("session"))
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EndSession tears the checkout session down.
func (h *Handler) EndSession(c *gin.Context) {
	h.service.EndSession(c.Param("session"))
	c.Status(http.StatusNoContent)
}

// GetPayment returns a persisted payment record.
func (h *Handler) GetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Refund refunds a captured payment.
func (h *Handler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}

	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payment, err := h.service.Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPaymentsByOrder returns every payment attempt recorded for an order.
func (h *Handler) ListPaymentsByOrder(c *gin.Context) {
	payments, err := h.service.ListPaymentsByOrder(c.Request.Context(), c.Param("ref"))
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// ListProviders returns the configured providers and their routing.
func (h *Handler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.service.Providers()})
}

var paymentErrorMappings = []response.ErrorMapping{
	{Err: ErrSessionNotFound, Status: http.StatusNotFound},
	{Err: ErrPaymentNotFound, Status: http.StatusNotFound},
	{Err: ErrProviderNotFound, Status: http.StatusNotFound},
	{Err: ErrMethodNotRouted, Status: http.StatusBadRequest},
	{Err: ErrRefundNotSupported, Status: http.StatusConflict},
	{Err: ErrRefundNotEligible, Status: http.StatusConflict},
	{Err: ErrRefundExceedsTotal, Status: http.StatusBadRequest},
}

// handlePaymentError maps orchestration and module errors to HTTP codes.
func handlePaymentError(c *gin.Context, err error) {
	if perr, ok := err.(*domain.Error); ok {
		status := http.StatusBadGateway
		switch {
		case perr.Code == domain.CodeNoPaymentIntent:
			status = http.StatusConflict
		case perr.Type == domain.ErrorTypeValidation:
			status = http.StatusUnprocessableEntity
		}
		response.ErrorWithCode(c, status, perr.Code, perr.Message)
		return
	}
	response.HandleErrorWithDefault(c, err, paymentErrorMappings)
}
