package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gharseva/server/internal/shared/response"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
}

// NewHandler creates a new order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the order routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("/:id", h.GetOrder)
		orders.GET("/by-ref/:ref", h.GetOrderByRef)
		orders.POST("/:id/complete", h.Complete)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

// GetOrder returns an order by id.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}
	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetOrderByRef returns an order by its checkout reference.
func (h *Handler) GetOrderByRef(c *gin.Context) {
	o, err := h.service.GetOrderByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		handleOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Complete marks a paid order as delivered.
func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}
	o, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Cancel cancels an unpaid order.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}
	o, err := h.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

var orderErrorMappings = []response.ErrorMapping{
	{Err: ErrOrderNotFound, Status: http.StatusNotFound},
	{Err: ErrInvalidTransition, Status: http.StatusConflict},
	{Err: ErrOrderAlreadyPaid, Status: http.StatusConflict},
}

func handleOrderError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, orderErrorMappings)
}
