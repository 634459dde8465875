package cart

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gharseva/server/internal/shared/response"
)

// Handler handles HTTP requests for carts.
type Handler struct {
	store *Store
}

// NewHandler creates a new cart handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the cart routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	carts := r.Group("/cart/:session")
	{
		carts.GET("", h.GetCart)
		carts.POST("/items", h.AddItem)
		carts.DELETE("", h.ClearCart)
	}
}

// GetCart returns the session's cart with its total.
func (h *Handler) GetCart(c *gin.Context) {
	crt, err := h.store.Get(c.Request.Context(), c.Param("session"))
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			response.NotFound(c, "cart is empty")
			return
		}
		response.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": crt, "total": crt.Total()})
}

// AddItem appends a booking line to the cart.
func (h *Handler) AddItem(c *gin.Context) {
	var item Item
	if err := c.ShouldBindJSON(&item); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if item.ServiceID == "" || item.Quantity <= 0 {
		response.BadRequest(c, "service_id and a positive quantity are required")
		return
	}

	crt, err := h.store.AddItem(c.Request.Context(), c.Param("session"), item)
	if err != nil {
		response.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": crt, "total": crt.Total()})
}

// ClearCart empties the session's cart.
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context(), c.Param("session")); err != nil {
		response.InternalError(c, "")
		return
	}
	c.Status(http.StatusNoContent)
}
