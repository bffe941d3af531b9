// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/cashback-cart/internal/config"
	"github.com/your-org/cashback-cart/internal/domain/cart"
	"github.com/your-org/cashback-cart/internal/gateway"
	"github.com/your-org/cashback-cart/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	manager *cart.Manager
	config  *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(manager *cart.Manager, cfg *config.Config) *CartHandler {
	return &CartHandler{
		manager: manager,
		config:  cfg,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID           string `json:"product_id" binding:"required"`
	Quantity            int    `json:"quantity"`
	KnownAvailableStock *int   `json:"known_available_stock"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity            int  `json:"quantity" binding:"required"`
	KnownAvailableStock *int `json:"known_available_stock"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	engine, ctx := h.engine(c)

	// First access for this session: reconcile before answering so the
	// client never starts from a guessed-empty cart
	if engine.Snapshot().State == cart.StateUninitialized {
		engine.Refresh(ctx)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    engine.Snapshot(),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	engine, ctx := h.engine(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.AddItem(ctx, req.ProductID, req.Quantity, req.KnownAvailableStock); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    engine.Snapshot(),
	})
}

// UpdateCartItem handles PATCH /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	engine, ctx := h.engine(c)
	productID := c.Param("id")

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.UpdateQuantity(ctx, productID, req.Quantity, req.KnownAvailableStock); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    engine.Snapshot(),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	engine, ctx := h.engine(c)
	productID := c.Param("id")

	if err := engine.RemoveItem(ctx, productID); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    engine.Snapshot(),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	engine, ctx := h.engine(c)

	if err := engine.Clear(ctx); err != nil {
		// Local cart is already empty; report the remote failure
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// RefreshCart handles POST /cart/refresh
func (h *CartHandler) RefreshCart(c *gin.Context) {
	engine, ctx := h.engine(c)
	engine.Refresh(ctx)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart refreshed successfully",
		"data":    engine.Snapshot(),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	engine, _ := h.engine(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": engine.Snapshot().Totals.TotalQuantity,
		},
	})
}

// ValidateCart handles POST /cart/validate - checkout-time invariants
func (h *CartHandler) ValidateCart(c *gin.Context) {
	engine, _ := h.engine(c)

	if err := engine.ValidateSingleStore(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"data":  engine.Snapshot(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart validation successful",
		"data":    engine.Snapshot(),
	})
}

// GetAvailability handles GET /products/:id/availability
func (h *CartHandler) GetAvailability(c *gin.Context) {
	engine, _ := h.engine(c)
	productID := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"message": "Availability retrieved successfully",
		"data":    engine.GetStockCalculation(productID),
	})
}

// Logout handles DELETE /session - destroys the user's cart engine
func (h *CartHandler) Logout(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	h.manager.Drop(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Session ended successfully",
	})
}

// engine resolves the caller's cart engine and a context carrying the
// caller's bearer token for gateway calls
func (h *CartHandler) engine(c *gin.Context) (*cart.Service, context.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	token, _ := middleware.GetAuthTokenFromContext(c)

	engine := h.manager.Engine(userID, token)
	ctx := gateway.WithToken(c.Request.Context(), token)
	return engine, ctx
}

// respondMutationError maps typed engine errors onto HTTP statuses
func (h *CartHandler) respondMutationError(c *gin.Context, err error) {
	var insufficientStock *cart.InsufficientStockError
	var invalidQuantity *cart.InvalidQuantityError
	var serverErr *gateway.ServerError
	var networkErr *gateway.NetworkError
	var decodeErr *gateway.DecodeError

	switch {
	case errors.As(err, &insufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &serverErr), errors.As(err, &decodeErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &networkErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
