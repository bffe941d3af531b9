// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cashback-cart/internal/config"
	"github.com/your-org/cashback-cart/internal/domain/cart"
	"github.com/your-org/cashback-cart/internal/interfaces/http/handlers"
	"github.com/your-org/cashback-cart/internal/interfaces/http/middleware"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, manager *cart.Manager, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(manager, cfg)

	// All cart routes require a valid marketplace token
	authorized := rg.Group("")
	authorized.Use(middleware.AuthMiddleware(cfg))
	{
		cartGroup := authorized.Group("/cart")
		{
			cartGroup.GET("", cartHandler.GetCart)
			cartGroup.DELETE("", cartHandler.ClearCart)
			cartGroup.GET("/count", cartHandler.GetCartCount)
			cartGroup.POST("/refresh", cartHandler.RefreshCart)
			cartGroup.POST("/validate", cartHandler.ValidateCart)
			cartGroup.POST("/items", cartHandler.AddToCart)
			cartGroup.PATCH("/items/:id", cartHandler.UpdateCartItem)
			cartGroup.DELETE("/items/:id", cartHandler.RemoveFromCart)
		}

		authorized.GET("/products/:id/availability", cartHandler.GetAvailability)
		authorized.DELETE("/session", cartHandler.Logout)
	}
}
