package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/cashback-cart/internal/config"
)

// Timeout bounds how long one request may run. Cart handlers fan out to
// the marketplace backend, so a hung upstream must not pin the handler
// past the configured limit.
func Timeout(cfg *config.Config) gin.HandlerFunc {
	limit := cfg.Server.RequestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), limit)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		finished := make(chan struct{})
		go func() {
			c.Next()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			c.Abort()
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "request timed out",
			})
		}
	}
}
