package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens responses. Every payload here is a per-user
// cart view, so shared caches must never hold one.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Server", "cashback-cart")

		c.Next()
	}
}
