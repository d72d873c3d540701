package middleware

import (
	"strings"

	"bcsync/internal/auth"

	"github.com/gin-gonic/gin"
)

// ContextVerified is set when the request carries a valid bearer token from
// the phone verification flow.
const ContextVerified = "verified"

// PriceGate marks authenticated requests so handlers can decide whether to
// expose prices. It never rejects a request; unauthenticated visitors still
// browse the catalog, just without prices.
func PriceGate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			if _, err := auth.ParseToken(token, []byte(secret)); err == nil {
				c.Set(ContextVerified, true)
			}
		}
		c.Next()
	}
}
