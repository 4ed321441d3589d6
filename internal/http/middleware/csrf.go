package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CSRFSessionKey is the session key holding the CSRF token.
const CSRFSessionKey = "csrf"

// CSRFHeader carries the token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// ValidateSessionCSRF checks the CSRF token of mutating requests against the session.
//
//   - Applies only to mutating methods (POST, PUT, PATCH, DELETE).
//   - Aborts with 403 Forbidden if the token is missing or does not match.
//
// Requires the sessions middleware earlier in the chain.
func ValidateSessionCSRF(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		c.Next()
		return
	}

	want, _ := sessions.Default(c).Get(CSRFSessionKey).(string)
	got := c.GetHeader(CSRFHeader)

	if want == "" || got == "" ||
		subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid csrf token"})
		return
	}

	c.Next()
}
