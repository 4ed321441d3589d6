package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/edirooss/picam-panel/internal/http/middleware"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IssueSessionCSRF handles GET /api/csrf.
//
//   - Creates a token if the session has none and stores it in the session.
//   - Returns the token in JSON with cache disabled.
func IssueSessionCSRF(c *gin.Context) {
	sess := sessions.Default(c)
	token, _ := sess.Get(middleware.CSRFSessionKey).(string)
	if token == "" {
		var err error
		if token, err = randomTokenHex(32); err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "cannot issue csrf token"})
			return
		}
		sess.Set(middleware.CSRFSessionKey, token)
		if err := sess.Save(); err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "cannot save session"})
			return
		}
	}

	// Avoid cache serving stale tokens
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.JSON(http.StatusOK, gin.H{"csrf": token})
}

func randomTokenHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
