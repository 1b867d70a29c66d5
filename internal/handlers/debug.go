package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/apperrors"
)

const debugTokenTTL = time.Hour

type TokenIssuer interface {
	IssueToken(subject string, ttl time.Duration) (string, error)
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, issuer TokenIssuer, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/token", func(c *gin.Context) {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			respondError(c, apperrors.Validation("email is required", nil))
			return
		}

		token, err := issuer.IssueToken(email, debugTokenTTL)
		if err != nil {
			respondError(c, apperrors.Internal("failed to issue token", err))
			return
		}
		respondOK(c, http.StatusOK, "token issued", gin.H{
			"token":     token,
			"expiresIn": int(debugTokenTTL.Seconds()),
		})
	})
}
