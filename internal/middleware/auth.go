package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/auth"
	"messaging-service/internal/models"
)

// TokenVerifier resolves a bearer token to its principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.UserProfile, error)
}

// AuthMiddleware resolves a bearer token to the caller's user id and stores it
// under "userID". With required set, requests without a valid token are
// rejected; otherwise an absent token passes through anonymously.
func AuthMiddleware(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			if required {
				abortUnauthenticated(c, apperrors.Unauthenticated(auth.ReasonMissingCredential, nil))
				return
			}
			c.Next()
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortUnauthenticated(c, apperrors.Unauthenticated(auth.ReasonInvalidCredential, err))
			return
		}

		c.Set("userID", principal.ID)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"success": false,
		"error":   err.Code,
		"message": err.Message,
	})
}
