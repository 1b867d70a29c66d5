package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/logger"
)

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func respondError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	code := apperrors.CodeInternal
	message := "internal server error"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed request_id=%s path=%s: %v", requestIDFromContext(c), c.FullPath(), err)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   code,
		"message": message,
	})
}
