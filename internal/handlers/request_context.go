package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messaging-service/internal/apperrors"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// authenticatedUserID returns the id set by the auth middleware, if any.
func authenticatedUserID(c *gin.Context) (int64, bool) {
	val, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok && userID != 0
}

func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, apperrors.Validation(fmt.Sprintf("%s is required", name), nil)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.Validation(fmt.Sprintf("%s must be a positive integer", name), err)
	}
	return value, nil
}

// actingUser reads the caller id from the query and, when the request carries
// a verified token, checks that it belongs to one of allowed.
func actingUser(c *gin.Context, name string, allowed ...int64) (int64, error) {
	userID, err := queryInt64(c, name)
	if err != nil {
		return 0, err
	}
	if err := checkCaller(c, append(allowed, userID)...); err != nil {
		return 0, err
	}
	return userID, nil
}

func checkCaller(c *gin.Context, allowed ...int64) error {
	caller, ok := authenticatedUserID(c)
	if !ok {
		return nil
	}
	for _, id := range allowed {
		if id == caller {
			return nil
		}
	}
	return apperrors.Forbidden("token does not belong to the requested user", nil)
}
