package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/auth"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

func setupAuthRouter(required bool) (*gin.Engine, *auth.Authenticator) {
	gin.SetMode(gin.TestMode)
	users := new(mocks.UserRepositoryMock)
	users.On("GetUserByEmail", mock.Anything, "ann@example.com").
		Return(models.UserProfile{ID: 3, Email: "ann@example.com"}, nil)
	authn := auth.NewAuthenticator("mw-secret", users)

	r := gin.New()
	r.Use(AuthMiddleware(authn, required))
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := c.Get("userID")
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.JSON(http.StatusOK, gin.H{"userID": id})
	})
	return r, authn
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	router, authn := setupAuthRouter(true)
	token, err := authn.IssueToken("ann@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userID":3}`, rec.Body.String())
}

func TestAuthMiddlewareRequired(t *testing.T) {
	router, _ := setupAuthRouter(true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"UNAUTHENTICATED","message":"`+auth.ReasonMissingCredential+`"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"UNAUTHENTICATED","message":"`+auth.ReasonInvalidCredential+`"}`, rec.Body.String())
}

func TestAuthMiddlewareOptionalPassesAnonymous(t *testing.T) {
	router, _ := setupAuthRouter(false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx = observability.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", fromCtx)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), fromCtx)
}
