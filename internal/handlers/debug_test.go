package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIssuer struct {
	subject string
	ttl     time.Duration
}

func (s *stubIssuer) IssueToken(subject string, ttl time.Duration) (string, error) {
	s.subject, s.ttl = subject, ttl
	return "signed-" + subject, nil
}

func TestDebugTokenRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	issuer := &stubIssuer{}
	RegisterDebugRoutes(r, issuer, true)

	rec, env := serve(r, http.MethodGet, "/debug/token?email=ann@example.com", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "signed-ann@example.com", data["token"])
	assert.Equal(t, time.Hour, issuer.ttl)

	rec, _ = serve(r, http.MethodGet, "/debug/token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, &stubIssuer{}, false)

	rec, _ := serve(r, http.MethodGet, "/debug/token?email=a@b.c", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
