package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const testSecret = "test-secret"

func newRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestAuthenticateWithoutCredentialIsRejected(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	a := NewAuthenticator(testSecret, users)

	hs := a.Authenticate(context.Background(), newRequest("/ws"))

	assert.Equal(t, Rejected, hs.State)
	assert.Equal(t, ReasonMissingCredential, hs.Reason)
	assert.ErrorIs(t, hs.Err, ErrMissingToken)
	users.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
}

func TestAuthenticateValidQueryToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	a := NewAuthenticator(testSecret, users)
	user := models.UserProfile{ID: 4, Nickname: "dee", Email: "dee@example.com"}
	users.On("GetUserByEmail", mock.Anything, "dee@example.com").Return(user, nil).Once()

	token, err := a.IssueToken("dee@example.com", time.Hour)
	require.NoError(t, err)

	hs := a.Authenticate(context.Background(), newRequest("/ws?token="+token))

	assert.Equal(t, Authenticated, hs.State)
	assert.Equal(t, user, hs.Principal)
	assert.Empty(t, hs.Reason)
	users.AssertExpectations(t)
}

func TestAuthenticateBearerHeader(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	a := NewAuthenticator(testSecret, users)
	users.On("GetUserByEmail", mock.Anything, "dee@example.com").
		Return(models.UserProfile{ID: 4, Email: "dee@example.com"}, nil)

	token, err := a.IssueToken("dee@example.com", time.Hour)
	require.NoError(t, err)
	req := newRequest("/ws")
	req.Header.Set("Authorization", "Bearer "+token)

	hs := a.Authenticate(context.Background(), req)
	assert.Equal(t, Authenticated, hs.State)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	a := NewAuthenticator(testSecret, users)
	users.On("GetUserByEmail", mock.Anything, "dee@example.com").
		Return(models.UserProfile{ID: 4, Email: "dee@example.com"}, nil)
	users.On("GetUserByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repositories.ErrUserNotFound)
	users.On("GetUserByEmail", mock.Anything, "alias@example.com").
		Return(models.UserProfile{ID: 5, Email: "someone-else@example.com"}, nil)

	expired := NewAuthenticator(testSecret, users)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken("dee@example.com", time.Hour)
	require.NoError(t, err)

	wrongKey, err := NewAuthenticator("other-secret", users).IssueToken("dee@example.com", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "dee@example.com"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "dee@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unknown, err := a.IssueToken("ghost@example.com", time.Hour)
	require.NoError(t, err)
	mismatch, err := a.IssueToken("alias@example.com", time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":          "not-a-jwt",
		"expired":          expiredToken,
		"wrong key":        wrongKey,
		"no expiry":        noExpiry,
		"wrong algorithm":  hs512,
		"unknown user":     unknown,
		"subject mismatch": mismatch,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			hs := a.Authenticate(context.Background(), newRequest("/ws?token="+token))
			assert.Equal(t, Rejected, hs.State)
			assert.Equal(t, ReasonInvalidCredential, hs.Reason)
			assert.Error(t, hs.Err)
		})
	}
}

func TestHandshakeLeavesPendingOnce(t *testing.T) {
	hs := &Handshake{}
	require.NoError(t, hs.accept(models.UserProfile{ID: 1}))
	assert.ErrorIs(t, hs.reject(ReasonInvalidCredential, nil), ErrAlreadyFinalized)
	assert.Equal(t, Authenticated, hs.State)
	assert.Equal(t, "authenticated", hs.State.String())
}

func TestExtractTokenPrefersQuery(t *testing.T) {
	req := newRequest("/ws?token=from-query")
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-query", ExtractToken(req))

	req = newRequest("/ws")
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))
}
