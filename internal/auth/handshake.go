package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"messaging-service/internal/models"
)

// State is the position of one connection attempt in the handshake.
type State int

const (
	Pending State = iota
	Authenticated
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

const (
	ReasonMissingCredential = "missing credential"
	ReasonInvalidCredential = "invalid credential"
)

var (
	ErrMissingToken     = errors.New("no token in query or authorization header")
	ErrSubjectMismatch  = errors.New("token subject does not match principal")
	ErrAlreadyFinalized = errors.New("handshake already finalized")
)

// Handshake records the outcome of authenticating one connection attempt.
// It leaves Pending exactly once.
type Handshake struct {
	State     State
	Reason    string
	Principal models.UserProfile
	Err       error
}

func (h *Handshake) accept(principal models.UserProfile) error {
	if h.State != Pending {
		return ErrAlreadyFinalized
	}
	h.State = Authenticated
	h.Principal = principal
	return nil
}

func (h *Handshake) reject(reason string, err error) error {
	if h.State != Pending {
		return ErrAlreadyFinalized
	}
	h.State = Rejected
	h.Reason = reason
	h.Err = err
	return nil
}

// PrincipalResolver looks a token subject up in the user directory.
type PrincipalResolver interface {
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error)
}

// Authenticator validates HS256 bearer tokens whose subject is the user's email.
type Authenticator struct {
	secret []byte
	users  PrincipalResolver
	now    func() time.Time
}

func NewAuthenticator(secret string, users PrincipalResolver) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users, now: time.Now}
}

// Authenticate runs the handshake for r. The result is never Pending.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) *Handshake {
	hs := &Handshake{State: Pending}

	token := ExtractToken(r)
	if token == "" {
		_ = hs.reject(ReasonMissingCredential, ErrMissingToken)
		return hs
	}

	principal, err := a.Verify(ctx, token)
	if err != nil {
		_ = hs.reject(ReasonInvalidCredential, err)
		return hs
	}
	_ = hs.accept(principal)
	return hs
}

// Verify decodes token, resolves its subject and checks that both agree.
func (a *Authenticator) Verify(ctx context.Context, token string) (models.UserProfile, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	if !parsed.Valid {
		return models.UserProfile{}, errors.New("token is not valid")
	}
	if claims.ExpiresAt == nil || !claims.VerifyExpiresAt(a.now(), true) {
		return models.UserProfile{}, errors.New("token has no expiry or is expired")
	}
	if claims.Subject == "" {
		return models.UserProfile{}, errors.New("token has no subject")
	}

	principal, err := a.users.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !strings.EqualFold(principal.Email, claims.Subject) {
		return models.UserProfile{}, ErrSubjectMismatch
	}
	return principal, nil
}

// IssueToken signs a token for subject. Used by the development token route and tests.
func (a *Authenticator) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ExtractToken reads the token query parameter first, then a Bearer
// Authorization header.
func ExtractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
