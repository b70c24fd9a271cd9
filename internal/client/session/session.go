// Package session answers "who is the caller" for the client stack.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a bearer token cannot be decoded or has no subject
var ErrInvalidToken = errors.New("invalid session token")

// Authenticator reports whether the caller is signed in and who they are
type Authenticator interface {
	IsAuthenticated() bool
	CurrentUserID() string
}

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty string means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// Session is both an Authenticator and a TokenSource
type Session interface {
	Authenticator
	TokenSource
}

// Claims is the JWT payload issued by the Pixboard server
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenSession is a signed-in session backed by a bearer JWT.
// The token is decoded but not verified; the server verifies it on every request.
type TokenSession struct {
	expiresAt time.Time
	now       func() time.Time
	raw       string
	userID    string
	userName  string
	mu        sync.RWMutex
}

// NewTokenSession decodes raw and returns a session for its subject
func NewTokenSession(raw string) (*TokenSession, error) {
	s := &TokenSession{now: time.Now}
	if err := s.SetToken(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// SetToken replaces the session's token, e.g. after a refresh
func (s *TokenSession) SetToken(raw string) error {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.userID = claims.Subject
	s.userName = claims.Name
	s.expiresAt = time.Time{}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	return nil
}

// IsAuthenticated is true while the token is present and unexpired
func (s *TokenSession) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.raw == "" {
		return false
	}
	return s.expiresAt.IsZero() || s.now().Before(s.expiresAt)
}

// CurrentUserID returns the token subject, or "" once the token has expired
func (s *TokenSession) CurrentUserID() string {
	if !s.IsAuthenticated() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// UserName returns the display name carried in the token
func (s *TokenSession) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// Token returns the raw bearer token, or "" once it has expired
func (s *TokenSession) Token() string {
	if !s.IsAuthenticated() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// SignOut clears the token
func (s *TokenSession) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = ""
	s.userID = ""
	s.userName = ""
	s.expiresAt = time.Time{}
}

type anonymous struct{}

func (anonymous) IsAuthenticated() bool { return false }
func (anonymous) CurrentUserID() string { return "" }
func (anonymous) Token() string         { return "" }

// Anonymous is the signed-out session
var Anonymous Session = anonymous{}
