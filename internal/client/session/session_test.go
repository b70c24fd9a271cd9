package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestNewTokenSession(t *testing.T) {
	raw := signed(t, Claims{
		Name: "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	s, err := NewTokenSession("Bearer " + raw)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "alice", s.CurrentUserID())
	assert.Equal(t, "Alice", s.UserName())
	assert.Equal(t, raw, s.Token())
}

func TestTokenSession_Expired(t *testing.T) {
	raw := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := NewTokenSession(raw)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.CurrentUserID())
	assert.Empty(t, s.Token())
}

func TestTokenSession_Invalid(t *testing.T) {
	_, err := NewTokenSession("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenSession("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject := signed(t, Claims{Name: "nobody"})
	_, err = NewTokenSession(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSession_SignOut(t *testing.T) {
	s, err := NewTokenSession(signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}}))
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated())

	s.SignOut()
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
}

func TestAnonymous(t *testing.T) {
	assert.False(t, Anonymous.IsAuthenticated())
	assert.Empty(t, Anonymous.CurrentUserID())
	assert.Empty(t, Anonymous.Token())
}
