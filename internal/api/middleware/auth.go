package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys for storing user information
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserNameKey  contextKey = "user_name"
	JWTClaimsKey contextKey = "jwt_claims"
)

const tokenIssuer = "pixboard"

// Claims is the payload of a Pixboard bearer token
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware verifies HS256 bearer tokens signed with the server secret
type JWTAuthMiddleware struct {
	logger *zap.SugaredLogger
	parser *jwt.Parser
	secret []byte
}

// NewJWTAuthMiddleware creates the auth middleware
func NewJWTAuthMiddleware(secret []byte, logger *zap.SugaredLogger) *JWTAuthMiddleware {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &JWTAuthMiddleware{
		secret: secret,
		logger: logger,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// IssueToken mints a token for userID valid for ttl
func IssueToken(secret []byte, userID, name string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTAuthMiddleware) verify(token string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UserNameKey, claims.Name)
	return context.WithValue(ctx, JWTClaimsKey, claims)
}

// RequireAuth rejects requests without a valid bearer token with 401
func (m *JWTAuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := m.verify(token)
		if err != nil {
			m.logger.Infow("authentication failed",
				"ip", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err)
			writeAuthError(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth loads the user when a valid token is present and continues anonymously otherwise
func (m *JWTAuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.verify(token)
		if err != nil {
			m.logger.Debugw("optional auth ignored invalid token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// GetUserID returns the authenticated user's ID, or "" for anonymous requests
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

// GetUserName returns the authenticated user's display name
func GetUserName(r *http.Request) string {
	name, _ := r.Context().Value(UserNameKey).(string)
	return name
}

// GetJWTClaims returns the verified claims, or nil for anonymous requests
func GetJWTClaims(r *http.Request) *Claims {
	claims, _ := r.Context().Value(JWTClaimsKey).(*Claims)
	return claims
}

// SetTestUser injects a user into ctx; for handler tests only
func SetTestUser(ctx context.Context, userID, name string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserNameKey, name)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", message)
}

func writeJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	})
}
