package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultMaxClients = 10000

// RateLimiter applies a token bucket per client IP.
// Buckets live in a bounded LRU so idle clients are evicted without a sweeper goroutine.
type RateLimiter struct {
	clients *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows rps requests per second per client with the given burst
func NewRateLimiter(rps float64, burst int) (*RateLimiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("invalid rate limit: rps=%v burst=%d", rps, burst)
	}
	cache, err := lru.New[string, *rate.Limiter](defaultMaxClients)
	if err != nil {
		return nil, fmt.Errorf("failed to create client cache: %w", err)
	}
	return &RateLimiter{
		clients: cache,
		limit:   rate.Limit(rps),
		burst:   burst,
	}, nil
}

// Middleware returns a rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(getClientIP(r)).Allow() {
			writeJSONError(w, http.StatusTooManyRequests, "RateLimitExceeded", "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(clientID string) *rate.Limiter {
	if l, ok := rl.clients.Get(clientID); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	// a concurrent first request may have won the race; use its bucket
	if prev, ok, _ := rl.clients.PeekOrAdd(clientID, l); ok {
		return prev
	}
	return l
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// first hop of X-Forwarded-For when behind a proxy
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
