package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// Services are the domain services the router exposes
type Services struct {
	Posts    posts.Service
	Comments comments.Service
	Votes    votes.Service
}

// Options configures the router
type Options struct {
	Logger         *zap.SugaredLogger
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// RequestTimeout bounds handler execution; zero disables it
	RequestTimeout time.Duration
	// AccessLog enables chi's request logger
	AccessLog bool
}

// NewRouter assembles middleware and every API route
func NewRouter(svc Services, opts Options) (http.Handler, error) {
	if svc.Posts == nil || svc.Comments == nil || svc.Votes == nil {
		return nil, errors.New("routes: posts, comments and votes services are required")
	}
	if len(opts.JWTSecret) == 0 {
		return nil, errors.New("routes: jwt secret is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if opts.AccessLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(opts.AllowedOrigins))
	}
	if opts.RateLimitRPS > 0 {
		limiter, err := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
		if err != nil {
			return nil, fmt.Errorf("routes: %w", err)
		}
		r.Use(limiter.Middleware)
	}

	auth := middleware.NewJWTAuthMiddleware(opts.JWTSecret, logger)
	RegisterPostRoutes(r, svc.Posts, auth, logger)
	RegisterCommentRoutes(r, svc.Comments, auth, logger)
	RegisterVoteRoutes(r, svc.Votes, auth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r, nil
}

// corsMiddleware allows browser clients from the configured origins
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
