package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"Pixboard/internal/api/routes"
	"Pixboard/internal/config"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
	"Pixboard/internal/db/memory"
	"Pixboard/internal/db/migrations"
	postgresRepo "Pixboard/internal/db/postgres"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		panic(err)
	}
	base, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = base.Sync() }()
	logger := base.Sugar()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	var (
		postRepo    posts.Repository
		commentRepo comments.Repository
		voteRepo    votes.Repository
	)

	if cfg.Server.DatabaseURL == "" {
		logger.Warnw("DATABASE_URL not set, using in-memory storage")
		db := memory.NewDB()
		postRepo = memory.NewPostRepository(db)
		commentRepo = memory.NewCommentRepository(db)
		voteRepo = memory.NewVoteRepository(db)
	} else {
		db, err := sql.Open("postgres", cfg.Server.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(); err != nil {
			return err
		}
		logger.Infow("connected to database")

		if err := migrations.Up(db); err != nil {
			return err
		}
		logger.Infow("migrations completed")

		postRepo = postgresRepo.NewPostRepository(db)
		commentRepo = postgresRepo.NewCommentRepository(db)
		voteRepo = postgresRepo.NewVoteRepository(db)
	}

	handler, err := routes.NewRouter(routes.Services{
		Posts:    posts.NewPostService(postRepo, commentRepo, voteRepo, logger.Named("posts")),
		Comments: comments.NewService(commentRepo, postRepo, logger.Named("comments")),
		Votes:    votes.NewService(voteRepo, logger.Named("votes")),
	}, routes.Options{
		Logger:         logger.Named("http"),
		JWTSecret:      []byte(cfg.Server.JWTSecret),
		AllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		RequestTimeout: 30 * time.Second,
		AccessLog:      true,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("pixboard server starting", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
