package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/mailpulse/internal/app"
	"github.com/pscheid92/mailpulse/internal/config"
	"github.com/pscheid92/mailpulse/internal/crypto"
	"github.com/pscheid92/mailpulse/internal/database"
	"github.com/pscheid92/mailpulse/internal/logging"
	"github.com/pscheid92/mailpulse/internal/redis"
	"github.com/pscheid92/mailpulse/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if !crypto.Supported() {
		slog.Error("Required cryptographic primitives unavailable")
		os.Exit(1)
	}

	db := setupDB(cfg)
	defer db.Close()

	redisClient := setupRedis(cfg)
	defer redisClient.Close()

	accounts := database.NewAccountRepo(db)
	secrets := redis.NewSecretStore(redisClient)
	sessions := server.SessionProvider{}
	cipher := crypto.NewTokenCipher(sessions)

	tokens := app.NewService(accounts, cipher)
	migrator := app.NewTokenMigrator(accounts, secrets, sessions, cipher, clock)

	srv := server.NewServer(cfg, tokens, migrator, db, redisClient)
	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
