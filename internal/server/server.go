package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/mailpulse/internal/app"
	"github.com/pscheid92/mailpulse/internal/config"
	"github.com/pscheid92/mailpulse/internal/domain"
	apperrors "github.com/pscheid92/mailpulse/internal/errors"
)

const sessionMaxAgeDays = 7

// tokenService is the slice of app.Service the handlers need.
type tokenService interface {
	ConnectMailbox(ctx context.Context, userID uuid.UUID, provider, email, accessToken, refreshToken string) (*domain.MailboxAccount, error)
	Accounts(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error)
}

// tokenMigrator runs the one-time re-encryption of legacy tokens.
type tokenMigrator interface {
	Run(ctx context.Context) (app.MigrationResult, error)
}

type Server struct {
	echo                *echo.Echo
	config              *config.Config
	tokens              tokenService
	migrator            tokenMigrator
	oauthClient         googleOAuthClient
	sessionStore        *sessions.CookieStore
	postgresHealthCheck postgresHealthChecker
	redisHealthCheck    redisHealthChecker
	startTime           time.Time
}

func NewServer(cfg *config.Config, tokens tokenService, migrator tokenMigrator, db *pgxpool.Pool, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:                e,
		config:              cfg,
		tokens:              tokens,
		migrator:            migrator,
		oauthClient:         newGoogleOAuthClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
		sessionStore:        sessionStore,
		postgresHealthCheck: db,
		redisHealthCheck:    redisClient,
		startTime:           time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
