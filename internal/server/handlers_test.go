package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/mailpulse/internal/app"
	"github.com/pscheid92/mailpulse/internal/config"
	"github.com/pscheid92/mailpulse/internal/domain"
	apperrors "github.com/pscheid92/mailpulse/internal/errors"
)

// --- Mock implementations ---

type mockTokenService struct {
	connectMailboxFn func(ctx context.Context, userID uuid.UUID, provider, email, accessToken, refreshToken string) (*domain.MailboxAccount, error)
	accountsFn       func(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error)
}

func (m *mockTokenService) ConnectMailbox(ctx context.Context, userID uuid.UUID, provider, email, accessToken, refreshToken string) (*domain.MailboxAccount, error) {
	if m.connectMailboxFn != nil {
		return m.connectMailboxFn(ctx, userID, provider, email, accessToken, refreshToken)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockTokenService) Accounts(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	if m.accountsFn != nil {
		return m.accountsFn(ctx, userID)
	}
	return nil, nil
}

type mockMigrator struct {
	runFn func(ctx context.Context) (app.MigrationResult, error)
}

func (m *mockMigrator) Run(ctx context.Context) (app.MigrationResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return app.MigrationResult{}, nil
}

type mockOAuthClient struct {
	result *googleTokenResult
	err    error
}

func (m *mockOAuthClient) ExchangeCode(_ context.Context, _ string) (*googleTokenResult, error) {
	return m.result, m.err
}

// --- Test helpers ---

func newTestServer(t *testing.T, tokens tokenService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo: e,
		config: &config.Config{
			GoogleClientID:    "test-client-id",
			GoogleRedirectURI: "http://localhost/auth/callback",
		},
		tokens:       tokens,
		migrator:     &mockMigrator{},
		sessionStore: store,
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()
	return srv
}

func withOAuthClient(oauth googleOAuthClient) func(*Server) {
	return func(s *Server) {
		s.oauthClient = oauth
	}
}

func withMigrator(m tokenMigrator) func(*Server) {
	return func(s *Server) {
		s.migrator = m
	}
}

func withPostgresHealthCheck(pg postgresHealthChecker) func(*Server) {
	return func(s *Server) {
		s.postgresHealthCheck = pg
	}
}

func withRedisHealthCheck(redis redisHealthChecker) func(*Server) {
	return func(s *Server) {
		s.redisHealthCheck = redis
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

// signIn saves a valid session into a throwaway response and copies the
// resulting cookie onto the request, simulating a signed-in browser.
func signIn(t *testing.T, srv *Server, req *http.Request, sess *domain.Session) {
	t.Helper()

	rec := httptest.NewRecorder()
	cookieSess, err := srv.sessionStore.New(req, sessionName)
	require.NoError(t, err)
	cookieSess.Values[sessionKeyUserID] = sess.UserID.String()
	cookieSess.Values[sessionKeyEmail] = sess.Email
	cookieSess.Values[sessionKeyToken] = sess.Token
	require.NoError(t, cookieSess.Save(req, rec))

	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
}
