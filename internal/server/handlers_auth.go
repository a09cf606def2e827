package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/mailpulse/internal/domain"
)

const (
	sessionName          = "mailpulse_session"
	sessionKeyUserID     = "user_id"
	sessionKeyEmail      = "email"
	sessionKeyToken      = "session_token"
	sessionKeyOAuthState = "oauth_state"

	googleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	googleScopes  = "openid email https://www.googleapis.com/auth/gmail.readonly"

	oauthTimeout = 10 * time.Second
)

// requireAuth resolves the cookie session into a domain.Session and attaches
// it to the request context, where the token cipher's session provider picks
// it up per call.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.sessionFromCookie(c)
		if err != nil {
			return c.Redirect(302, "/auth/login")
		}

		c.Set("userID", sess.UserID)
		c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
		return next(c)
	}
}

func (s *Server) sessionFromCookie(c echo.Context) (*domain.Session, error) {
	cookieSess, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return nil, err
	}

	userIDStr, ok := cookieSess.Values[sessionKeyUserID].(string)
	if !ok {
		return nil, domain.ErrNoSession
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, domain.ErrNoSession
	}
	email, ok := cookieSess.Values[sessionKeyEmail].(string)
	if !ok || email == "" {
		return nil, domain.ErrNoSession
	}
	token, ok := cookieSess.Values[sessionKeyToken].(string)
	if !ok || token == "" {
		return nil, domain.ErrNoSession
	}

	return &domain.Session{UserID: userID, Email: email, Token: token}, nil
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) handleLogin(c echo.Context) error {
	state, err := generateOAuthState()
	if err != nil {
		slog.Error("Failed to generate OAuth state", "error", err)
		return c.String(500, "Internal error")
	}

	cookieSess, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session for OAuth state", "error", err)
	}
	cookieSess.Values[sessionKeyOAuthState] = state
	if err := cookieSess.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save OAuth state session", "error", err)
		return c.String(500, "Internal error")
	}

	authURL := fmt.Sprintf(
		"%s?client_id=%s&redirect_uri=%s&response_type=code&access_type=offline&prompt=consent&scope=%s&state=%s",
		googleAuthURL,
		url.QueryEscape(s.config.GoogleClientID),
		url.QueryEscape(s.config.GoogleRedirectURI),
		url.QueryEscape(googleScopes),
		url.QueryEscape(state),
	)

	return c.Redirect(302, authURL)
}

func (s *Server) handleOAuthCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.String(400, "Missing code parameter")
	}

	cookieSess, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return c.String(400, "Invalid session")
	}
	expectedState, ok := cookieSess.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return c.String(400, "Missing OAuth state")
	}
	if c.QueryParam("state") != expectedState {
		return c.String(400, "Invalid OAuth state")
	}
	delete(cookieSess.Values, sessionKeyOAuthState)

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	result, err := s.oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		slog.Error("Failed to exchange OAuth code", "error", err)
		return c.String(500, "Failed to authenticate with Google")
	}

	// Stable internal ID derived from the immutable Google subject.
	userID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://accounts.google.com/"+result.Subject))

	sessionToken, err := generateOAuthState()
	if err != nil {
		slog.Error("Failed to generate session token", "error", err)
		return c.String(500, "Internal error")
	}

	cookieSess.Values[sessionKeyUserID] = userID.String()
	cookieSess.Values[sessionKeyEmail] = result.Email
	cookieSess.Values[sessionKeyToken] = sessionToken
	if err := cookieSess.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save session", "error", err)
		return c.String(500, "Failed to save session")
	}

	// Token encryption needs the session in context; this request predates
	// the requireAuth middleware seeing the new cookie.
	sess := &domain.Session{UserID: userID, Email: result.Email, Token: sessionToken}
	_, err = s.tokens.ConnectMailbox(WithSession(ctx, sess), userID, "gmail", result.Email, result.AccessToken, result.RefreshToken)
	if err != nil {
		slog.Error("Failed to store mailbox tokens", "error", err, "user_id", userID)
		return c.String(500, "Failed to connect mailbox")
	}

	return c.Redirect(302, "/api/accounts")
}

func (s *Server) handleLogout(c echo.Context) error {
	cookieSess, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during logout", "error", err)
		cookieSess, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			slog.Error("Failed to create new session during logout", "error", err)
		}
	}
	cookieSess.Options.MaxAge = -1

	if err := cookieSess.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save logout session", "error", err)
		return c.String(500, "Failed to logout due to session error. Please try again or clear your browser cookies.")
	}

	return c.Redirect(302, "/auth/login")
}
