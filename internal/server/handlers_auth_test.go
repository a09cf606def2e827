package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/mailpulse/internal/domain"
)

// --- handleLogin tests ---

func TestHandleLogin_RedirectsToGoogle(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 302, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", location.Host)
	assert.Equal(t, "test-client-id", location.Query().Get("client_id"))
	assert.Equal(t, "offline", location.Query().Get("access_type"))
	assert.Contains(t, location.Query().Get("scope"), "gmail.readonly")
	assert.NotEmpty(t, location.Query().Get("state"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestHandleLogin_UniqueStatePerRequest(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	state := func() string {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		rec := httptest.NewRecorder()
		srv.echo.ServeHTTP(rec, req)
		location, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		return location.Query().Get("state")
	}

	assert.NotEqual(t, state(), state())
}

// --- handleOAuthCallback tests ---

// startLogin runs the login redirect and returns the state plus the cookies
// a browser would carry into the callback.
func startLogin(t *testing.T, srv *Server) (string, []*http.Cookie) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	require.Equal(t, 302, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query().Get("state"), rec.Result().Cookies()
}

func TestHandleOAuthCallback_MissingCode(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHandleOAuthCallback_StateMismatch(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})
	_, cookies := startLogin(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=forged", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OAuth state")
}

func TestHandleOAuthCallback_NoPriorLogin(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=whatever", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing OAuth state")
}

func TestHandleOAuthCallback_ExchangeFails(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{},
		withOAuthClient(&mockOAuthClient{err: errors.New("google unavailable")}))
	state, cookies := startLogin(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+state, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 500, rec.Code)
}

func TestHandleOAuthCallback_Success(t *testing.T) {
	var gotUserID uuid.UUID
	var gotEmail, gotAccess, gotRefresh string
	var gotSession *domain.Session

	tokens := &mockTokenService{
		connectMailboxFn: func(ctx context.Context, userID uuid.UUID, provider, email, accessToken, refreshToken string) (*domain.MailboxAccount, error) {
			gotUserID = userID
			gotEmail = email
			gotAccess = accessToken
			gotRefresh = refreshToken
			gotSession, _ = SessionProvider{}.Current(ctx)
			return &domain.MailboxAccount{ID: uuid.New()}, nil
		},
	}
	oauth := &mockOAuthClient{result: &googleTokenResult{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		Subject:      "google-subject-123",
		Email:        "alice@example.com",
	}}

	srv := newTestServer(t, tokens, withOAuthClient(oauth))
	state, cookies := startLogin(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+state, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/api/accounts", rec.Header().Get("Location"))

	assert.Equal(t, "alice@example.com", gotEmail)
	assert.Equal(t, "ya29.access", gotAccess)
	assert.Equal(t, "1//refresh", gotRefresh)

	// The internal ID is a stable function of the Google subject.
	expectedID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://accounts.google.com/google-subject-123"))
	assert.Equal(t, expectedID, gotUserID)

	// ConnectMailbox must see the freshly minted session so the tokens can
	// be encrypted under it.
	require.NotNil(t, gotSession)
	assert.Equal(t, expectedID, gotSession.UserID)
	assert.Equal(t, "alice@example.com", gotSession.Email)
	assert.NotEmpty(t, gotSession.Token)
}

func TestHandleOAuthCallback_SameSubjectSameUserID(t *testing.T) {
	var seen []uuid.UUID
	tokens := &mockTokenService{
		connectMailboxFn: func(_ context.Context, userID uuid.UUID, _, _, _, _ string) (*domain.MailboxAccount, error) {
			seen = append(seen, userID)
			return &domain.MailboxAccount{ID: uuid.New()}, nil
		},
	}
	oauth := &mockOAuthClient{result: &googleTokenResult{
		AccessToken: "ya29.access",
		Subject:     "google-subject-123",
		Email:       "alice@example.com",
	}}

	srv := newTestServer(t, tokens, withOAuthClient(oauth))

	for range 2 {
		state, cookies := startLogin(t, srv)
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+state, nil)
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		srv.echo.ServeHTTP(rec, req)
		require.Equal(t, 302, rec.Code)
	}

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

// --- handleLogout tests ---

func TestHandleLogout(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	signIn(t, srv, req, &domain.Session{UserID: uuid.New(), Email: "alice@example.com", Token: "tok"})
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestHandleLogout_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &mockTokenService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}
