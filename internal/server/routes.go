package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root - everything interesting requires a signed-in user
	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(302, "/auth/login")
	})

	// Auth routes
	s.echo.GET("/auth/login", s.handleLogin)
	s.echo.GET("/auth/callback", s.handleOAuthCallback)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth)

	// API routes (authenticated)
	s.echo.GET("/api/accounts", s.handleListAccounts, s.requireAuth)
	s.echo.POST("/api/tokens/migrate", s.handleMigrateTokens, s.requireAuth)
	s.echo.GET("/api/crypto/supported", s.handleCryptoSupported)
}
