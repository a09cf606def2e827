package server

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/mailpulse/internal/crypto"
	"github.com/pscheid92/mailpulse/internal/domain"
	apperrors "github.com/pscheid92/mailpulse/internal/errors"
	"github.com/pscheid92/mailpulse/internal/logging"
)

// accountResponse is the API view of a mailbox account. Encrypted token
// material never leaves the server; only presence is reported.
type accountResponse struct {
	ID              string `json:"id"`
	Provider        string `json:"provider"`
	Email           string `json:"email"`
	Active          bool   `json:"active"`
	HasAccessToken  bool   `json:"has_access_token"`
	HasRefreshToken bool   `json:"has_refresh_token"`
}

func (s *Server) handleListAccounts(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	accounts, err := s.tokens.Accounts(c.Request().Context(), userID)
	if err != nil {
		return apperrors.InternalError("failed to list accounts", err).WithField("user_id", userID.String())
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountResponse{
			ID:              account.ID.String(),
			Provider:        account.Provider,
			Email:           account.Email,
			Active:          account.Active,
			HasAccessToken:  account.AccessToken != nil,
			HasRefreshToken: account.RefreshToken != nil,
		})
	}

	if err := c.JSON(200, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMigrateTokens(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	result, err := s.migrator.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return apperrors.UnauthorizedError("session expired, please sign in again")
		}
		return apperrors.InternalError("token migration failed", err).WithField("user_id", userID.String())
	}

	logging.WithUser(userID.String()).Info("Token migration triggered",
		"migrated", result.MigratedCount,
		"corrupted", result.CorruptedCount)

	if err := c.JSON(200, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCryptoSupported(c echo.Context) error {
	if err := c.JSON(200, map[string]bool{"supported": crypto.Supported()}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
