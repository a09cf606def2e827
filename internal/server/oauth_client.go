package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	httpCallTimeout   = 10 * time.Second
)

// googleOAuthClient handles the Google OAuth code exchange and user info fetch.
type googleOAuthClient interface {
	ExchangeCode(ctx context.Context, code string) (*googleTokenResult, error)
}

// googleTokenResult holds the result of a Google OAuth token exchange + user info fetch.
type googleTokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Subject      string
	Email        string
}

// googleOAuthHTTPClient is the production implementation using Google HTTP APIs.
type googleOAuthHTTPClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

func newGoogleOAuthClient(clientID, clientSecret, redirectURI string) *googleOAuthHTTPClient {
	return &googleOAuthHTTPClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

func (c *googleOAuthHTTPClient) ExchangeCode(ctx context.Context, code string) (*googleTokenResult, error) {
	accessToken, refreshToken, expiresIn, err := c.exchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	subject, email, err := c.fetchUserinfo(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("user info fetch failed: %w", err)
	}

	return &googleTokenResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		Subject:      subject,
		Email:        email,
	}, nil
}

func (c *googleOAuthHTTPClient) exchangeCode(ctx context.Context, code string) (string, string, int, error) {
	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", c.redirectURI)

	req, err := http.NewRequestWithContext(ctx, "POST", googleTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", 0, fmt.Errorf("google returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResp.AccessToken, tokenResp.RefreshToken, tokenResp.ExpiresIn, nil
}

func (c *googleOAuthHTTPClient) fetchUserinfo(ctx context.Context, accessToken string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", googleUserinfoURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("google userinfo API returned status %d", resp.StatusCode)
	}

	var userResp struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return "", "", fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	if userResp.Sub == "" {
		return "", "", fmt.Errorf("no subject returned")
	}

	return userResp.Sub, userResp.Email, nil
}
