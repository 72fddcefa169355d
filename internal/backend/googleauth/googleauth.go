// Package googleauth loads the OAuth client and stored token shared by the
// Google Tasks and Google Calendar backends.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"taskflow/internal/config"
	"taskflow/internal/service"
)

const (
	// TasksScope grants read/write access to Google Tasks.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	// CalendarScope grants access to calendars the app creates events in.
	CalendarScope = "https://www.googleapis.com/auth/calendar"
)

// Scopes returns the scopes requested at login.
func Scopes(cfg *config.Config) []string {
	if cfg.Settings.Calendar {
		return []string{TasksScope, CalendarScope}
	}
	return []string{TasksScope}
}

// OAuthConfig reads oauth_client.json from the config directory.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, service.NewNotConfigured("failed to read oauth_client.json", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scopes(cfg)...)
	if err != nil {
		return nil, service.NewNotConfigured("invalid oauth_client.json", err)
	}
	return oauthConfig, nil
}

// LoadToken reads token.json from the config directory.
func LoadToken(cfg *config.Config) (*oauth2.Token, error) {
	data, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, service.NewUnauthenticated(fmt.Errorf("failed to read token.json: %w", err))
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, service.NewUnauthenticated(fmt.Errorf("invalid token.json: %w", err))
	}
	return &token, nil
}

// SaveToken writes an OAuth token to token.json with mode 0600.
func SaveToken(cfg *config.Config, token *oauth2.Token) error {
	if err := cfg.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.TokenPath(), data, 0600)
}

// HTTPClient returns an HTTP client whose token source refreshes automatically.
func HTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token)), nil
}

// TokenValid reports whether the stored token can still produce an access token.
// Valid means parseable, carrying a refresh token, and accepted by the token endpoint.
func TokenValid(ctx context.Context, cfg *config.Config) bool {
	token, err := LoadToken(cfg)
	if err != nil || token.RefreshToken == "" {
		return false
	}
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return false
	}
	_, err = oauthConfig.TokenSource(ctx, token).Token()
	return err == nil
}
