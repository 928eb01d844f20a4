// Package oauth2 handles Google OAuth2 authorization for loaders that
// talk to Google APIs. Tokens are persisted through a TokenStore and
// refreshed automatically when expired.
package oauth2

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// Config holds the OAuth2 client settings
type Config struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Validate checks the required fields
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("client_id and client_secret are required")
	}
	return nil
}

// TokenStore persists OAuth2 tokens between runs
type TokenStore interface {
	// LoadToken returns the stored token, or ErrNoToken when none exists
	LoadToken(ctx context.Context) (*oauth2.Token, error)

	// SaveToken persists the token
	SaveToken(ctx context.Context, token *oauth2.Token) error
}

// ErrNoToken is returned by a TokenStore when no token has been
// persisted yet and the user has to complete the authorization flow.
var ErrNoToken = errors.New("no oauth2 token stored, authorization required")
