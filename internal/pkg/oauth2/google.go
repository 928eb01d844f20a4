package oauth2

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleTokenProvider hands out valid Google access tokens. Expired
// tokens are refreshed through the refresh token and the result is
// written back to the store.
type GoogleTokenProvider struct {
	config       *Config
	oauth2Config *oauth2.Config
	tokenStore   TokenStore

	mu           sync.Mutex
	currentToken *oauth2.Token
}

// NewGoogleTokenProvider creates a token provider for the Google OAuth2
// endpoint
func NewGoogleTokenProvider(cfg *Config, store TokenStore) (*GoogleTokenProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("oauth2 config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       cfg.Scopes,
		RedirectURL:  cfg.RedirectURL,
	}

	return &GoogleTokenProvider{
		config:       cfg,
		oauth2Config: oauth2Config,
		tokenStore:   store,
	}, nil
}

// GetAccessToken returns a valid access token, refreshing and
// persisting it when the stored one has expired. Returns ErrNoToken
// when the authorization flow has never been completed.
func (p *GoogleTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentToken == nil {
		token, err := p.tokenStore.LoadToken(ctx)
		if err != nil {
			return "", err
		}
		p.currentToken = token
	}

	if p.currentToken.Valid() {
		return p.currentToken.AccessToken, nil
	}

	// TokenSource refreshes via the refresh token when needed
	newToken, err := p.oauth2Config.TokenSource(ctx, p.currentToken).Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	if newToken.AccessToken != p.currentToken.AccessToken {
		if err := p.tokenStore.SaveToken(ctx, newToken); err != nil {
			return "", fmt.Errorf("save refreshed token: %w", err)
		}
	}
	p.currentToken = newToken

	return newToken.AccessToken, nil
}

// AuthURL generates the authorization URL for the initial consent flow.
// The returned state must be verified against the callback.
func (p *GoogleTokenProvider) AuthURL() (url, state string) {
	state = uuid.NewString()
	url = p.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline, // refresh token required for unattended loads
		oauth2.ApprovalForce,
	)
	return url, state
}

// Exchange trades an authorization code for a token and persists it
func (p *GoogleTokenProvider) Exchange(ctx context.Context, code string) error {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	if err := p.tokenStore.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	p.mu.Lock()
	p.currentToken = token
	p.mu.Unlock()

	return nil
}
