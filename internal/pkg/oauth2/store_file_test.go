package oauth2

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileTokenStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	// Missing file maps to ErrNoToken
	_, err = store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, store.SaveToken(ctx, token))

	loaded, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, loaded.Valid())
}

func TestFileTokenStore_EmptyPath(t *testing.T) {
	_, err := NewFileTokenStore("")
	assert.Error(t, err)
}

func TestFileTokenStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileTokenStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err = store.LoadToken(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestNewGoogleTokenProvider_Validation(t *testing.T) {
	store, err := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	_, err = NewGoogleTokenProvider(nil, store)
	assert.Error(t, err)

	_, err = NewGoogleTokenProvider(&Config{ClientID: "id"}, store)
	assert.Error(t, err)

	provider, err := NewGoogleTokenProvider(&Config{ClientID: "id", ClientSecret: "secret"}, store)
	require.NoError(t, err)

	url, state := provider.AuthURL()
	assert.NotEmpty(t, state)
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, state)
}

func TestGetAccessToken_NoToken(t *testing.T) {
	store, err := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	provider, err := NewGoogleTokenProvider(&Config{ClientID: "id", ClientSecret: "secret"}, store)
	require.NoError(t, err)

	_, err = provider.GetAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}
