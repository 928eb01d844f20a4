package oauth2

import (
	"encoding/json"
	"fmt"
	"os"
)

// credentialsFile is the client secret JSON downloaded from the Google
// Cloud console ("APIs & Services" > "Credentials" > OAuth client ID).
type credentialsFile struct {
	Installed *credentialsEntry `json:"installed"`
	Web       *credentialsEntry `json:"web"`
}

type credentialsEntry struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
}

// ConfigFromCredentialsFile builds a Config from a Google client secret
// JSON file. Both "installed" and "web" application types are accepted.
func ConfigFromCredentialsFile(path string, scopes []string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	entry := creds.Installed
	if entry == nil {
		entry = creds.Web
	}
	if entry == nil {
		return nil, fmt.Errorf("credentials file has neither installed nor web client")
	}

	cfg := &Config{
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		Scopes:       scopes,
	}
	if len(entry.RedirectURIs) > 0 {
		cfg.RedirectURL = entry.RedirectURIs[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
