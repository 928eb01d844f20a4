// Package gmail loads email from a Gmail account through the Gmail
// REST API. Access uses OAuth2 with the gmail.readonly scope; the
// client credentials come from a Google Cloud client secret JSON and
// the granted token is persisted to a token file and refreshed
// automatically on later runs.
//
// A load retrieves every message matching a Gmail search query
// (https://support.google.com/mail/answer/7190), extracts the first
// text/plain body, strips link markup and HTML artefacts, and yields
// one record per email. Messages that fail to download or parse are
// skipped, logged, and reported through Failures.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acsdev/ragloader/internal/pkg/httpclient"
	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/internal/pkg/oauth2"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "gmail"

const readonlyScope = "https://www.googleapis.com/auth/gmail.readonly"

// Config describes one Gmail account source
type Config struct {
	// CredentialsPath points at the OAuth client secret JSON from the
	// Google Cloud console. Alternatively ClientID/ClientSecret can be
	// set directly.
	CredentialsPath string `mapstructure:"credentials_path"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`

	// TokenPath is where the granted OAuth token is persisted
	// (conventionally token.json). Required.
	TokenPath string `mapstructure:"token_path"`

	// Query is the Gmail search query selecting the messages to load.
	// Empty loads the whole mailbox.
	Query string `mapstructure:"query"`

	// Timeout bounds each API request
	Timeout time.Duration `mapstructure:"timeout"`

	// BaseURL overrides the Gmail API endpoint, for tests
	BaseURL string `mapstructure:"base_url"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.CredentialsPath == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	if c.TokenPath == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	return nil
}

// Failure records one message that could not be loaded
type Failure struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Loader loads Gmail messages. Per-message failures are skipped (the
// rest of the mailbox still loads); authorization and listing failures
// abort the load.
type Loader struct {
	cfg      Config
	log      *logger.Logger
	client   *apiClient
	failures []Failure
}

// New creates a Gmail loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	oauthCfg, err := buildOAuthConfig(&cfg)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, cfg.CredentialsPath, err)
	}

	store, err := oauth2.NewFileTokenStore(cfg.TokenPath)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, cfg.TokenPath, err)
	}

	tokens, err := oauth2.NewGoogleTokenProvider(oauthCfg, store)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, "", err)
	}

	httpClient := httpclient.New(&httpclient.Config{Timeout: cfg.Timeout})

	return &Loader{
		cfg:    cfg,
		log:    log.Named(loaderName),
		client: newAPIClient(httpClient, tokens, cfg.BaseURL),
	}, nil
}

// newWithTokenSource wires a prebuilt token source, used by tests
func newWithTokenSource(cfg Config, log *logger.Logger, tokens tokenSource) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	httpClient := httpclient.New(&httpclient.Config{Timeout: cfg.Timeout})
	return &Loader{
		cfg:    cfg,
		log:    log.Named(loaderName),
		client: newAPIClient(httpClient, tokens, cfg.BaseURL),
	}
}

func buildOAuthConfig(cfg *Config) (*oauth2.Config, error) {
	if cfg.CredentialsPath != "" {
		return oauth2.ConfigFromCredentialsFile(cfg.CredentialsPath, []string{readonlyScope})
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{readonlyScope},
	}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Failures returns the messages skipped during the most recent Load
func (l *Loader) Failures() []Failure {
	return l.failures
}

// Load retrieves all messages matching the configured query and
// returns one record per email, in listing order. Listing can take a
// while on large mailboxes; the context bounds the whole run.
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	l.failures = nil

	ids, err := l.client.listMessages(ctx, l.cfg.Query)
	if err != nil {
		return nil, l.sourceError("list messages", err)
	}
	if len(ids) == 0 {
		l.log.Info("no messages matched query", zap.String("query", l.cfg.Query))
		return []loader.Record{}, nil
	}

	l.log.Info("starting message download",
		zap.String("query", l.cfg.Query),
		zap.Int("total", len(ids)))

	records := make([]loader.Record, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		record, err := l.messageRecord(ctx, id)
		if err != nil {
			l.failures = append(l.failures, Failure{MessageID: id, Error: err.Error()})
			l.log.Warn("skipping message",
				zap.String("message_id", id),
				zap.Error(err))
			continue
		}
		records = append(records, *record)
	}

	l.log.Info("message download complete",
		zap.Int("loaded", len(records)),
		zap.Int("failed", len(l.failures)))

	return records, nil
}

// messageRecord fetches one message and converts it into a record
func (l *Loader) messageRecord(ctx context.Context, id string) (*loader.Record, error) {
	msg, err := l.client.getRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	// Gmail returns base64url, padding optional
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(msg.Raw, "="))
	if err != nil {
		return nil, loader.NewContentError(loaderName, id, fmt.Errorf("decode raw message: %w", err))
	}

	parsed, err := parseMIME(raw)
	if err != nil {
		return nil, loader.NewContentError(loaderName, id, err)
	}

	return &loader.Record{
		Text: cleanText(parsed.Body),
		Metadata: map[string]any{
			"source":       "emails",
			"subject":      decodeHeader(parsed.Headers.Get("Subject")),
			"date":         parsed.Headers.Get("Date"),
			"from":         decodeHeader(parsed.Headers.Get("From")),
			"to":           decodeHeader(parsed.Headers.Get("To")),
			"cc":           decodeHeader(parsed.Headers.Get("Cc")),
			"bcc":          decodeHeader(parsed.Headers.Get("Bcc")),
			"unix_time":    msg.InternalDate / 1000,
			"message_id":   id,
			"url":          "https://mail.google.com/mail/u/0/?ogbl#inbox/" + id,
			"content_type": parsed.ContentType,
		},
	}, nil
}

// sourceError maps API failures onto the loader error taxonomy
func (l *Loader) sourceError(op string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsUnauthorized():
			return loader.NewSourceError(loaderName, op, fmt.Errorf("%w: %v", loader.ErrUnauthorized, err))
		case statusErr.IsNotFound():
			return loader.NewSourceError(loaderName, op, fmt.Errorf("%w: %v", loader.ErrSourceNotFound, err))
		}
	}
	if errors.Is(err, oauth2.ErrNoToken) {
		return loader.NewSourceError(loaderName, op, fmt.Errorf("%w: %v", loader.ErrUnauthorized, err))
	}
	return loader.NewSourceError(loaderName, op, err)
}
