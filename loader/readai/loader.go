// Package readai loads meeting data from the Read.AI notetaker. Only
// the account's email and password are needed; the loader logs in the
// way the web app does and reads the session, transcript and post-call
// endpoints.
//
// Every meeting yields four records sharing the meeting's metadata and
// distinguished by the text_type key: summary, key_questions,
// action_items and transcript. Splitting a meeting this way keeps each
// record close to what an embedding model can take in one pass, though
// layering a large-window chunker on top is still advisable for long
// transcripts.
package readai

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/acsdev/ragloader/internal/pkg/httpclient"
	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "readai"

// Config describes one Read.AI account source
type Config struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`

	// Policy controls whether a meeting that fails to compile aborts
	// the whole-account Load or is skipped with a warning
	Policy loader.Policy `mapstructure:"policy"`

	// Timeout bounds each API request
	Timeout time.Duration `mapstructure:"timeout"`

	// BaseURL overrides the Read.AI endpoint, for tests
	BaseURL string `mapstructure:"base_url"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Email == "" || c.Password == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	return nil
}

// Loader loads Read.AI meetings
type Loader struct {
	cfg    Config
	log    *logger.Logger
	client *client
}

// New creates a Read.AI loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	httpClient := httpclient.New(&httpclient.Config{Timeout: cfg.Timeout})

	return &Loader{
		cfg:    cfg,
		log:    log.Named(loaderName),
		client: newClient(httpClient, cfg.BaseURL),
	}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// ensureAuth logs in on first use; the token is kept for the loader's
// lifetime
func (l *Loader) ensureAuth(ctx context.Context) error {
	if l.client.accessToken != "" {
		return nil
	}
	if err := l.client.authenticate(ctx, l.cfg.Email, l.cfg.Password); err != nil {
		return loader.NewSourceError(loaderName, l.client.baseURL, err)
	}
	return nil
}

// ListSessions returns the ids of all meetings on the account
func (l *Loader) ListSessions(ctx context.Context) ([]string, error) {
	if err := l.ensureAuth(ctx); err != nil {
		return nil, err
	}

	ids, err := l.client.listSessionIDs(ctx)
	if err != nil {
		return nil, l.sourceError("list sessions", err)
	}
	return ids, nil
}

// LoadSession loads one meeting and returns its four records: summary,
// key questions, action items and transcript, in that order.
func (l *Loader) LoadSession(ctx context.Context, sessionID string) ([]loader.Record, error) {
	if err := l.ensureAuth(ctx); err != nil {
		return nil, err
	}

	session, err := l.client.session(ctx, sessionID)
	if err != nil {
		return nil, l.sourceError(sessionID, err)
	}
	transcript, err := l.client.transcript(ctx, sessionID)
	if err != nil {
		return nil, l.sourceError(sessionID, err)
	}
	postCall, err := l.client.postCall(ctx, sessionID)
	if err != nil {
		return nil, l.sourceError(sessionID, err)
	}

	base := compileMetadata(session)
	base["speakers"] = compileParticipants(postCall)

	return []loader.Record{
		{Text: compileSummary(transcript), Metadata: withTextType(base, "summary")},
		{Text: compileItems(transcript, "keyQuestions"), Metadata: withTextType(base, "key_questions")},
		{Text: compileItems(transcript, "actionItems"), Metadata: withTextType(base, "action_items")},
		{Text: compileTranscript(transcript), Metadata: withTextType(base, "transcript")},
	}, nil
}

// Load loads every meeting on the account, in session listing order
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	ids, err := l.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]loader.Record, 0, len(ids)*4)
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		sessionRecords, err := l.LoadSession(ctx, id)
		if err != nil {
			if l.cfg.Policy == loader.SkipOnError && !authFailed(err) {
				l.log.Warn("skipping session",
					zap.String("session_id", id),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		records = append(records, sessionRecords...)
	}

	l.log.Info("meetings loaded",
		zap.Int("sessions", len(ids)),
		zap.Int("records", len(records)))

	return records, nil
}

// authFailed reports an authorization failure, which always aborts
func authFailed(err error) bool {
	return errors.Is(err, loader.ErrUnauthorized)
}

// withTextType copies the shared metadata and tags it with the record's
// text type. Each record owns its map; mutating one must not leak into
// its siblings.
func withTextType(base map[string]any, textType string) map[string]any {
	metadata := make(map[string]any, len(base)+1)
	for k, v := range base {
		metadata[k] = v
	}
	metadata["text_type"] = textType
	return metadata
}

// sourceError maps API failures onto the loader error taxonomy
func (l *Loader) sourceError(item string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsUnauthorized():
			return loader.NewSourceError(loaderName, item, loader.ErrUnauthorized)
		case statusErr.IsNotFound():
			return loader.NewSourceError(loaderName, item, loader.ErrSourceNotFound)
		}
	}
	return loader.NewSourceError(loaderName, item, err)
}
