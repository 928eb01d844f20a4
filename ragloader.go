// Package ragloader normalizes heterogeneous data sources into ordered
// lists of text records for retrieval pipelines. Each source type has
// its own loader package; this package ties them to the unified
// configuration.
package ragloader

import (
	"fmt"

	"github.com/acsdev/ragloader/config"
	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
	"github.com/acsdev/ragloader/loader/database"
	"github.com/acsdev/ragloader/loader/file"
	"github.com/acsdev/ragloader/loader/gchat"
	"github.com/acsdev/ragloader/loader/gmail"
	"github.com/acsdev/ragloader/loader/objectstore"
	"github.com/acsdev/ragloader/loader/readai"
	"github.com/acsdev/ragloader/loader/web"
)

// SourceType identifies a supported data source
type SourceType string

const (
	SourceGChat       SourceType = "gchat"
	SourceGmail       SourceType = "gmail"
	SourceReadAI      SourceType = "readai"
	SourceFile        SourceType = "file"
	SourceWeb         SourceType = "web"
	SourceDatabase    SourceType = "database"
	SourceObjectStore SourceType = "objectstore"
)

// SupportedSources returns all source types New accepts
func SupportedSources() []SourceType {
	return []SourceType{
		SourceGChat,
		SourceGmail,
		SourceReadAI,
		SourceFile,
		SourceWeb,
		SourceDatabase,
		SourceObjectStore,
	}
}

// New constructs the loader for source from its section of cfg. A nil
// log disables logging.
func New(source SourceType, cfg *config.Config, log *logger.Logger) (loader.Loader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	switch source {
	case SourceGChat:
		return gchat.New(cfg.GChat, log)
	case SourceGmail:
		return gmail.New(cfg.Gmail, log)
	case SourceReadAI:
		return readai.New(cfg.ReadAI, log)
	case SourceFile:
		return file.New(cfg.File, log)
	case SourceWeb:
		return web.New(cfg.Web, log)
	case SourceDatabase:
		return database.New(cfg.Database, log)
	case SourceObjectStore:
		return objectstore.New(cfg.ObjectStore, log)
	default:
		return nil, fmt.Errorf("unsupported source type %q, supported: %v", source, SupportedSources())
	}
}

// NewLogger builds the shared logger from the config's log section
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg == nil {
		return logger.NewNop(), nil
	}
	return logger.New(&cfg.Log)
}
