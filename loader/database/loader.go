// Package database loads rows from a SQL database. One column supplies
// the record text, every other selected column becomes metadata.
package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "database"

// Config describes one database source
type Config struct {
	// Driver selects the SQL dialect, currently only "postgres"
	Driver string `mapstructure:"driver"`

	DSN string `mapstructure:"dsn"`

	// Query is the SELECT statement producing the rows to load
	Query string `mapstructure:"query"`

	// TextColumn names the column holding the record text
	TextColumn string `mapstructure:"text_column"`

	// SourceTag overrides the "database" source metadata value
	SourceTag string `mapstructure:"source_tag"`
}

// Validate checks the configuration. Only read queries are accepted.
func (c *Config) Validate() error {
	if c.Driver != "postgres" {
		return loader.NewSourceError(loaderName, c.DSN,
			fmt.Errorf("%w: unsupported driver %q", loader.ErrInvalidConfig, c.Driver))
	}
	if c.DSN == "" {
		return loader.NewSourceError(loaderName, "",
			fmt.Errorf("%w: dsn is required", loader.ErrInvalidConfig))
	}
	if c.TextColumn == "" {
		return loader.NewSourceError(loaderName, c.DSN,
			fmt.Errorf("%w: text_column is required", loader.ErrInvalidConfig))
	}
	return validateQuery(c.Query, c.DSN)
}

// reWriteKeyword matches the statement keywords that modify data or
// schema, as standalone words. Postgres allows data-modifying CTEs, so
// a WITH prefix alone does not make a query read-only.
var reWriteKeyword = regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|MERGE|TRUNCATE|DROP|ALTER|CREATE|GRANT|REVOKE|COPY)\b`)

func validateQuery(query, dsn string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return loader.NewSourceError(loaderName, dsn,
			fmt.Errorf("%w: query is required", loader.ErrInvalidConfig))
	}
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return loader.NewSourceError(loaderName, dsn,
			fmt.Errorf("%w: multiple statements are not allowed", loader.ErrInvalidConfig))
	}
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return loader.NewSourceError(loaderName, dsn,
			fmt.Errorf("%w: only SELECT queries are allowed", loader.ErrInvalidConfig))
	}
	if kw := reWriteKeyword.FindString(upper); kw != "" {
		return loader.NewSourceError(loaderName, dsn,
			fmt.Errorf("%w: %s is not allowed in a read query", loader.ErrInvalidConfig, kw))
	}
	return nil
}

// Loader reads rows through a gorm connection
type Loader struct {
	cfg Config
	log *logger.Logger
	db  *gorm.DB
}

// New creates a database loader and opens the connection
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, loader.NewSourceError(loaderName, cfg.DSN,
			fmt.Errorf("%w: %v", loader.ErrSourceUnreachable, err))
	}

	return NewWithDB(cfg, log, db)
}

// NewWithDB creates a database loader on an existing gorm connection,
// for callers that manage their own pool
func NewWithDB(cfg Config, log *logger.Logger, db *gorm.DB) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{cfg: cfg, log: log.Named(loaderName), db: db}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Close releases the underlying connection pool
func (l *Loader) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load runs the query and returns one record per row, in row order.
// A row that cannot be scanned aborts the load.
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	rows, err := l.db.WithContext(ctx).Raw(l.cfg.Query).Rows()
	if err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.DSN,
			fmt.Errorf("%w: %v", loader.ErrSourceUnreachable, err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.DSN, err)
	}

	textIdx := -1
	for i, col := range columns {
		if col == l.cfg.TextColumn {
			textIdx = i
			break
		}
	}
	if textIdx == -1 {
		return nil, loader.NewSourceError(loaderName, l.cfg.DSN,
			fmt.Errorf("%w: text_column %q not in query result", loader.ErrInvalidConfig, l.cfg.TextColumn))
	}

	sourceTag := l.cfg.SourceTag
	if sourceTag == "" {
		sourceTag = "database"
	}

	records := make([]loader.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, loader.NewContentError(loaderName, l.cfg.DSN,
				fmt.Errorf("failed to scan row %d: %w", len(records), err))
		}

		metadata := map[string]any{"source": sourceTag}
		for i, col := range columns {
			if i == textIdx {
				continue
			}
			metadata[col] = normalizeValue(values[i])
		}

		records = append(records, loader.Record{
			Text:     textValue(values[textIdx]),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.DSN, err)
	}

	l.log.Info("query loaded",
		zap.String("text_column", l.cfg.TextColumn),
		zap.Int("rows", len(records)))

	return records, nil
}

// textValue converts the text column value to a string, NULL becoming
// the empty string
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalizeValue maps driver types onto plain metadata values
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return val
	}
}
