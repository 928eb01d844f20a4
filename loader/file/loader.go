package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "file"

// Config describes a local file or directory source
type Config struct {
	// Path points at a single file or a directory
	Path string `mapstructure:"path"`

	// Recursive descends into subdirectories when Path is a directory
	Recursive bool `mapstructure:"recursive"`

	// Extensions optionally narrows directory loads to the listed
	// extensions (".txt", ".md", ...). Empty means every supported
	// format.
	Extensions []string `mapstructure:"extensions"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	return nil
}

// Loader loads local files. A single-file load fails on a malformed
// file; a directory load skips malformed files with a warning and
// keeps going.
type Loader struct {
	cfg      Config
	log      *logger.Logger
	registry *Registry
}

// New creates a file loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{
		cfg:      cfg,
		log:      log.Named(loaderName),
		registry: NewRegistry(),
	}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Load reads the configured path and returns one record per file, in
// directory walk order
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	info, err := os.Stat(l.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loader.NewSourceError(loaderName, l.cfg.Path, loader.ErrSourceNotFound)
		}
		return nil, loader.NewSourceError(loaderName, l.cfg.Path, err)
	}

	if !info.IsDir() {
		record, err := l.fileRecord(ctx, l.cfg.Path, info)
		if err != nil {
			return nil, err
		}
		return []loader.Record{*record}, nil
	}

	return l.loadDirectory(ctx)
}

func (l *Loader) loadDirectory(ctx context.Context) ([]loader.Record, error) {
	records := make([]loader.Record, 0)
	skipped := 0

	walkErr := filepath.WalkDir(l.cfg.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if !l.cfg.Recursive && path != l.cfg.Path {
				return fs.SkipDir
			}
			return nil
		}
		if !l.wantsFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		record, err := l.fileRecord(ctx, path, info)
		if err != nil {
			// Malformed file, skip it and keep going
			l.log.Warn("skipping file",
				zap.String("path", path),
				zap.Error(err))
			skipped++
			return nil
		}
		records = append(records, *record)
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		return nil, loader.NewSourceError(loaderName, l.cfg.Path, walkErr)
	}

	l.log.Info("directory loaded",
		zap.String("path", l.cfg.Path),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped))

	return records, nil
}

// wantsFile applies the extension filter and the registry
func (l *Loader) wantsFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if len(l.cfg.Extensions) > 0 {
		found := false
		for _, allowed := range l.cfg.Extensions {
			if strings.ToLower(allowed) == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	_, ok := l.registry.ForExtension(ext)
	return ok
}

// fileRecord extracts one file into a record
func (l *Loader) fileRecord(ctx context.Context, path string, info fs.FileInfo) (*loader.Record, error) {
	extractor, ok := l.registry.ForPath(path)
	if !ok {
		return nil, loader.NewContentError(loaderName, path,
			fmt.Errorf("unsupported file type: %s", filepath.Ext(path)))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, loader.NewContentError(loaderName, path, err)
	}
	defer f.Close()

	text, extras, err := extractor.Extract(ctx, f)
	if err != nil {
		return nil, loader.NewContentError(loaderName, path, err)
	}

	metadata := map[string]any{
		"source":   path,
		"loader":   extractor.Name(),
		"size":     info.Size(),
		"mod_time": info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
	}
	for k, v := range extras {
		metadata[k] = v
	}

	return &loader.Record{Text: text, Metadata: metadata}, nil
}
