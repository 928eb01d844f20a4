// Package objectstore loads objects from an S3-compatible bucket. Object
// content is extracted with the same format handlers the file loader
// uses, keyed by the object key's extension.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
	"github.com/acsdev/ragloader/loader/file"
)

const loaderName = "objectstore"

// Config describes one bucket source
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`

	// Prefix restricts the listing to keys under this prefix
	Prefix string `mapstructure:"prefix"`

	// Recursive descends past the first delimiter
	Recursive bool `mapstructure:"recursive"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return loader.NewSourceError(loaderName, "",
			fmt.Errorf("%w: endpoint is required", loader.ErrInvalidConfig))
	}
	if c.Bucket == "" {
		return loader.NewSourceError(loaderName, c.Endpoint,
			fmt.Errorf("%w: bucket is required", loader.ErrInvalidConfig))
	}
	return nil
}

// Loader reads a bucket through the MinIO S3 client
type Loader struct {
	cfg      Config
	log      *logger.Logger
	client   *minio.Client
	registry *file.Registry
}

// New creates an object store loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, loader.NewSourceError(loaderName, cfg.Endpoint,
			fmt.Errorf("%w: %v", loader.ErrInvalidConfig, err))
	}

	return &Loader{
		cfg:      cfg,
		log:      log.Named(loaderName),
		client:   client,
		registry: file.NewRegistry(),
	}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Load lists the bucket under the configured prefix and returns one
// record per extractable object, in listing order. Objects with
// unsupported extensions and objects that fail to download or extract
// are skipped with a warning.
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	exists, err := l.client.BucketExists(ctx, l.cfg.Bucket)
	if err != nil {
		return nil, l.sourceError(err)
	}
	if !exists {
		return nil, loader.NewSourceError(loaderName, l.source(), loader.ErrSourceNotFound)
	}

	records := make([]loader.Record, 0)
	skipped := 0

	for obj := range l.client.ListObjects(ctx, l.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    l.cfg.Prefix,
		Recursive: l.cfg.Recursive,
	}) {
		if obj.Err != nil {
			return nil, l.sourceError(obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		extractor, ok := l.registry.ForPath(obj.Key)
		if !ok {
			l.log.Debug("unsupported extension, skipping", zap.String("key", obj.Key))
			continue
		}

		rec, err := l.objectRecord(ctx, obj, extractor)
		if err != nil {
			skipped++
			l.log.Warn("failed to load object, skipping",
				zap.String("key", obj.Key),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	l.log.Info("bucket loaded",
		zap.String("bucket", l.cfg.Bucket),
		zap.String("prefix", l.cfg.Prefix),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped))

	return records, nil
}

func (l *Loader) objectRecord(ctx context.Context, info minio.ObjectInfo, extractor file.Extractor) (loader.Record, error) {
	obj, err := l.client.GetObject(ctx, l.cfg.Bucket, info.Key, minio.GetObjectOptions{})
	if err != nil {
		return loader.Record{}, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	text, extras, err := extractor.Extract(ctx, obj)
	if err != nil {
		return loader.Record{}, fmt.Errorf("failed to extract %s: %w", extractor.Name(), err)
	}

	stat, err := obj.Stat()
	if err != nil {
		return loader.Record{}, fmt.Errorf("failed to stat object: %w", err)
	}

	metadata := map[string]any{
		"source":        "objectstore",
		"bucket":        l.cfg.Bucket,
		"key":           info.Key,
		"loader":        extractor.Name(),
		"size":          stat.Size,
		"etag":          stat.ETag,
		"last_modified": stat.LastModified.UTC().Format(time.RFC3339),
		"content_type":  stat.ContentType,
	}
	for k, v := range extras {
		metadata[k] = v
	}

	return loader.Record{Text: text, Metadata: metadata}, nil
}

func (l *Loader) source() string {
	return l.cfg.Endpoint + "/" + l.cfg.Bucket
}

// sourceError maps S3 error codes onto the error taxonomy
func (l *Loader) sourceError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return loader.NewSourceError(loaderName, l.source(), loader.ErrSourceNotFound)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return loader.NewSourceError(loaderName, l.source(), loader.ErrUnauthorized)
	}
	return loader.NewSourceError(loaderName, l.source(),
		fmt.Errorf("%w: %v", loader.ErrSourceUnreachable, err))
}
