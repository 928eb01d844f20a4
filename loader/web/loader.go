// Package web loads the content of a single URL. HTML responses are
// flattened to plain text; other content types are taken verbatim.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/acsdev/ragloader/internal/pkg/httpclient"
	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "web"

// Config describes one URL source
type Config struct {
	URL string `mapstructure:"url"`

	// Timeout bounds the request
	Timeout time.Duration `mapstructure:"timeout"`

	// UserAgent overrides the default request user agent
	UserAgent string `mapstructure:"user_agent"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.URL == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return loader.NewSourceError(loaderName, c.URL, loader.ErrInvalidConfig)
	}
	return nil
}

// Loader fetches one URL per load
type Loader struct {
	cfg  Config
	log  *logger.Logger
	http *httpclient.Client
}

// New creates a URL loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{
		cfg: cfg,
		log: log.Named(loaderName),
		http: httpclient.New(&httpclient.Config{
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		}),
	}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Load fetches the URL and returns a single record
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.URL, nil)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.URL, err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.URL,
			fmt.Errorf("%w: %v", loader.ErrSourceUnreachable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, loader.NewSourceError(loaderName, l.cfg.URL, loader.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, loader.NewSourceError(loaderName, l.cfg.URL, loader.ErrSourceNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, loader.NewSourceError(loaderName, l.cfg.URL,
			fmt.Errorf("HTTP error: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.URL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	text := string(body)
	if strings.Contains(contentType, "text/html") {
		text, err = extractTextFromHTML(text)
		if err != nil {
			return nil, loader.NewContentError(loaderName, l.cfg.URL, err)
		}
	}

	l.log.Info("url loaded",
		zap.String("url", l.cfg.URL),
		zap.Int("bytes", len(body)))

	return []loader.Record{{
		Text: text,
		Metadata: map[string]any{
			"source":       "web",
			"url":          l.cfg.URL,
			"content_type": contentType,
			"status_code":  resp.StatusCode,
			"fetched_at":   time.Now().UTC().Format(time.RFC3339),
		},
	}}, nil
}

// extractTextFromHTML walks the parse tree collecting text nodes,
// inserting newlines at block elements
func extractTextFromHTML(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		if n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div") {
			text.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// collapse blank lines
	lines := strings.Split(strings.TrimSpace(text.String()), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	return strings.Join(cleaned, "\n"), nil
}
