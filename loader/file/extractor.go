// Package file loads local files and directories. Text extraction is
// format-aware: plain text, Markdown, JSON and PDF files each have an
// extractor that turns the file's bytes into indexable text plus
// format-specific metadata.
package file

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Extractor converts one file's content into text and format metadata
type Extractor interface {
	// Name identifies the format ("text", "markdown", ...)
	Name() string

	// Extensions returns the file extensions this extractor handles,
	// lowercase with leading dot
	Extensions() []string

	// Extract reads the content and returns the extracted text plus
	// format-specific metadata keys
	Extract(ctx context.Context, r io.Reader) (string, map[string]any, error)
}

// Registry maps file extensions to extractors
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry with all built-in extractors
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(NewTextExtractor())
	r.Register(NewMarkdownExtractor())
	r.Register(NewJSONExtractor())
	r.Register(NewPDFExtractor())
	return r
}

// Register adds an extractor for all its extensions
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.extractors[ext] = e
	}
}

// ForPath returns the extractor for a file path's extension
func (r *Registry) ForPath(path string) (Extractor, bool) {
	return r.ForExtension(filepath.Ext(path))
}

// ForExtension returns the extractor for an extension like ".txt"
func (r *Registry) ForExtension(ext string) (Extractor, bool) {
	e, ok := r.extractors[strings.ToLower(ext)]
	return e, ok
}

// Extensions returns all registered extensions
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	return exts
}
