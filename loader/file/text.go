package file

import (
	"context"
	"fmt"
	"io"
)

// TextExtractor passes plain text through unchanged
type TextExtractor struct{}

// NewTextExtractor creates a plain text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name identifies the format
func (e *TextExtractor) Name() string {
	return "text"
}

// Extensions returns the handled file extensions
func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".log"}
}

// Extract reads the content verbatim
func (e *TextExtractor) Extract(ctx context.Context, r io.Reader) (string, map[string]any, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read text content: %w", err)
	}
	return string(content), map[string]any{}, nil
}
