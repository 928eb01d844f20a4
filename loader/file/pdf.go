package file

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFExtractor extracts page text from PDF files with MuPDF
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Name identifies the format
func (e *PDFExtractor) Name() string {
	return "pdf"
}

// Extensions returns the handled file extensions
func (e *PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract concatenates the text of all pages, separated by blank lines
func (e *PDFExtractor) Extract(ctx context.Context, r io.Reader) (string, map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read pdf data: %w", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	numPages := doc.NumPage()

	for i := 0; i < numPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			// skip pages the renderer cannot extract
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return sb.String(), map[string]any{"page_count": numPages}, nil
}
