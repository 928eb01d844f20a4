package file

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// MarkdownExtractor renders Markdown to HTML and flattens the result
// to plain text, so heading markers and link targets don't end up in
// the embeddings.
type MarkdownExtractor struct{}

// NewMarkdownExtractor creates a Markdown extractor
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{}
}

// Name identifies the format
func (e *MarkdownExtractor) Name() string {
	return "markdown"
}

// Extensions returns the handled file extensions
func (e *MarkdownExtractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract renders the Markdown content and strips the markup
func (e *MarkdownExtractor) Extract(ctx context.Context, r io.Reader) (string, map[string]any, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read markdown content: %w", err)
	}

	html := blackfriday.Run(content)
	plain := htmlToPlainText(string(html))

	return plain, map[string]any{"original_format": "markdown"}, nil
}

var (
	reScript       = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle        = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reLineBreaks   = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
	reHeadingEnds  = regexp.MustCompile(`(?i)</h[1-6]>`)
	reListItemEnds = regexp.MustCompile(`(?i)</li>`)
	reTags         = regexp.MustCompile(`<[^>]+>`)
	reMultiNewline = regexp.MustCompile(`\n{3,}`)
)

var htmlEntities = map[string]string{
	"&nbsp;":  " ",
	"&lt;":    "<",
	"&gt;":    ">",
	"&amp;":   "&",
	"&quot;":  "\"",
	"&#34;":   "\"",
	"&#39;":   "'",
	"&ndash;": "–",
	"&mdash;": "—",
}

// htmlToPlainText strips markup from rendered HTML, keeping paragraph
// and list structure as newlines
func htmlToPlainText(html string) string {
	html = reScript.ReplaceAllString(html, "")
	html = reStyle.ReplaceAllString(html, "")

	html = reLineBreaks.ReplaceAllString(html, "\n")
	html = reHeadingEnds.ReplaceAllString(html, "\n\n")
	html = reListItemEnds.ReplaceAllString(html, "\n")

	text := reTags.ReplaceAllString(html, "")

	for entity, replacement := range htmlEntities {
		text = strings.ReplaceAll(text, entity, replacement)
	}

	return cleanWhitespace(text)
}

// cleanWhitespace trims lines, drops blank ones and limits paragraph
// gaps to a single blank line
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	text = strings.Join(cleaned, "\n")
	text = reMultiNewline.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
