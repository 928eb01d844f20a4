package file

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONExtractor folds a JSON document into indented "key: value" lines
// so nested structure stays readable as prose
type JSONExtractor struct{}

// NewJSONExtractor creates a JSON extractor
func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{}
}

// Name identifies the format
func (e *JSONExtractor) Name() string {
	return "json"
}

// Extensions returns the handled file extensions
func (e *JSONExtractor) Extensions() []string {
	return []string{".json"}
}

// Extract validates and flattens the JSON content
func (e *JSONExtractor) Extract(ctx context.Context, r io.Reader) (string, map[string]any, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read json content: %w", err)
	}

	if !gjson.ValidBytes(content) {
		return "", nil, fmt.Errorf("invalid json content")
	}

	var sb strings.Builder
	formatJSON(&sb, gjson.ParseBytes(content), 0)

	return sb.String(), map[string]any{"original_size": len(content)}, nil
}

// formatJSON walks the document in order, writing one "key: value"
// line per scalar with two-space indentation per nesting level
func formatJSON(sb *strings.Builder, value gjson.Result, indent int) {
	indentStr := strings.Repeat("  ", indent)

	switch {
	case value.IsObject():
		value.ForEach(func(key, val gjson.Result) bool {
			sb.WriteString(indentStr)
			sb.WriteString(key.String())
			sb.WriteString(": ")
			if val.IsObject() || val.IsArray() {
				sb.WriteString("\n")
				formatJSON(sb, val, indent+1)
			} else {
				sb.WriteString(val.String())
				sb.WriteString("\n")
			}
			return true
		})
	case value.IsArray():
		i := 0
		value.ForEach(func(_, val gjson.Result) bool {
			sb.WriteString(fmt.Sprintf("%s[%d]: ", indentStr, i))
			if val.IsObject() || val.IsArray() {
				sb.WriteString("\n")
				formatJSON(sb, val, indent+1)
			} else {
				sb.WriteString(val.String())
				sb.WriteString("\n")
			}
			i++
			return true
		})
	default:
		sb.WriteString(indentStr)
		sb.WriteString(value.String())
		sb.WriteString("\n")
	}
}
