package file

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownExtractor(t *testing.T) {
	md := "# Release Notes\n\nShipped the *new* importer.\n\n- faster loads\n- fewer errors\n"

	text, extras, err := NewMarkdownExtractor().Extract(context.Background(), strings.NewReader(md))
	require.NoError(t, err)

	assert.Contains(t, text, "Release Notes")
	assert.Contains(t, text, "Shipped the new importer.")
	assert.Contains(t, text, "faster loads")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
	assert.NotContains(t, text, "<")
	assert.Equal(t, "markdown", extras["original_format"])
}

func TestHTMLToPlainText(t *testing.T) {
	html := "<h1>Title</h1><p>Body &amp; more</p><script>alert(1)</script><ul><li>one</li><li>two</li></ul>"

	text := htmlToPlainText(html)
	assert.Equal(t, "Title\nBody & more\none\ntwo", text)
}

func TestJSONExtractor(t *testing.T) {
	doc := `{"name":"loader","tags":["go","rag"],"nested":{"depth":1}}`

	text, extras, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	want := "name: loader\n" +
		"tags: \n" +
		"  [0]: go\n" +
		"  [1]: rag\n" +
		"nested: \n" +
		"  depth: 1\n"
	assert.Equal(t, want, text)
	assert.Equal(t, len(doc), extras["original_size"])
}

func TestJSONExtractor_Invalid(t *testing.T) {
	_, _, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader("{broken"))
	assert.Error(t, err)
}

func TestTextExtractor(t *testing.T) {
	text, _, err := NewTextExtractor().Extract(context.Background(), strings.NewReader("as is\n"))
	require.NoError(t, err)
	assert.Equal(t, "as is\n", text)
}
