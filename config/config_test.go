package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `log:
  level: debug
  format: json
  output: console

gchat:
  group_dir: /data/takeout/Groups
  user_info_path: /data/takeout/user_info.json

gmail:
  credentials_path: /secrets/credentials.json
  token_path: /secrets/token.json
  query: "after:2024/01/01"
  timeout: 45s

readai:
  email: dev@example.com
  password: hunter2
  policy: 1

file:
  path: /data/docs
  recursive: true
  extensions: [".md", ".txt"]

web:
  url: https://example.com/changelog
  user_agent: custom/1.0

database:
  driver: postgres
  dsn: host=localhost dbname=notes
  query: SELECT id, body FROM notes
  text_column: body

objectstore:
  endpoint: localhost:9000
  access_key: minio
  secret_key: minio123
  bucket: docs
  prefix: corpus/
  recursive: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "/data/takeout/Groups", cfg.GChat.GroupDir)
	assert.Equal(t, "/data/takeout/user_info.json", cfg.GChat.UserInfoPath)

	assert.Equal(t, "/secrets/credentials.json", cfg.Gmail.CredentialsPath)
	assert.Equal(t, "after:2024/01/01", cfg.Gmail.Query)
	assert.Equal(t, 45*time.Second, cfg.Gmail.Timeout)

	assert.Equal(t, "dev@example.com", cfg.ReadAI.Email)

	assert.True(t, cfg.File.Recursive)
	assert.Equal(t, []string{".md", ".txt"}, cfg.File.Extensions)

	assert.Equal(t, "https://example.com/changelog", cfg.Web.URL)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "body", cfg.Database.TextColumn)

	assert.Equal(t, "docs", cfg.ObjectStore.Bucket)
	assert.Equal(t, "corpus/", cfg.ObjectStore.Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "log: [not: a: mapping"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RAGLOADER_GMAIL_QUERY", "is:starred")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "is:starred", cfg.Gmail.Query)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Output)
}
