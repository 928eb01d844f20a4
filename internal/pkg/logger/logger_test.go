package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultConfig(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, log.Sync())
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"

	log, err := New(cfg)
	assert.Error(t, err)
	assert.Nil(t, log)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid format",
			mutate:  func(c *Config) { c.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "invalid output",
			mutate:  func(c *Config) { c.Output = "syslog" },
			wantErr: true,
		},
		{
			name: "file output without filename",
			mutate: func(c *Config) {
				c.Output = "file"
				c.File.Filename = ""
			},
			wantErr: true,
		},
		{
			name: "file output with zero maxsize",
			mutate: func(c *Config) {
				c.Output = "file"
				c.File.MaxSize = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.File.Filename = filepath.Join(t.TempDir(), "test.log")

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())
	assert.FileExists(t, cfg.File.Filename)
}

func TestNewWithOptions(t *testing.T) {
	log, err := NewWithOptions(WithLevel("debug"), WithFormat("console"))
	require.NoError(t, err)
	assert.Equal(t, "debug", log.config.Level)
	assert.Equal(t, "console", log.config.Format)
}

func TestNamedAndWith(t *testing.T) {
	log := NewNop()
	child := log.Named("gchat")
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)
}
