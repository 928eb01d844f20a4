// Package config loads the unified loader configuration from a file,
// with environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader/database"
	"github.com/acsdev/ragloader/loader/file"
	"github.com/acsdev/ragloader/loader/gchat"
	"github.com/acsdev/ragloader/loader/gmail"
	"github.com/acsdev/ragloader/loader/objectstore"
	"github.com/acsdev/ragloader/loader/readai"
	"github.com/acsdev/ragloader/loader/web"
)

// Config carries one section per source type plus logging. Sections for
// sources that are not used may be left empty; they are validated only
// when the matching loader is constructed.
type Config struct {
	Log         logger.Config      `mapstructure:"log"`
	GChat       gchat.Config       `mapstructure:"gchat"`
	Gmail       gmail.Config       `mapstructure:"gmail"`
	ReadAI      readai.Config      `mapstructure:"readai"`
	File        file.Config        `mapstructure:"file"`
	Web         web.Config         `mapstructure:"web"`
	Database    database.Config    `mapstructure:"database"`
	ObjectStore objectstore.Config `mapstructure:"objectstore"`
}

// Load reads the configuration file at path. Environment variables
// override file values, with section paths joined by underscores
// (RAGLOADER_GMAIL_QUERY overrides gmail.query).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ragloader")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with the logging defaults filled in
func Default() *Config {
	return &Config{
		Log: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "console",
		},
	}
}
