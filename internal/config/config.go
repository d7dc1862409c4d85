package config

import "github.com/spf13/viper"

// Config holds runtime configuration for a lifeline session.
// Values are populated from .lifeline.yaml, LIFELINE_* env vars, and CLI
// flags.
type Config struct {
	// DBPath overrides the default database location. Empty means
	// store.DefaultDBPath.
	DBPath string `mapstructure:"db_path"`
	// PrettyExport indents exported documents. Formatting only.
	PrettyExport bool `mapstructure:"pretty_export"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("db_path", "")
	viper.SetDefault("pretty_export", true)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
