package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := Load()
	if cfg.DBPath != "" {
		t.Fatalf("expected empty default db path, got %q", cfg.DBPath)
	}
	if !cfg.PrettyExport {
		t.Fatal("pretty export should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("db_path", "/tmp/custom.db")
	viper.Set("pretty_export", false)

	cfg := Load()
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("got %q", cfg.DBPath)
	}
	if cfg.PrettyExport {
		t.Fatal("pretty export should be overridden to false")
	}
}
