// Package config loads bilary's YAML configuration via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GoogleConfig identifies the OAuth client for Gmail accounts.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// Config is the top-level application configuration.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// StoragePath is the root directory for stored PDF attachments.
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path"`

	// PdftotextBin overrides the pdftotext binary used for category
	// refinement.
	PdftotextBin string `mapstructure:"pdftotext_bin" yaml:"pdftotext_bin"`

	// IMAPServer/IMAPPort are the defaults applied when adding an
	// account without explicit server settings.
	IMAPServer string `mapstructure:"imap_server" yaml:"imap_server"`
	IMAPPort   int    `mapstructure:"imap_port" yaml:"imap_port"`

	// SyncTimeoutSec bounds the per-account session during sync.
	// Zero disables the timeout.
	SyncTimeoutSec int `mapstructure:"sync_timeout_sec" yaml:"sync_timeout_sec"`

	Google GoogleConfig `mapstructure:"google" yaml:"google"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/bilary/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "bilary", "config.yaml")
}

func defaultConfig() *Config {
	return &Config{
		DBPath:         filepath.Join("data", "bilary.db"),
		StoragePath:    filepath.Join("storage", "invoices"),
		IMAPServer:     "secureimap.t-online.de",
		IMAPPort:       993,
		SyncTimeoutSec: 600,
	}
}

// Load reads configuration from the given YAML file. A missing file is
// not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("db_path", filepath.Join("data", "bilary.db"))
	v.SetDefault("storage_path", filepath.Join("storage", "invoices"))
	v.SetDefault("imap_server", "secureimap.t-online.de")
	v.SetDefault("imap_port", 993)
	v.SetDefault("sync_timeout_sec", 600)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
