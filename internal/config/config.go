package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName           string        `mapstructure:"app_name"`
	Env               string        `mapstructure:"app_env"`
	LogLevel          string        `mapstructure:"log_level"`
	Profile           string        `mapstructure:"profile"`
	OutputFormat      string        `mapstructure:"output_format"`
	PublishersFile    string        `mapstructure:"publishers_file"`
	APIBaseURL        string        `mapstructure:"api_base_url"`
	APITimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	APITimeout        time.Duration `mapstructure:"-"`

	SessionStoreType       string        `mapstructure:"session_store_type"`
	SessionStorePath       string        `mapstructure:"session_store_path"`
	SessionTTLSeconds      int64         `mapstructure:"session_ttl_seconds"`
	SessionCleanupSeconds  int64         `mapstructure:"session_cleanup_interval_seconds"`
	SessionTTL             time.Duration `mapstructure:"-"`
	SessionCleanupInterval time.Duration `mapstructure:"-"`
}

var outputFormats = map[string]bool{"json": true, "yaml": true, "text": true}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-blog-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("profile", "default")
	v.SetDefault("output_format", "json")
	v.SetDefault("publishers_file", "")
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_timeout_seconds", 15)
	v.SetDefault("session_store_type", "bbolt")
	v.SetDefault("session_store_path", defaultSessionStorePath())
	v.SetDefault("session_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("session_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultSessionStorePath resolves to <user config dir>/samvad-blog-client/sessions.db,
// falling back to ./data when the config dir is unknown.
func defaultSessionStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join("data", "sessions.db")
	}
	return filepath.Join(dir, "samvad-blog-client", "sessions.db")
}

// normalize validates raw values and derives the duration fields.
func (cfg *Config) normalize() error {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q (must be an absolute http or https url)", cfg.APIBaseURL)
	}

	if cfg.APITimeoutSeconds <= 0 {
		return fmt.Errorf("invalid api_timeout_seconds (must be positive seconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutSeconds) * time.Second

	cfg.Profile = strings.TrimSpace(cfg.Profile)
	if cfg.Profile == "" {
		return fmt.Errorf("profile must not be empty")
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if !outputFormats[cfg.OutputFormat] {
		return fmt.Errorf("invalid output_format %q (expected json, yaml or text)", cfg.OutputFormat)
	}

	if cfg.SessionTTLSeconds <= 0 {
		return fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	if cfg.SessionCleanupSeconds <= 0 {
		return fmt.Errorf("invalid session_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.SessionTTL = time.Duration(cfg.SessionTTLSeconds) * time.Second
	cfg.SessionCleanupInterval = time.Duration(cfg.SessionCleanupSeconds) * time.Second

	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)
	return nil
}
