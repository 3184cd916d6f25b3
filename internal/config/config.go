package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from defaults, an
// optional YAML file and TRANSITFEED_* environment variables, in that
// order of precedence from lowest to highest.
type Config struct {
	Port          int    `yaml:"port" validate:"min=1,max=65535"`
	FeedPath      string `yaml:"feed_path"`
	FeedURL       string `yaml:"feed_url" validate:"omitempty,url"`
	DownloadDir   string `yaml:"download_dir" validate:"required"`
	Strict        bool   `yaml:"strict"`
	StoreStrategy string `yaml:"store_strategy" validate:"oneof=hash sorted"`
	DBPath        string `yaml:"db_path"`
	OutDir        string `yaml:"out_dir"`

	RealtimeURL         string `yaml:"realtime_url" validate:"omitempty,url"`
	RealtimeIntervalSec int    `yaml:"realtime_interval_sec" validate:"min=5"`

	// APIRateLimit is the per-client request rate allowed on /api/ in
	// requests per second. Zero disables limiting.
	APIRateLimit int `yaml:"api_rate_limit" validate:"min=0"`

	ReloadHour int    `yaml:"reload_hour" validate:"min=0,max=23"`
	LogLevel   string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `yaml:"log_format" validate:"oneof=text json"`
}

func defaults() *Config {
	return &Config{
		Port:                8080,
		DownloadDir:         "./data",
		StoreStrategy:       "hash",
		RealtimeIntervalSec: 30,
		APIRateLimit:        20,
		ReloadHour:          3,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// TRANSITFEED_CONFIG is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("TRANSITFEED_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envInt("TRANSITFEED_PORT", cfg.Port)
	cfg.FeedPath = envStr("TRANSITFEED_FEED_PATH", cfg.FeedPath)
	cfg.FeedURL = envStr("TRANSITFEED_FEED_URL", cfg.FeedURL)
	cfg.DownloadDir = envStr("TRANSITFEED_DOWNLOAD_DIR", cfg.DownloadDir)
	cfg.Strict = envBool("TRANSITFEED_STRICT", cfg.Strict)
	cfg.StoreStrategy = envStr("TRANSITFEED_STORE", cfg.StoreStrategy)
	cfg.DBPath = envStr("TRANSITFEED_DB_PATH", cfg.DBPath)
	cfg.OutDir = envStr("TRANSITFEED_OUT_DIR", cfg.OutDir)
	cfg.RealtimeURL = envStr("TRANSITFEED_REALTIME_URL", cfg.RealtimeURL)
	cfg.RealtimeIntervalSec = envInt("TRANSITFEED_REALTIME_INTERVAL_SEC", cfg.RealtimeIntervalSec)
	cfg.APIRateLimit = envInt("TRANSITFEED_API_RATE_LIMIT", cfg.APIRateLimit)
	cfg.ReloadHour = envInt("TRANSITFEED_RELOAD_HOUR", cfg.ReloadHour)
	cfg.LogLevel = envStr("TRANSITFEED_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envStr("TRANSITFEED_LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints. It is run again after command line
// flags have been applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", e.Field(), e.Tag(), e.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// FeedSource returns the configured feed location, preferring a local path.
func (c *Config) FeedSource() string {
	if c.FeedPath != "" {
		return c.FeedPath
	}
	return c.FeedURL
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
