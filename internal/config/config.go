// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink backend names accepted by storage.backend.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl run itself.
type CrawlerConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	Concurrency       int    `mapstructure:"concurrency"`
	UserAgent         string `mapstructure:"user_agent"`
	MaxListingPages   int    `mapstructure:"max_listing_pages"`
	DelayMs           int    `mapstructure:"delay_ms"`
	RunTimeoutSeconds int    `mapstructure:"run_timeout_seconds"`
}

// HTTPConfig configures HTTP client timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// StorageConfig selects and configures the record sink backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	CSVPath string `mapstructure:"csv_path"`
}

// DBConfig controls access to the relational backend.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ServerConfig controls the operational HTTP listener. Port 0 disables it.
type ServerConfig struct {
	MetricsPort int `mapstructure:"metrics_port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.base_url", "http://books.toscrape.com/")
	v.SetDefault("crawler.concurrency", 8)
	v.SetDefault("crawler.user_agent", "bookharvest/1.0")
	v.SetDefault("crawler.max_listing_pages", 0)
	v.SetDefault("crawler.delay_ms", 0)
	v.SetDefault("crawler.run_timeout_seconds", 0)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("storage.backend", BackendCSV)
	v.SetDefault("storage.csv_path", "data/books.csv")
	v.SetDefault("db.table", "books")
	v.SetDefault("server.metrics_port", 0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url must be set")
	}
	u, err := url.Parse(c.Crawler.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("crawler.base_url must be an absolute http(s) URL")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	switch c.Storage.Backend {
	case BackendCSV:
		if c.Storage.CSVPath == "" {
			return fmt.Errorf("storage.csv_path must be set for the csv backend")
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the initial retry backoff as a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry backoff cap as a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}

// PolitenessDelay returns the delay between requests as a duration.
func (c Config) PolitenessDelay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}

// RunTimeout returns the overall run deadline, or zero when unbounded.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Crawler.RunTimeoutSeconds) * time.Second
}
