// Package config loads the application configuration from config.yaml and
// FLEET_-prefixed environment variables into an explicit struct that is
// injected into every component.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Dirs   DirsConfig   `yaml:"dirs" mapstructure:"dirs"`
	FTP    FTPConfig    `yaml:"ftp" mapstructure:"ftp"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`

	// Timezone is the civil timezone of spreadsheet dates before UTC
	// normalization.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	// MappingFile optionally overrides the built-in field vocabularies
	// (expense types, frequencies, priorities).
	MappingFile string `yaml:"mapping_file" mapstructure:"mapping_file"`
}

// APIConfig holds fleet API endpoints and credentials.
type APIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	BaseURLV2   string `yaml:"base_url_v2" mapstructure:"base_url_v2"`
	Token       string `yaml:"token" mapstructure:"token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// RatePerSec caps outbound request rate across the whole client.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the per-call HTTP timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// BatchConfig configures the bounded batch submitter.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	PacingMs    int `yaml:"pacing_ms" mapstructure:"pacing_ms"`
}

// Pacing returns the delay between submitted batches.
func (c BatchConfig) Pacing() time.Duration {
	return time.Duration(c.PacingMs) * time.Millisecond
}

// DirsConfig holds the working directories for the file-based workflow.
type DirsConfig struct {
	Pending   string `yaml:"pending" mapstructure:"pending"`
	Processed string `yaml:"processed" mapstructure:"processed"`
	Error     string `yaml:"error" mapstructure:"error"`
}

// FTPConfig points at the inbox where partners drop spreadsheet feeds.
type FTPConfig struct {
	URL         string `yaml:"url" mapstructure:"url"` // ftp://host[:port]/path
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures the run journal backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "https://eu1.getpulpo.com/api/v1")
	v.SetDefault("api.base_url_v2", "https://eu1.getpulpo.com/api/v2")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 10)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.pacing_ms", 1000)
	v.SetDefault("dirs.pending", "pending")
	v.SetDefault("dirs.processed", "processed")
	v.SetDefault("dirs.error", "error")
	v.SetDefault("ftp.url", "")
	v.SetDefault("ftp.user", "")
	v.SetDefault("ftp.password", "")
	v.SetDefault("ftp.timeout_secs", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fleet-importer.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("timezone", "Europe/Madrid")
	v.SetDefault("mapping_file", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
