// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	CompaniesHouse CompaniesHouseConfig `yaml:"companies_house" mapstructure:"companies_house"`
	Resolver       ResolverConfig       `yaml:"resolver" mapstructure:"resolver"`
	Batch          BatchConfig          `yaml:"batch" mapstructure:"batch"`
	Cache          CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Ingest         IngestConfig         `yaml:"ingest" mapstructure:"ingest"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// CompaniesHouseConfig holds registry API settings. The key is sent as
// the Basic Auth username with an empty password.
type CompaniesHouseConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ResolverConfig configures per-resolution pacing.
type ResolverConfig struct {
	QueryIntervalMS int `yaml:"query_interval_ms" mapstructure:"query_interval_ms"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	RowIntervalMS int `yaml:"row_interval_ms" mapstructure:"row_interval_ms"`
}

// CacheConfig configures the optional search-response cache.
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// IngestConfig configures input loading.
type IngestConfig struct {
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	Charset     string `yaml:"charset" mapstructure:"charset"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the resolve server.
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

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range Defaults() {
		v.SetDefault(key, val)
	}

	// Read config file (optional)
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

// Defaults returns the default configuration values keyed by viper path.
func Defaults() map[string]any {
	return map[string]any{
		// An empty api_key default keeps the key known to viper so the
		// CHMATCH_COMPANIES_HOUSE_API_KEY env var binds on unmarshal.
		"companies_house.api_key":      "",
		"companies_house.base_url":     "https://api.company-information.service.gov.uk",
		"companies_house.timeout_secs": 15,
		"resolver.query_interval_ms":   200,
		"batch.row_interval_ms":        700,
		"cache.enabled":                false,
		"cache.driver":                 "sqlite",
		"cache.database_url":           "chmatch-cache.db",
		"cache.ttl_hours":              24,
		"ingest.delimiter":             ",",
		"ingest.charset":               "",
		"ingest.timeout_secs":          60,
		"server.port":                  8080,
		"log.level":                    "info",
		"log.format":                   "json",
	}
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
