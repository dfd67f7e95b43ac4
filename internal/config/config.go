package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Cache       CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	LogLevel       string `mapstructure:"log_level"`
}

type AnalyticsConfig struct {
	MaxLag          int    `mapstructure:"max_lag"`
	MinOverlap      int    `mapstructure:"min_overlap"`
	MaxGapIntervals int    `mapstructure:"max_gap_intervals"`
	ForecastHorizon int    `mapstructure:"forecast_horizon"`
	ComputeTimeout  string `mapstructure:"compute_timeout"`
}

type CacheConfig struct {
	DefaultTTL string            `mapstructure:"default_ttl"`
	MinTTL     string            `mapstructure:"min_ttl"`
	DomainTTLs map[string]string `mapstructure:"domain_ttls"`
}

func Load() (*Config, error) {
	// Load .env file if present; absence is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if _, err := time.ParseDuration(config.Analytics.ComputeTimeout); err != nil {
		return nil, fmt.Errorf("invalid analytics compute timeout: %w", err)
	}
	for domain, ttl := range config.Cache.DomainTTLs {
		if _, err := time.ParseDuration(ttl); err != nil {
			return nil, fmt.Errorf("invalid cache TTL for domain %q: %w", domain, err)
		}
	}

	return &config, nil
}

// ComputeTimeoutDuration returns the parsed computation timeout.
func (c AnalyticsConfig) ComputeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ComputeTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TTLFor returns the cache TTL for a domain, falling back to the default.
func (c CacheConfig) TTLFor(domain string) time.Duration {
	if ttl, ok := c.DomainTTLs[domain]; ok {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			return d
		}
	}
	if d, err := time.ParseDuration(c.DefaultTTL); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

// MinTTLDuration returns the floor applied when TTLs are scaled down for
// short query windows.
func (c CacheConfig) MinTTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.MinTTL); err == nil && d > 0 {
		return d
	}
	return time.Minute
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database (optional; the in-memory series store works without it)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "crosslens")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)

	// Redis (optional; falls back to the in-memory result cache)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.service_name", "crosslens")
	viper.SetDefault("telemetry.service_version", "1.0.0")
	viper.SetDefault("telemetry.log_level", "info")

	// Analytics
	viper.SetDefault("analytics.max_lag", 7)
	viper.SetDefault("analytics.min_overlap", 3)
	viper.SetDefault("analytics.max_gap_intervals", 2)
	viper.SetDefault("analytics.forecast_horizon", 12)
	viper.SetDefault("analytics.compute_timeout", "30s")

	// Cache
	viper.SetDefault("cache.default_ttl", "30m")
	viper.SetDefault("cache.min_ttl", "1m")
	viper.SetDefault("cache.domain_ttls", map[string]string{
		"weather":        "30m",
		"economic":       "60m",
		"social":         "15m",
		"transportation": "10m",
	})
}
