// Package shared holds process-wide configuration for the binaries.
package shared

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable that points at an optional YAML file.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hoteliq/config.yaml",
}

type Config struct {
	AppEnv      string        `koanf:"app_env" validate:"required"`
	LogLevel    string        `koanf:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	HTTPAddr    string        `koanf:"http_addr" validate:"required"`
	MetricsAddr string        `koanf:"metrics_addr"`
	StoreDriver string        `koanf:"store_driver" validate:"oneof=mysql memory"`
	MySQLDSN    string        `koanf:"mysql_dsn" validate:"required_if=StoreDriver mysql"`
	CacheTTL    time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	IngestRPS   float64       `koanf:"ingest_rps" validate:"gte=0"`

	Redis     RedisConfig     `koanf:"redis"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// RedisConfig leaves Addr empty to run without a cache.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0,lte=15"`
}

type PipelineConfig struct {
	BatchSize int `koanf:"batch_size" validate:"gte=1,lte=10000"`
}

type AnalyticsConfig struct {
	DefaultWindowDays int `koanf:"default_window_days" validate:"gte=1"`
}

func defaultConfig() Config {
	return Config{
		AppEnv:      "prod",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9100",
		StoreDriver: "mysql",
		MySQLDSN:    "root:root@tcp(localhost:3306)/hoteliq?parseTime=true&charset=utf8mb4&loc=UTC",
		CacheTTL:    15 * time.Minute,
		IngestRPS:   5,
		Redis:       RedisConfig{Addr: "localhost:6379"},
		Pipeline:    PipelineConfig{BatchSize: 100},
		Analytics:   AnalyticsConfig{DefaultWindowDays: 180},
	}
}

// Load layers struct defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Dev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps flat variable names onto config keys.
var envMappings = map[string]string{
	"app_env":                       "app_env",
	"log_level":                     "log_level",
	"http_addr":                     "http_addr",
	"metrics_addr":                  "metrics_addr",
	"store_driver":                  "store_driver",
	"mysql_dsn":                     "mysql_dsn",
	"cache_ttl":                     "cache_ttl",
	"ingest_rps":                    "ingest_rps",
	"redis_addr":                    "redis.addr",
	"redis_password":                "redis.password",
	"redis_db":                      "redis.db",
	"pipeline_batch_size":           "pipeline.batch_size",
	"analytics_default_window_days": "analytics.default_window_days",
}

// envTransformFunc drops variables that are not mapped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
