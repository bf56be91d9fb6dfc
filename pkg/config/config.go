// Package config loads the service configuration from defaults, a YAML file,
// optional .env files and the process environment, each layer overriding the
// previous one.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type (
	Config struct {
		App      AppConfig      `yaml:"app"`
		Log      LogConfig      `yaml:"log"`
		Store    StoreConfig    `yaml:"store"`
		Urls     UrlsConfig     `yaml:"urls"`
		Exchange ExchangeConfig `yaml:"exchange"`
		Queue    QueueConfig    `yaml:"queue"`
		Cache    CacheConfig    `yaml:"cache"`
		Retry    RetryConfig    `yaml:"retry"`
		Health   HealthConfig   `yaml:"health"`
	}

	AppConfig struct {
		Name      string `yaml:"name" env:"APP_NAME"`
		BaseURL   string `yaml:"base_url" env:"APP_BASE_URL"`
		DemoOwner string `yaml:"demo_owner" env:"APP_DEMO_OWNER"`
	}

	LogConfig struct {
		File      string `yaml:"file" env:"LOG_FILE"`
		Level     string `yaml:"level" env:"LOG_LEVEL"`
		AddCaller bool   `yaml:"add_caller" env:"LOG_ADD_CALLER"`
	}

	StoreConfig struct {
		Driver       string `yaml:"driver" env:"STORE_DRIVER"`
		DSN          string `yaml:"dsn" env:"STORE_DSN"`
		SnapshotPath string `yaml:"snapshot_path" env:"STORE_SNAPSHOT_PATH"`
	}

	// UrlsConfig holds optional backing services, empty disables them
	UrlsConfig struct {
		Redis    string `yaml:"redis" env:"REDIS_URL"`
		Rabbitmq string `yaml:"rabbitmq" env:"RABBITMQ_URL"`
	}

	ExchangeConfig struct {
		Output string `yaml:"output" env:"EXCHANGE_OUTPUT"`
	}

	QueueConfig struct {
		Events string `yaml:"events" env:"QUEUE_EVENTS"`
	}

	CacheConfig struct {
		TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL"`
		Timeout time.Duration `yaml:"timeout" env:"CACHE_TIMEOUT"`
	}

	RetryConfig struct {
		Count    uint          `yaml:"count" env:"RETRY_COUNT"`
		Interval time.Duration `yaml:"interval" env:"RETRY_INTERVAL"`
	}

	HealthConfig struct {
		Port string `yaml:"port" env:"HEALTH_PORT"`
	}
)

// Default returns the configuration used when nothing else is provided
func Default() Config {
	return Config{
		App: AppConfig{
			Name:      "questionnaire-service",
			BaseURL:   "http://localhost:8080/",
			DemoOwner: "demo",
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Driver:       DriverMemory,
			SnapshotPath: "data/forms.json",
		},
		Exchange: ExchangeConfig{Output: "questionnaire.events"},
		Queue:    QueueConfig{Events: "questionnaire.cache"},
		Cache: CacheConfig{
			TTL:     10 * time.Minute,
			Timeout: 2 * time.Second,
		},
		Retry: RetryConfig{
			Count:    5,
			Interval: 2 * time.Second,
		},
		Health: HealthConfig{Port: ":8081"},
	}
}

// Init builds the configuration. path may be empty to skip the YAML file.
// envFiles default to ".env"; missing env files are ignored.
func Init(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error open file: %w", err)
		}
		defer file.Close()

		if err = yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode error: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", name, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.SnapshotPath == "" {
			return errors.New("store.snapshot_path is required for the file driver")
		}
	case DriverSQLite, DriverMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Cache.Timeout <= 0 {
		return errors.New("cache.timeout must be positive")
	}
	return nil
}
