package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Application settings
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Search  SearchConfig
	Backend BackendConfig
	Store   StoreConfig
}

// Server settings
type ServerConfig struct {
	Port string
}

type SearchConfig struct {
	WorkerPoolSize int
	BatchSize      int
	CacheTTL       time.Duration
	HistoryLimit   int

	// how long stored results stay readable by id; zero keeps them
	ResultRetention time.Duration
}

type BackendConfig struct {
	URL                string
	Secret             string
	RequestTimeout     time.Duration
	RateLimitPerSecond int
}

// StoreConfig picks where search results live. Saved ads go to postgres
// whenever DatabaseURL is set.
type StoreConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Load reads adspy.yaml when present and lets environment variables
// override every key (PORT, BACKEND_API_URL, ...).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("adspy")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	return load(v)
}

// LoadFile is Load with an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("port"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("log_level"),
		},
		Search: SearchConfig{
			WorkerPoolSize:  v.GetInt("worker_pool_size"),
			BatchSize:       v.GetInt("batch_size"),
			CacheTTL:        v.GetDuration("search_cache_ttl"),
			HistoryLimit:    v.GetInt("search_history_limit"),
			ResultRetention: v.GetDuration("search_result_retention"),
		},
		Backend: BackendConfig{
			URL:                strings.TrimRight(v.GetString("backend_api_url"), "/"),
			Secret:             v.GetString("backend_api_secret"),
			RequestTimeout:     v.GetDuration("request_timeout"),
			RateLimitPerSecond: v.GetInt("rate_limit_per_second"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store_driver")),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
			DatabaseURL:   v.GetString("database_url"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("worker_pool_size", 10)
	v.SetDefault("batch_size", 100)
	v.SetDefault("search_cache_ttl", "30m")
	v.SetDefault("search_history_limit", 50)
	v.SetDefault("search_result_retention", "168h")

	v.SetDefault("backend_api_url", "http://localhost:8000")
	v.SetDefault("backend_api_secret", "")
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("rate_limit_per_second", 10)

	v.SetDefault("store_driver", StoreMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("database_url", "")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Search.WorkerPoolSize < 1 {
		return fmt.Errorf("worker pool size must be positive, got %d", c.Search.WorkerPoolSize)
	}
	if c.Search.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", c.Search.BatchSize)
	}
	if c.Search.CacheTTL < 0 {
		return fmt.Errorf("search cache ttl must not be negative")
	}
	if c.Search.ResultRetention < 0 {
		return fmt.Errorf("search result retention must not be negative")
	}
	if c.Backend.RateLimitPerSecond < 1 {
		return fmt.Errorf("rate limit must be positive, got %d", c.Backend.RateLimitPerSecond)
	}
	return nil
}
