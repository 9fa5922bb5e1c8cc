package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the analyzer configuration.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultGitHubAPIURL    = "https://api.github.com"
	DefaultCacheTTL        = 15 * time.Minute
	DefaultRateLimitPerMin = 60
	DefaultLogLevel        = "info"
)

// Config holds all analyzer settings.
type Config struct {
	// Host is the interface the HTTP server binds to (default 127.0.0.1).
	Host string `yaml:"host"`

	// Port is the HTTP server port (default 8080).
	Port int `yaml:"port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// AllowedOrigins lists the CORS origins permitted to call the API.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// CacheTTL is how long a cached analysis response stays valid.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RateLimitPerMin is the per-IP request budget per minute.
	RateLimitPerMin int `yaml:"rate_limit_per_min"`

	GitHub GitHubConfig `yaml:"github"`
	Redis  RedisConfig  `yaml:"redis"`
}

// GitHubConfig controls access to the GitHub REST API.
type GitHubConfig struct {
	// Token is an optional bearer credential. Unauthenticated requests
	// work but are subject to GitHub's anonymous rate limits.
	Token string `yaml:"token"`

	// APIURL is the API base, overridable for tests and GHE installs.
	APIURL string `yaml:"api_url"`
}

// RedisConfig enables distributed rate limiting when Addr is set.
// With no address the limiter falls back to in-memory token buckets.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load resolves the configuration from defaults, the optional YAML file
// at path (skipped when path is empty), and the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// FromEnv resolves the configuration from defaults and the environment only.
func FromEnv() (*Config, error) {
	return Load("")
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		LogLevel:        DefaultLogLevel,
		AllowedOrigins:  []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		CacheTTL:        DefaultCacheTTL,
		RateLimitPerMin: DefaultRateLimitPerMin,
		GitHub: GitHubConfig{
			APIURL: DefaultGitHubAPIURL,
		},
	}
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.GitHub.Token = getEnvOrDefault("GITHUB_TOKEN", cfg.GitHub.Token)
	cfg.GitHub.APIURL = getEnvOrDefault("GITHUB_API_URL", cfg.GitHub.APIURL)
	cfg.Redis.Addr = getEnvOrDefault("REDIS_URL", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB %q: %w", v, err)
		}
		cfg.Redis.DB = db
	}

	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MIN %q: %w", v, err)
		}
		cfg.RateLimitPerMin = limit
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = ttl
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.AllowedOrigins = origins
	}

	return nil
}

// validate checks structural constraints on the resolved configuration.
func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is out of range [1, 65535]", cfg.Port)
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if cfg.RateLimitPerMin <= 0 {
		return fmt.Errorf("rate_limit_per_min must be positive")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q unknown: want debug|info|warn|error", cfg.LogLevel)
	}
	if cfg.GitHub.APIURL == "" {
		return fmt.Errorf("github.api_url must not be empty")
	}
	return nil
}

// Addr returns the host:port the HTTP server should listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel maps the configured log level onto slog's levels.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvOrDefault returns the environment value for key, or fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
