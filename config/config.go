package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shooterstats/adapters/rediscache"
	"shooterstats/adapters/sqlstore"
	"shooterstats/cache"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration. Environment
// variables are prefixed SHOOTERSTATS_ and override file values.
type Config struct {
	Environment Environment `json:"environment" env:"ENV"`

	Storage sqlstore.Config `json:"storage"`
	Cache   CacheConfig     `json:"cache"`
	Logging LoggingConfig   `json:"logging"`
	Game    GameConfig      `json:"game"`
}

// CacheConfig selects and tunes the read cache for user stats.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend string            `json:"backend" env:"CACHE_BACKEND"`
	TTL     time.Duration     `json:"ttl" env:"CACHE_TTL"`
	Redis   rediscache.Config `json:"redis,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
	Output string `json:"output" env:"LOG_OUTPUT"`
}

// GameConfig holds the gameplay thresholds the progression rules run on.
type GameConfig struct {
	// WinThreshold is the score from which a game counts as a win.
	WinThreshold int64 `json:"win_threshold" env:"GAME_WIN_THRESHOLD"`

	// Daily challenge targets.
	DailyScoreTarget int64 `json:"daily_score_target" env:"GAME_DAILY_SCORE_TARGET"`
	DailyKillsTarget int64 `json:"daily_kills_target" env:"GAME_DAILY_KILLS_TARGET"`
	DailyGamesTarget int64 `json:"daily_games_target" env:"GAME_DAILY_GAMES_TARGET"`
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file, with environment
// variables taking precedence over file values.
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}
	cleanPath := filepath.Clean(path)
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}
	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults for
// development.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Storage:     sqlstore.DefaultConfig(sqlstore.DriverSQLite),
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     cache.DefaultTTL,
			Redis:   rediscache.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Game: GameConfig{
			WinThreshold:     100,
			DailyScoreTarget: 1000,
			DailyKillsTarget: 50,
			DailyGamesTarget: 5,
		},
	}
}

// Validate validates the configuration and returns detailed error messages.
func (c *Config) Validate() error {
	var errs []string
	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}
	if err := c.validateStorage(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cache config: %v", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}
	if err := c.Game.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("game config: %v", err))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
	default:
		return fmt.Errorf("unknown driver %q", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return errors.New("dsn cannot be empty")
	}
	if c.Storage.BusyTimeout <= 0 {
		return errors.New("busy_timeout must be positive")
	}
	return nil
}

// Validate validates cache settings.
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend != "none" && c.TTL <= 0 {
		return errors.New("ttl must be positive")
	}
	if c.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("redis.addr cannot be empty")
	}
	return nil
}

// Validate validates logging settings.
func (l LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	switch l.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	switch l.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("unknown output %q", l.Output)
	}
	return nil
}

// Validate validates gameplay thresholds.
func (g GameConfig) Validate() error {
	if g.WinThreshold <= 0 {
		return errors.New("win_threshold must be positive")
	}
	if g.DailyScoreTarget <= 0 || g.DailyKillsTarget <= 0 || g.DailyGamesTarget <= 0 {
		return errors.New("daily challenge targets must be positive")
	}
	return nil
}

// String returns a JSON representation of the config with secrets redacted.
func (c *Config) String() string {
	cfg := *c
	if cfg.Storage.Driver == sqlstore.DriverPostgres && cfg.Storage.DSN != "" {
		cfg.Storage.DSN = "[REDACTED]"
	}
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
