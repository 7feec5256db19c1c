package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	defaultDatabaseURL    = "postgres://localhost:5432/eventposter?sslmode=disable"
	defaultGraceSeconds   = 7200
	defaultSweepSchedule  = "@every 5m"
	defaultLocale         = "en"
	defaultMigrationsPath = "migrations"
	defaultLogLevel       = "info"
)

type Config struct {
	Token          string `validate:"required"`
	DatabaseURL    string `validate:"required,url"`
	GuildID        string `validate:"omitempty,numeric"`
	GraceSeconds   int    `validate:"gte=0"`
	SweepSchedule  string `validate:"required"`
	DefaultLocale  string `validate:"required,oneof=en fr"`
	MigrationsPath string `validate:"required"`
	LogLevel       string `validate:"required,oneof=debug info warn error"`
}

// Load reads the configuration from the environment, after loading an
// optional .env file.
func Load() (*Config, error) {
	// .env is optional when variables come from the environment (Docker, CI).
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Token:          strings.TrimSpace(getenv("TOKEN")),
		DatabaseURL:    orDefault(getenv("DATABASE_URL"), defaultDatabaseURL),
		GuildID:        strings.TrimSpace(getenv("GUILD_ID")),
		GraceSeconds:   defaultGraceSeconds,
		SweepSchedule:  orDefault(getenv("SWEEP_SCHEDULE"), defaultSweepSchedule),
		DefaultLocale:  strings.ToLower(orDefault(getenv("DEFAULT_LOCALE"), defaultLocale)),
		MigrationsPath: orDefault(getenv("MIGRATIONS_PATH"), defaultMigrationsPath),
		LogLevel:       strings.ToLower(orDefault(getenv("LOG_LEVEL"), defaultLogLevel)),
	}
	if raw := strings.TrimSpace(getenv("EVENT_GRACE_SECONDS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: EVENT_GRACE_SECONDS must be a number of seconds (%q): %w", raw, err)
		}
		cfg.GraceSeconds = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("config: %s fails %q validation", f.Field(), f.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
	}

	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("config: invalid SWEEP_SCHEDULE (%q): %w", c.SweepSchedule, err)
	}
	return nil
}

// Grace is how long an event stays open after it starts.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

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

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
