// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"resido/internal/infrastructure/storage/postgres"
	"resido/pkg/logger"
)

// Config is shared by every binary in cmd/.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     int    `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL    string `env:"DATABASE_URL,required"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns     int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"15m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	ReminderInterval      time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	ReminderLeadDays      int           `env:"REMINDER_LEAD_DAYS" envDefault:"3"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"720h"`
}

// Load reads an optional .env file, then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the tags cannot express.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.Port)
	}
	if c.IsProduction() && c.JWTSecret == "change-me-in-production" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ReminderLeadDays < 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Logger returns the logger configuration.
func (c Config) Logger(service string) logger.Config {
	return logger.Config{Level: c.LogLevel, Development: !c.IsProduction(), Service: service}
}

// Pool returns the connection pool configuration.
func (c Config) Pool(appName string) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DatabaseURL)
	pc.ApplicationName = appName
	pc.MaxConns = c.DBMaxConns
	pc.MinConns = c.DBMinConns
	return pc
}
