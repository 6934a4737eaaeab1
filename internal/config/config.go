// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"dev"`    // application environment (dev/test/prod)
	Port      string `env:"APP_PORT" envDefault:"8080"`  // HTTP port to listen on
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"` // secret used to verify JWTs
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// EventTimezone is the IANA zone event dates and wall-clock times are
	// interpreted in.
	EventTimezone        string `env:"EVENT_TIMEZONE" envDefault:"UTC"`
	AdmissionMaxAttempts int    `env:"ADMISSION_MAX_ATTEMPTS" envDefault:"3"`

	RabbitURL            string `env:"RABBITMQ_URL"` // empty disables event publishing
	QueueConsumerEnabled bool   `env:"QUEUE_CONSUMER_ENABLED" envDefault:"true"`
	AuditLogPath         string `env:"AUDIT_LOG_PATH" envDefault:"logs/guestlist.log"`

	DB        DBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// DBConfig is the MySQL connection.
type DBConfig struct {
	User     string `env:"DB_USER,required"`
	Pass     string `env:"DB_PASS"` // empty allowed
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	Name     string `env:"DB_NAME,required"`
	MaxConns int    `env:"DB_MAX_CONNS" envDefault:"25"`
	Migrate  bool   `env:"DB_MIGRATE" envDefault:"true"`
}

// Load reads an optional .env file and the environment.  Invalid or
// missing required values are fatal.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("config: read .env: %v", err)
	}
	cfg, err := Parse(env.Options{})
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the process environment, or from
// opts.Environment when set.
func Parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	if cfg.AdmissionMaxAttempts < 1 {
		cfg.AdmissionMaxAttempts = 1
	}
	cfg.RateLimit.normalize()
	return cfg, nil
}

// Location resolves EventTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return nil, fmt.Errorf("EVENT_TIMEZONE %q: %w", c.EventTimezone, err)
	}
	return loc, nil
}
