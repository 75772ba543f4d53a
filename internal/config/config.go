// internal/config/config.go
//
// Process configuration from the environment.
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every setting of the server and the generate command.
type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Lexicon
	LexiconFile   string `env:"LEXICON_FILE"`
	GridSize      int    `env:"GRID_SIZE"       envDefault:"10"`
	MinWordLength int    `env:"MIN_WORD_LENGTH" envDefault:"3"`

	// Multiplayer
	InitialCountdown  int           `env:"INITIAL_COUNTDOWN"  envDefault:"60"`
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"1s"`
	BuildTimeout      time.Duration `env:"BUILD_TIMEOUT"      envDefault:"10s"`

	// Storage
	DBPath    string `env:"DB_PATH"`
	PoolSize  int    `env:"POOL_SIZE"  envDefault:"5"`
	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	// Admin
	JWTSecret       string `env:"JWT_SECRET"        envDefault:"dev_secret_change_me"`
	JWTExpiresHours int    `env:"JWT_EXPIRES_HOURS" envDefault:"12"`
	AdminPassword   string `env:"ADMIN_PASSWORD"    envDefault:"admin"`
	SecureCookies   bool   `env:"SECURE_COOKIES"`

	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:4200"`
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the builder or clock cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.MinWordLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_WORD_LENGTH must be positive, got %d", c.MinWordLength))
	}
	if c.GridSize < c.MinWordLength {
		errs = append(errs, fmt.Errorf("GRID_SIZE %d is smaller than MIN_WORD_LENGTH %d", c.GridSize, c.MinWordLength))
	}
	if c.InitialCountdown <= 0 {
		errs = append(errs, fmt.Errorf("INITIAL_COUNTDOWN must be positive, got %d", c.InitialCountdown))
	}
	if c.CountdownInterval <= 0 {
		errs = append(errs, fmt.Errorf("COUNTDOWN_INTERVAL must be positive, got %s", c.CountdownInterval))
	}
	if c.BuildTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BUILD_TIMEOUT must be positive, got %s", c.BuildTimeout))
	}
	if c.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("POOL_SIZE must not be negative, got %d", c.PoolSize))
	}
	if c.JWTExpiresHours <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_HOURS must be positive, got %d", c.JWTExpiresHours))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }

// JWTExpiry is how long admin tokens live.
func (c Config) JWTExpiry() time.Duration { return time.Duration(c.JWTExpiresHours) * time.Hour }
