// Package config reads the settings of long-running rewind commands from the environment.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig is returned when environment variables cannot be parsed.
var ErrParsingConfig = errors.New("failed to parse config from environment")

// Serve configures `rewind serve`.
type Serve struct {
	Addr            string        `env:"REWIND_ADDR" envDefault:":8080"`
	ConfigPath      string        `env:"REWIND_CONFIG"`
	Strict          bool          `env:"REWIND_STRICT" envDefault:"false"`
	Metrics         bool          `env:"REWIND_METRICS" envDefault:"true"`
	LogLevel        string        `env:"REWIND_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"REWIND_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Redis Redis
}

// Redis configures the optional event publisher.
// Publishing is disabled when Addr is empty.
type Redis struct {
	Addr     string `env:"REWIND_REDIS_ADDR"`
	Password string `env:"REWIND_REDIS_PASSWORD"`
	DB       int    `env:"REWIND_REDIS_DB" envDefault:"0"`
	Channel  string `env:"REWIND_REDIS_CHANNEL" envDefault:"rewind:events"`
}

// Load reads the given .env files (default ".env") into the process environment
// and parses a Serve from it. Missing .env files are ignored.
func Load(files ...string) (Serve, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Serve{}, errors.Join(ErrParsingConfig, err)
	}

	var cfg Serve
	if err := env.Parse(&cfg); err != nil {
		return Serve{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
