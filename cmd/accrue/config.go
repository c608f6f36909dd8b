package main

import (
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// config is read from the environment only in main.
type config struct {
	APIKey      string        `env:"ANTHROPIC_API_KEY"`
	BaseURL     string        `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	LogLevel    string        `env:"ACCRUE_LOG_LEVEL" envDefault:"info"`
	HTTPTimeout time.Duration `env:"ACCRUE_HTTP_TIMEOUT" envDefault:"10m"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// newLogger returns a console logger on w. An unknown level falls back to
// info.
func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}
