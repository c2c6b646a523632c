package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// config holds defaults taken from the environment.  Variables carry
// the QR_ prefix, e.g. QR_LEVEL.  Command line flags override them.
type config struct {
	// Level is the error correction level, one of l, m, q, h.
	Level string `envconfig:"LEVEL" default:"l"`

	// Scale is the number of image pixels per module.
	Scale int `envconfig:"SCALE" default:"4"`

	// Border is the quiet zone width in modules.
	Border int `envconfig:"BORDER" default:"4"`

	// Format is the output format; empty selects utf8 for terminals
	// and png otherwise.
	Format string `envconfig:"FORMAT"`

	// Background and Foreground are colours as for -B and -F.
	Background string `envconfig:"BACKGROUND"`
	Foreground string `envconfig:"FOREGROUND"`

	// LogLevel is the slog level name.
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
}

// loadConfig loads variables from the .env file at path, if it
// exists, then reads the configuration from the environment.
// Variables already set in the environment win over the file.
func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return c, fmt.Errorf("%s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return c, err
	}
	if err := envconfig.Process("qr", &c); err != nil {
		return c, err
	}
	return c, nil
}

// logLevel returns the parsed LogLevel.
func (c config) logLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("QR_LOG_LEVEL: %w", err)
	}
	return l, nil
}
