// Package config resolves quizmaker settings from defaults and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all quizmaker configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// Passes is the number of resolution passes per sample. Default: 5.
	Passes int

	// MaxSamples caps how many samples one request may generate.
	// Default: 50.
	MaxSamples int

	// MaxCombinations caps how many samples an exhaustive expansion may
	// produce. Default: 10000.
	MaxCombinations int

	Canvas CanvasConfig
	HTTP   HTTPConfig
}

// CanvasConfig holds the LMS connection settings.
type CanvasConfig struct {
	BaseURL  string
	Token    string
	CourseID string
	Timeout  time.Duration // Default: 30s
	Retry    RetryConfig
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr        string   // Default: ":8080"
	CORSOrigins []string // Default: http://localhost:3000
	Timeout     time.Duration
}

// DefaultConfig returns a Config with sensible defaults. DBPath is left
// empty; see DefaultDBPath.
func DefaultConfig() Config {
	return Config{
		Passes:          5,
		MaxSamples:      50,
		MaxCombinations: 10000,
		Canvas: CanvasConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				InitialWait: 500 * time.Millisecond,
				MaxWait:     5 * time.Second,
				Multiplier:  2.0,
			},
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
			Timeout:     60 * time.Second,
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. Malformed numbers are reported as an
// error and leave the default in place.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	if p := os.Getenv("QUIZMAKER_DB"); p != "" {
		cfg.DBPath = p
	}
	if v := os.Getenv("QUIZMAKER_PASSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("QUIZMAKER_PASSES: %w", err))
		} else {
			cfg.Passes = n
		}
	}
	if v := os.Getenv("QUIZMAKER_MAX_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("QUIZMAKER_MAX_SAMPLES: %w", err))
		} else {
			cfg.MaxSamples = n
		}
	}

	if v := os.Getenv("QUIZMAKER_MAX_COMBINATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("QUIZMAKER_MAX_COMBINATIONS: %w", err))
		} else {
			cfg.MaxCombinations = n
		}
	}

	if u := os.Getenv("CANVAS_URL"); u != "" {
		cfg.Canvas.BaseURL = strings.TrimRight(u, "/")
	}
	if k := os.Getenv("CANVAS_TOKEN"); k != "" {
		cfg.Canvas.Token = k
	}
	if c := os.Getenv("CANVAS_COURSE_ID"); c != "" {
		cfg.Canvas.CourseID = c
	}

	if a := os.Getenv("QUIZMAKER_HTTP_ADDR"); a != "" {
		cfg.HTTP.Addr = a
	}
	if o := os.Getenv("QUIZMAKER_CORS_ORIGINS"); o != "" {
		var origins []string
		for _, s := range strings.Split(o, ",") {
			if s = strings.TrimSpace(s); s != "" {
				origins = append(origins, s)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}

	return cfg, errors.Join(errs...)
}

// Validate checks the settings. Canvas settings are only required when
// needCanvas is set.
func (c Config) Validate(needCanvas bool) error {
	var errs []error
	if c.Passes < 1 {
		errs = append(errs, fmt.Errorf("passes must be at least 1, got %d", c.Passes))
	}
	if c.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("max samples must be at least 1, got %d", c.MaxSamples))
	}
	if c.MaxCombinations < 1 {
		errs = append(errs, fmt.Errorf("max combinations must be at least 1, got %d", c.MaxCombinations))
	}
	if needCanvas {
		if c.Canvas.BaseURL == "" {
			errs = append(errs, fmt.Errorf("CANVAS_URL is required for uploads"))
		}
		if c.Canvas.Token == "" {
			errs = append(errs, fmt.Errorf("CANVAS_TOKEN is required for uploads"))
		}
	}
	return errors.Join(errs...)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZMAKER_DB environment variable
// 2. $XDG_DATA_HOME/quizmaker/quizmaker.db
// 3. ~/.local/share/quizmaker/quizmaker.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZMAKER_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizmaker", "quizmaker.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
