// Package config loads runtime settings from COLORTRACE_* environment
// variables. Command-line flags take precedence and are applied by the
// commands themselves.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/model"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvFrom loads configuration from the given variables instead of the
// process environment.
func ParseEnvFrom(target any, vars map[string]string) error {
	if err := env.ParseWithOptions(target, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Log holds logger settings shared by every binary.
type Log struct {
	Level  string `env:"COLORTRACE_LOG_LEVEL" envDefault:"info"`
	Format string `env:"COLORTRACE_LOG_FORMAT" envDefault:"text"`
	// File, when set, receives a JSON copy of every record.
	File string `env:"COLORTRACE_LOG_FILE"`
}

// Logging converts to the logger's own config.
func (l Log) Logging() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format}
}

// NewLogger builds the configured logger. When File is set the file is
// opened for appending and returned as the closer; otherwise the closer is a
// no-op.
func (l Log) NewLogger(out io.Writer) (logging.Logger, io.Closer, error) {
	cfg := l.Logging()
	cfg.Output = out
	if l.File == "" {
		return logging.New(cfg), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %q: %w", l.File, err)
	}
	return logging.New(cfg, f), f, nil
}

// Player configures the replay CLI.
type Player struct {
	Log Log

	SolverURL    string        `env:"COLORTRACE_SOLVER_URL" envDefault:"http://localhost:8001"`
	SolveTimeout time.Duration `env:"COLORTRACE_SOLVE_TIMEOUT" envDefault:"10s"`
	MapPath      string        `env:"COLORTRACE_MAP"`
	WatchMap     bool          `env:"COLORTRACE_WATCH_MAP" envDefault:"true"`
	Algorithm    string        `env:"COLORTRACE_ALGORITHM" envDefault:"backtracking"`
	MaxColors    int           `env:"COLORTRACE_MAX_COLORS" envDefault:"4"`
	Speed        time.Duration `env:"COLORTRACE_SPEED" envDefault:"500ms"`
	MetricsAddr  string        `env:"COLORTRACE_METRICS_ADDR"`
}

// Validate checks the player settings.
func (p Player) Validate() error {
	if _, err := model.ParseAlgorithm(p.Algorithm); err != nil {
		return fmt.Errorf("COLORTRACE_ALGORITHM: %w", err)
	}
	if p.MaxColors < 1 || p.MaxColors > model.MaxColorsLimit {
		return fmt.Errorf("COLORTRACE_MAX_COLORS must be in [1, %d], got %d", model.MaxColorsLimit, p.MaxColors)
	}
	if p.SolveTimeout <= 0 {
		return fmt.Errorf("COLORTRACE_SOLVE_TIMEOUT must be positive, got %s", p.SolveTimeout)
	}
	if p.Speed <= 0 {
		return fmt.Errorf("COLORTRACE_SPEED must be positive, got %s", p.Speed)
	}
	return nil
}

// Server configures the reference solver service.
type Server struct {
	Log Log

	Addr        string  `env:"COLORTRACE_SOLVER_ADDR" envDefault:":8001"`
	MetricsAddr string  `env:"COLORTRACE_SOLVER_METRICS_ADDR" envDefault:":9090"`
	RateLimit   float64 `env:"COLORTRACE_SOLVER_RATE_LIMIT" envDefault:"20"`
	RateBurst   int     `env:"COLORTRACE_SOLVER_RATE_BURST" envDefault:"40"`
	MaxRegions  int     `env:"COLORTRACE_SOLVER_MAX_REGIONS" envDefault:"64"`
	MaxSteps    int     `env:"COLORTRACE_SOLVER_MAX_STEPS" envDefault:"100000"`
}

// Validate checks the server settings.
func (s Server) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("COLORTRACE_SOLVER_ADDR is required")
	}
	if s.RateLimit <= 0 || s.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	if s.MaxRegions <= 0 || s.MaxSteps <= 0 {
		return fmt.Errorf("COLORTRACE_SOLVER_MAX_REGIONS and COLORTRACE_SOLVER_MAX_STEPS must be positive")
	}
	return nil
}

// LoadPlayer reads and validates player settings from the environment.
func LoadPlayer() (Player, error) {
	var p Player
	if err := ParseEnv(&p); err != nil {
		return Player{}, err
	}
	return p, p.Validate()
}

// LoadServer reads and validates server settings from the environment.
func LoadServer() (Server, error) {
	var s Server
	if err := ParseEnv(&s); err != nil {
		return Server{}, err
	}
	return s, s.Validate()
}
