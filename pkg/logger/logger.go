// Package logger builds the application's slog.Logger from configuration:
// JSON for production aggregation, text for development, with static service
// attributes on every record.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config is loaded from the environment via pkg/config.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`   // debug, info, warn, error
	Format string `env:"LOG_FORMAT" envDefault:"json"`  // json or text
}

// Option configures logger construction.
type Option func(*settings)

type settings struct {
	output io.Writer
	attrs  []slog.Attr
}

// WithOutput sets a custom output destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithService stamps every record with the service name.
func WithService(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.attrs = append(s.attrs, slog.String("service", name))
		}
	}
}

// WithAttrs adds static attributes to every record.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(s *settings) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// New builds a logger from cfg. Invalid level or format values fail fast;
// logging misconfiguration should prevent startup, not surface at runtime.
func New(cfg Config, opts ...Option) (*slog.Logger, error) {
	s := &settings{output: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("logger: invalid level %q", cfg.Level)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json", "":
		handler = slog.NewJSONHandler(s.output, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(s.output, handlerOpts)
	default:
		return nil, fmt.Errorf("logger: invalid format %q", cfg.Format)
	}

	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}

	return slog.New(handler), nil
}

// MustNew works like New but panics on invalid configuration.
func MustNew(cfg Config, opts ...Option) *slog.Logger {
	log, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return log
}
