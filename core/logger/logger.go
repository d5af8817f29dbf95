package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler used by New.
type Format uint8

const (
	FormatText Format = iota
	FormatJSON
)

type config struct {
	level       slog.Leveler
	format      Format
	output      io.Writer
	attrs       []slog.Attr
	handlerOpts *slog.HandlerOptions
}

// Option configures a logger created by New.
type Option func(*config)

// New creates a structured logger. Without options it writes text at Info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		format: FormatText,
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{}
	if cfg.handlerOpts != nil {
		*handlerOpts = *cfg.handlerOpts
	}
	if handlerOpts.Level == nil {
		handlerOpts.Level = cfg.level
	}

	var h slog.Handler
	switch cfg.format {
	case FormatJSON:
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	default:
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		h = h.WithAttrs(cfg.attrs)
	}

	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetAsDefault installs the logger as slog's process-wide default.
func SetAsDefault(log *slog.Logger) {
	if log != nil {
		slog.SetDefault(log)
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Leveler) Option {
	return func(c *config) {
		if level != nil {
			c.level = level
		}
	}
}

// WithJSONFormatter switches output to JSON.
func WithJSONFormatter() Option {
	return func(c *config) {
		c.format = FormatJSON
	}
}

// WithTextFormatter switches output to logfmt-style text.
func WithTextFormatter() Option {
	return func(c *config) {
		c.format = FormatText
	}
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithHandlerOptions overrides the handler options.
// A nil Level in opts falls back to the level set with WithLevel.
func WithHandlerOptions(opts *slog.HandlerOptions) Option {
	return func(c *config) {
		c.handlerOpts = opts
	}
}

// WithDevelopment configures text output at Debug level tagged with the service name.
func WithDevelopment(service string) Option {
	return environment(service, "development", slog.LevelDebug, FormatText)
}

// WithStaging configures JSON output at Info level tagged with the service name.
func WithStaging(service string) Option {
	return environment(service, "staging", slog.LevelInfo, FormatJSON)
}

// WithProduction configures JSON output at Info level tagged with the service name.
func WithProduction(service string) Option {
	return environment(service, "production", slog.LevelInfo, FormatJSON)
}

func environment(service, env string, level slog.Level, format Format) Option {
	return func(c *config) {
		c.level = level
		c.format = format
		c.attrs = append(c.attrs,
			slog.String("service", service),
			slog.String("env", env),
		)
	}
}
