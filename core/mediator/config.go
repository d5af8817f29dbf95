package mediator

import (
	"log/slog"
	"strings"

	"github.com/dmitrymomot/courier/core/logger"
)

// Config holds environment-driven mediator settings.
// Load it with config.Load and pass it to NewFromConfig.
type Config struct {
	AutoPrune     bool       `env:"MEDIATOR_AUTO_PRUNE" envDefault:"false"`
	RecoverPanics bool       `env:"MEDIATOR_RECOVER_PANICS" envDefault:"true"`
	Logging       bool       `env:"MEDIATOR_LOGGING" envDefault:"false"`
	LogLevel      slog.Level `env:"MEDIATOR_LOG_LEVEL" envDefault:"INFO"`
	LogFormat     string     `env:"MEDIATOR_LOG_FORMAT" envDefault:"text"`
}

// DefaultConfig returns the settings used when no environment is configured.
func DefaultConfig() Config {
	return Config{
		RecoverPanics: true,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
	}
}

// Options converts the configuration into mediator options.
func (c Config) Options() []Option {
	opts := []Option{
		WithAutoPrune(c.AutoPrune),
		WithRecoverPanics(c.RecoverPanics),
	}

	if c.Logging {
		logOpts := []logger.Option{
			logger.WithLevel(c.LogLevel),
			logger.WithAttr(logger.Component("mediator")),
		}
		if strings.EqualFold(c.LogFormat, "json") {
			logOpts = append(logOpts, logger.WithJSONFormatter())
		}
		opts = append(opts, WithLogger(logger.New(logOpts...)))
	}

	return opts
}

// NewFromConfig creates a mediator from cfg. opts are applied after the configuration
// and take precedence.
func NewFromConfig(cfg Config, opts ...Option) *Mediator {
	return New(append(cfg.Options(), opts...)...)
}
