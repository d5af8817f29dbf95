package mediator

import (
	"log/slog"
	"sync"

	"github.com/dmitrymomot/courier/core/config"
	"github.com/dmitrymomot/courier/core/logger"
)

var (
	defaultOnce     sync.Once
	defaultMediator *Mediator
)

// Default returns the process-wide mediator, creating it on first use from the
// MEDIATOR_* environment variables. An invalid environment falls back to DefaultConfig.
//
// Closing the default mediator closes it for the rest of the process. Components that
// need their own lifetime should use New.
func Default() *Mediator {
	defaultOnce.Do(func() {
		cfg := DefaultConfig()
		var loadErr error
		if err := config.Load(&cfg); err != nil {
			cfg = DefaultConfig()
			loadErr = err
		}

		defaultMediator = NewFromConfig(cfg)
		if loadErr != nil {
			slog.Default().Warn("mediator configuration invalid, using defaults", logger.Error(loadErr))
		}
	})
	return defaultMediator
}
