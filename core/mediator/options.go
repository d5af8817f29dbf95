package mediator

import (
	"fmt"
	"log/slog"
	"time"
	"weak"
)

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger configures structured logging for mediator operations.
// Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now for token timestamps and cache expiration.
func WithClock(now func() time.Time) Option {
	return func(m *Mediator) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAutoPrune removes a subscriber record from the registry as soon as a broadcast
// finds its receiver collected. Disabled by default: dead records stay until Unregister
// or Prune.
func WithAutoPrune(enabled bool) Option {
	return func(m *Mediator) {
		m.autoPrune = enabled
	}
}

// WithRecoverPanics controls whether panics raised by subscriber callbacks are recovered
// and reported to the subscriber's error handler. Enabled by default. When disabled a
// panicking subscriber unwinds through Broadcast and aborts delivery to the rest.
func WithRecoverPanics(enabled bool) Option {
	return func(m *Mediator) {
		m.recoverPanics = enabled
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

type registration struct {
	onError       errorHandler
	excludeCached bool
	err           error
}

// WithErrorHandler routes delivery errors (type mismatches, recovered panics) for this
// subscription to method on receiver. The receiver is held weakly like the callback's.
// method must not capture receiver.
func WithErrorHandler[E any](receiver *E, method func(*E, error)) RegisterOption {
	return func(r *registration) {
		switch {
		case receiver == nil:
			r.err = fmt.Errorf("%w: error handler must have a receiver", ErrInvalidOperation)
		case method == nil:
			r.err = fmt.Errorf("%w: error handler method is nil", ErrInvalidArgument)
		default:
			r.onError = &weakErrorHandler[E]{receiver: weak.Make(receiver), method: method}
		}
	}
}

// ExcludeCached opts the registration out of replaying cached messages.
func ExcludeCached() RegisterOption {
	return func(r *registration) {
		r.excludeCached = true
	}
}

// BroadcastOption configures a single broadcast.
type BroadcastOption func(*broadcastConfig)

type broadcastConfig struct {
	cache *CacheSettings
}

// WithCache stores the broadcast for replay to later subscribers under settings.
func WithCache(settings CacheSettings) BroadcastOption {
	return func(c *broadcastConfig) {
		c.cache = &settings
	}
}
