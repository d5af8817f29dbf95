package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/courier/core/logger"
)

// Notification describes one completed broadcast. Observers receive it after dispatch.
type Notification struct {
	Message     string
	Payload     any
	PayloadType reflect.Type // static payload type of the broadcast, nil for signals
	Time        time.Time
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	Subscribers    int   // records in the registry, including dead ones
	CachedMessages int   // entries in the cache after a sweep
	Observers      int   // attached broadcast observers
	Broadcasts     int64 // broadcasts and signals dispatched
	Delivered      int64 // callback invocations, replays included
	Mismatches     int64 // type mismatches detected
	DeadSkipped    int64 // deliveries skipped because the receiver was collected
	Replays        int64 // cached messages replayed to new subscribers
	Panics         int64 // subscriber panics recovered
	Closed         bool
}

// Mediator is an in-process publish/subscribe hub.
//
// Subscribers are registered with Register, RegisterType or RegisterSignal and are held
// weakly: a subscription never keeps its receiver alive. Broadcasts are dispatched
// synchronously on the caller's goroutine. Broadcasts may be cached for replay to
// subscribers that register later.
//
// All methods are safe for concurrent use. Callbacks run without any mediator lock held
// and may register, unregister or broadcast re-entrantly.
type Mediator struct {
	subscribers *registry
	cache       *messageCache

	obsMu        sync.RWMutex
	observers    map[uint64]func(Notification)
	nextObserver atomic.Uint64

	logger        *slog.Logger
	now           func() time.Time
	autoPrune     bool
	recoverPanics bool
	closed        atomic.Bool

	broadcasts  atomic.Int64
	delivered   atomic.Int64
	mismatches  atomic.Int64
	deadSkipped atomic.Int64
	replays     atomic.Int64
	panics      atomic.Int64
}

// New creates a mediator with its own registry and cache.
//
// Example:
//
//	m := mediator.New(
//	    mediator.WithLogger(logger),
//	    mediator.WithAutoPrune(true),
//	)
//	defer m.Close()
func New(opts ...Option) *Mediator {
	m := &Mediator{
		observers:     make(map[uint64]func(Notification)),
		logger:        logger.Discard(),
		now:           time.Now,
		recoverPanics: true,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.subscribers = newRegistry()
	m.cache = newMessageCache(m.now)

	return m
}

// Unregister removes the subscription identified by token. Removing an unknown token
// is a no-op. Returns ErrInvalidArgument for the zero token.
func (m *Mediator) Unregister(token Token) error {
	if token.IsZero() {
		return fmt.Errorf("%w: token is empty", ErrInvalidArgument)
	}

	if m.subscribers.remove(token) {
		m.logger.Debug("subscriber unregistered",
			logger.Message(token.Message()),
			logger.Token(token))
	}
	return nil
}

// IsSubscribed reports whether token identifies a registered subscription.
// Subscriptions whose receiver was collected stay registered until unregistered or pruned.
func (m *Mediator) IsSubscribed(token Token) bool {
	if token.IsZero() {
		return false
	}
	return m.subscribers.contains(token)
}

// IsCached reports whether a live cached entry exists for message.
// Expired entries are evicted before the check.
func (m *Mediator) IsCached(message string) bool {
	return m.cache.contains(message)
}

// RemoveFromCache evicts the cached message issued token, regardless of its policy.
// Reports whether an entry was removed.
func (m *Mediator) RemoveFromCache(token Token) bool {
	if token.IsZero() {
		return false
	}

	removed := m.cache.remove(token)
	if removed {
		m.logger.Debug("cached message removed",
			logger.Message(token.Message()),
			logger.Token(token))
	}
	return removed
}

// Observe attaches fn to the broadcast notification. fn runs synchronously after each
// dispatch and must not block. The returned function detaches it; calling it more than
// once is safe. Observing a closed mediator returns a no-op detach.
func (m *Mediator) Observe(fn func(Notification)) (detach func()) {
	if fn == nil || m.closed.Load() {
		return func() {}
	}

	id := m.nextObserver.Add(1)

	// Close clears observers under obsMu after setting closed.
	m.obsMu.Lock()
	if m.closed.Load() {
		m.obsMu.Unlock()
		return func() {}
	}
	m.observers[id] = fn
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			delete(m.observers, id)
			m.obsMu.Unlock()
		})
	}
}

// Prune removes every subscription whose receiver has been collected and returns how
// many were removed.
func (m *Mediator) Prune() int {
	n := m.subscribers.prune()
	if n > 0 {
		m.logger.Info("dead subscribers pruned", logger.Count("removed", n))
	}
	return n
}

// Stats returns current counters.
func (m *Mediator) Stats() Stats {
	m.cache.sweep()

	m.obsMu.RLock()
	observers := len(m.observers)
	m.obsMu.RUnlock()

	return Stats{
		Subscribers:    m.subscribers.count(),
		CachedMessages: m.cache.size(),
		Observers:      observers,
		Broadcasts:     m.broadcasts.Load(),
		Delivered:      m.delivered.Load(),
		Mismatches:     m.mismatches.Load(),
		DeadSkipped:    m.deadSkipped.Load(),
		Replays:        m.replays.Load(),
		Panics:         m.panics.Load(),
		Closed:         m.closed.Load(),
	}
}

// Healthcheck returns nil while the mediator is open.
func (m *Mediator) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrMediatorClosed
	}
	return nil
}

// Close releases every subscription, cached message and observer.
// Later registrations and broadcasts fail with ErrMediatorClosed. Close is idempotent.
func (m *Mediator) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.subscribers.clear()
	m.cache.clear()

	m.obsMu.Lock()
	clear(m.observers)
	m.obsMu.Unlock()

	m.logger.Info("mediator closed")
	return nil
}

// notify raises the broadcast notification on a snapshot of the observers.
func (m *Mediator) notify(n Notification) {
	m.obsMu.RLock()
	if len(m.observers) == 0 {
		m.obsMu.RUnlock()
		return
	}
	fns := make([]func(Notification), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.RUnlock()

	for _, fn := range fns {
		m.safeCall(func() { fn(n) }, "broadcast observer panicked", n.Message)
	}
}

// invoke runs one delivery attempt, converting a panic into a tagged result.
func (m *Mediator) invoke(sub subscriber, payload any, payloadType reflect.Type, lenient bool) (res dispatchResult) {
	if m.recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				res = dispatchResult{
					status: statusPanicked,
					err:    fmt.Errorf("%w: %s: %v", ErrSubscriberPanic, sub.name(), r),
				}
				m.logger.Error("subscriber panicked",
					logger.Message(sub.token().Message()),
					logger.Subscriber(sub.name()),
					logger.Panic(r),
					logger.Stack())
			}
		}()
	}
	return sub.deliver(payload, payloadType, lenient)
}

// route acts on a delivery result: counts it and forwards errors to the subscriber's
// error handler.
func (m *Mediator) route(sub subscriber, res dispatchResult) {
	switch res.status {
	case statusDelivered:
		m.delivered.Add(1)

	case statusTypeMismatch:
		m.mismatches.Add(1)
		handled := m.report(sub, res.err)
		m.logger.Debug("payload type mismatch",
			logger.Message(sub.token().Message()),
			logger.Subscriber(sub.name()),
			logger.Key("handled", handled),
			logger.Error(res.err))

	case statusReceiverGone:
		m.deadSkipped.Add(1)
		m.logger.Debug("subscriber receiver collected",
			logger.Message(sub.token().Message()),
			logger.Token(sub.token()))
		if m.autoPrune && m.subscribers.dropDead(sub.token()) {
			m.logger.Debug("dead subscriber pruned", logger.Token(sub.token()))
		}

	case statusPanicked:
		m.panics.Add(1)
		m.report(sub, res.err)
	}
}

// report hands err to the subscriber's error handler. A panicking error handler is
// contained the same way a panicking callback is.
func (m *Mediator) report(sub subscriber, err error) (handled bool) {
	m.safeCall(func() { handled = sub.fail(err) }, "subscriber error handler panicked", sub.token().Message())
	return handled
}

func (m *Mediator) safeCall(fn func(), msg, message string) {
	if m.recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				m.panics.Add(1)
				m.logger.Error(msg, logger.Message(message), logger.Panic(r))
			}
		}()
	}
	fn()
}

func (m *Mediator) checkOpen() error {
	if m.closed.Load() {
		return ErrMediatorClosed
	}
	return nil
}

func validateMessage(message string) error {
	if message == "" {
		return fmt.Errorf("%w: message name is empty", ErrInvalidArgument)
	}
	return nil
}
