package stream

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dmitrymomot/courier/core/logger"
	"github.com/dmitrymomot/courier/core/mediator"
	"github.com/dmitrymomot/courier/pkg/broadcast"
)

const defaultBufferSize = 64

// Stream re-exposes the broadcasts of one message as channel subscriptions.
// It is lazy: nothing is attached to the mediator until the first Subscribe, and the
// mediator observer is detached again when the last subscription ends. A later Subscribe
// starts a new run.
type Stream[T any] struct {
	m          *mediator.Mediator
	message    string
	bufferSize int
	logger     *slog.Logger

	mu     sync.Mutex
	hub    *broadcast.MemoryBroadcaster[T]
	detach func()
	active int
}

// Option configures a Stream.
type Option func(*options)

type options struct {
	bufferSize int
	logger     *slog.Logger
}

// WithBufferSize sets the per-subscription channel buffer. When a buffer is full, new
// messages are dropped for that subscription only.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithLogger configures logging of stream lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Of streams broadcasts of message whose payload is a T.
func Of[T any](m *mediator.Mediator, message string, opts ...Option) *Stream[T] {
	o := options{
		bufferSize: defaultBufferSize,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Stream[T]{
		m:          m,
		message:    message,
		bufferSize: o.bufferSize,
		logger:     o.logger,
	}
}

// OfType streams broadcasts sent under the message named after T.
func OfType[T any](m *mediator.Mediator, opts ...Option) *Stream[T] {
	return Of[T](m, mediator.MessageName[T](), opts...)
}

// Signals streams signals of message. Each signal arrives as a NoPayload value.
func Signals(m *mediator.Mediator, message string, opts ...Option) *Stream[mediator.NoPayload] {
	return Of[mediator.NoPayload](m, message, opts...)
}

// Message returns the message name the stream filters on.
func (s *Stream[T]) Message() string { return s.message }

// Subscribe returns a subscription that receives every later matching broadcast until
// ctx is done or the subscription is closed.
func (s *Stream[T]) Subscribe(ctx context.Context) broadcast.Subscriber[T] {
	s.mu.Lock()
	if s.hub == nil {
		s.start()
	}
	hub := s.hub
	s.active++
	s.mu.Unlock()

	sub := &subscription[T]{
		Subscriber: hub.Subscribe(ctx),
		stream:     s,
		hub:        hub,
		done:       make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.release()
		case <-sub.done:
		}
	}()

	return sub
}

// Subscribers returns the number of open subscriptions.
func (s *Stream[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// start attaches the mediator observer. Must be called with mu held.
func (s *Stream[T]) start() {
	hub := broadcast.NewMemoryBroadcaster[T](s.bufferSize)
	s.hub = hub
	s.detach = s.m.Observe(func(n mediator.Notification) {
		if n.Message != s.message {
			return
		}
		v, ok := payloadAs[T](n)
		if !ok {
			return
		}
		if err := hub.Broadcast(context.Background(), broadcast.Message[T]{Data: v}); err != nil {
			s.logger.Debug("stream dropped message", logger.Message(n.Message), logger.Error(err))
		}
	})

	s.logger.Debug("stream started", logger.Message(s.message))
}

// release ends one subscription and stops the run when it was the last.
func (s *Stream[T]) release(hub *broadcast.MemoryBroadcaster[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A subscription of an earlier run.
	if hub != s.hub {
		return
	}

	s.active--
	if s.active > 0 {
		return
	}

	s.detach()
	_ = s.hub.Close()
	s.hub = nil
	s.detach = nil

	s.logger.Debug("stream stopped", logger.Message(s.message))
}

// payloadAs matches the broadcast's static payload type exactly. Signals carry no type
// and match NoPayload only.
func payloadAs[T any](n mediator.Notification) (T, bool) {
	var zero T
	if n.PayloadType == nil {
		_, ok := any(zero).(mediator.NoPayload)
		return zero, ok
	}
	if n.PayloadType != reflect.TypeFor[T]() {
		return zero, false
	}
	// A nil interface payload arrives as its zero value.
	v, _ := n.Payload.(T)
	return v, true
}

type subscription[T any] struct {
	broadcast.Subscriber[T]
	stream *Stream[T]
	hub    *broadcast.MemoryBroadcaster[T]
	done   chan struct{}
	once   sync.Once
}

func (s *subscription[T]) Close() error {
	err := s.Subscriber.Close()
	s.release()
	return err
}

func (s *subscription[T]) release() {
	s.once.Do(func() {
		close(s.done)
		s.stream.release(s.hub)
	})
}
