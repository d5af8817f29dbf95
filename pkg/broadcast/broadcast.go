package broadcast

import (
	"context"
	"errors"
)

var (
	// ErrBroadcasterClosed is returned when broadcasting through a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcaster is closed")

	// ErrSubscriberClosed is returned when closing an already closed subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// Message wraps a broadcast value.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to every active subscriber.
type Broadcaster[T any] interface {
	// Broadcast delivers msg to all subscribers without blocking on slow ones.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Subscribe registers a subscriber that lives until ctx is done or it is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Close closes every subscriber and rejects further broadcasts.
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close detaches the subscriber from its broadcaster.
	Close() error
}
