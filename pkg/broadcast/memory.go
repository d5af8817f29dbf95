package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-memory Broadcaster.
// Each subscriber owns a buffered channel; when it is full the message is dropped
// for that subscriber only.
type MemoryBroadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*memorySubscriber[T]]struct{}
	bufferSize  int
	closed      bool
}

// NewMemoryBroadcaster creates a broadcaster with the given per-subscriber buffer size.
// Sizes below 1 are raised to 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*memorySubscriber[T]]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber. It is removed when ctx is done or Close is called.
// Subscribing to a closed broadcaster returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s := &memorySubscriber[T]{
		ch:          make(chan Message[T], b.bufferSize),
		done:        make(chan struct{}),
		broadcaster: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.finish()
		return s
	}
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.remove(s)
		case <-s.done:
		}
	}()

	return s
}

// Broadcast delivers msg to every subscriber that has buffer space.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for s := range b.subscribers {
		select {
		case s.ch <- msg:
		default:
			// slow consumer: drop for this subscriber only
		}
	}

	return nil
}

// Subscribers returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscribers. Calling Close more than once is safe.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*memorySubscriber[T], 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	clear(b.subscribers)
	b.mu.Unlock()

	for _, s := range subs {
		s.finish()
	}
	return nil
}

// remove detaches s and closes its channel. Reports whether s was still attached.
func (b *MemoryBroadcaster[T]) remove(s *memorySubscriber[T]) bool {
	b.mu.Lock()
	_, ok := b.subscribers[s]
	delete(b.subscribers, s)
	b.mu.Unlock()

	// Closing happens after the write lock is released, so no Broadcast is mid-send.
	return s.finish() && ok
}

type memorySubscriber[T any] struct {
	ch          chan Message[T]
	done        chan struct{}
	once        sync.Once
	broadcaster *MemoryBroadcaster[T]
}

func (s *memorySubscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	if !s.broadcaster.remove(s) {
		return ErrSubscriberClosed
	}
	return nil
}

// finish closes the channels once. Reports whether this call did the closing.
func (s *memorySubscriber[T]) finish() bool {
	closed := false
	s.once.Do(func() {
		close(s.ch)
		close(s.done)
		closed = true
	})
	return closed
}
