package mediator_test

import (
	"sync"
	"time"
)

type User struct {
	ID   string
	Name string
}

type Order struct {
	ID    string
	Total int
}

// recorder collects everything a subscriber receives.
type recorder[T any] struct {
	mu      sync.Mutex
	name    string
	got     []T
	signals int
	errs    []error
}

func newRecorder[T any](name string) *recorder[T] {
	return &recorder[T]{name: name}
}

func (r *recorder[T]) OnPayload(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, v)
}

func (r *recorder[T]) OnSignal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals++
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) Received() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.got))
	copy(out, r.got)
	return out
}

func (r *recorder[T]) Signals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signals
}

func (r *recorder[T]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

// fakeClock is a manually advanced clock for cache expiration tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
