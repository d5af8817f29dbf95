package mediator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// registry maps message names to subscriber records.
// Records are returned live or dead; callers resolve liveness at dispatch time.
type registry struct {
	mu        sync.RWMutex
	byMessage map[string]map[uuid.UUID]subscriber
}

func newRegistry() *registry {
	return &registry{byMessage: make(map[string]map[uuid.UUID]subscriber)}
}

// add stores sub under its token, replacing any record with the same token.
func (r *registry) add(sub subscriber) error {
	if sub == nil {
		return fmt.Errorf("%w: subscriber is nil", ErrInvalidArgument)
	}
	tok := sub.token()
	if tok.IsZero() {
		return fmt.Errorf("%w: token is empty", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.byMessage[tok.message]
	if !ok {
		subs = make(map[uuid.UUID]subscriber)
		r.byMessage[tok.message] = subs
	}
	subs[tok.id] = sub
	return nil
}

// remove deletes the record for tok. Reports whether one existed.
func (r *registry) remove(tok Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(tok)
}

func (r *registry) removeLocked(tok Token) bool {
	subs, ok := r.byMessage[tok.message]
	if !ok {
		return false
	}
	if _, ok := subs[tok.id]; !ok {
		return false
	}
	delete(subs, tok.id)
	if len(subs) == 0 {
		delete(r.byMessage, tok.message)
	}
	return true
}

// lookup returns a snapshot of every record registered under message.
func (r *registry) lookup(message string) []subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.byMessage[message]
	if len(subs) == 0 {
		return nil
	}
	out := make([]subscriber, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	return out
}

func (r *registry) contains(tok Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byMessage[tok.message][tok.id]
	return ok
}

// prune removes records whose receiver has been collected and returns how many were removed.
func (r *registry) prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for message, subs := range r.byMessage {
		for id, s := range subs {
			if !s.alive() {
				delete(subs, id)
				removed++
			}
		}
		if len(subs) == 0 {
			delete(r.byMessage, message)
		}
	}
	return removed
}

// count returns the number of records, live or dead.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, subs := range r.byMessage {
		n += len(subs)
	}
	return n
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.byMessage)
}

// dropDead removes the record for tok if its receiver has been collected.
func (r *registry) dropDead(tok Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byMessage[tok.message][tok.id]
	if !ok || s.alive() {
		return false
	}
	return r.removeLocked(tok)
}
