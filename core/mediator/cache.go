package mediator

import (
	"reflect"
	"slices"
	"sync"
	"time"
)

type cacheEntry struct {
	token       Token
	message     string
	payload     any
	payloadType reflect.Type // nil for signals
	settings    CacheSettings
	resends     int
	// pending counts replays handed out but not yet confirmed or released.
	pending int
}

// evictable reports whether the entry's policy says it must go.
// Entries with outstanding replays are kept until those settle, unless their deadline passed.
func (e *cacheEntry) evictable(now time.Time) bool {
	if e.pending > 0 && e.settings.policy == policyResends {
		return false
	}
	return e.settings.expired(now, e.resends)
}

// claimable reports whether one more replay may be handed out.
func (e *cacheEntry) claimable(now time.Time) bool {
	return !e.settings.expired(now, e.resends+e.pending)
}

// messageCache is the ordered list of cached broadcasts.
// Expiration is evaluated lazily by sweep; there is no background timer.
type messageCache struct {
	mu      sync.Mutex
	entries []*cacheEntry
	now     func() time.Time
}

func newMessageCache(now func() time.Time) *messageCache {
	return &messageCache{now: now}
}

// store appends a new entry and returns its token.
func (c *messageCache) store(message string, payload any, payloadType reflect.Type, settings CacheSettings) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := &cacheEntry{
		token:       newToken(message, now),
		message:     message,
		payload:     payload,
		payloadType: payloadType,
		settings:    settings.resolve(now),
	}
	c.entries = append(c.entries, e)
	return e.token
}

// sweep evicts every eligible entry and returns how many were removed.
func (c *messageCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

func (c *messageCache) sweepLocked(now time.Time) int {
	before := len(c.entries)
	c.entries = slices.DeleteFunc(c.entries, func(e *cacheEntry) bool {
		return e.evictable(now)
	})
	return before - len(c.entries)
}

// claim sweeps, then reserves one replay of every live entry for message.
// Each returned entry must be passed back to settle.
func (c *messageCache) claim(message string) []*cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	var claimed []*cacheEntry
	for _, e := range c.entries {
		if e.message == message && e.claimable(now) {
			e.pending++
			claimed = append(claimed, e)
		}
	}
	return claimed
}

// settle records the outcome of claimed replays and sweeps so entries that reached
// their quota are evicted immediately.
func (c *messageCache) settle(delivered, failed []*cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range delivered {
		e.pending--
		e.resends++
	}
	for _, e := range failed {
		e.pending--
	}
	c.sweepLocked(c.now())
}

// contains sweeps, then reports whether any entry exists for message.
func (c *messageCache) contains(message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(c.now())
	return slices.ContainsFunc(c.entries, func(e *cacheEntry) bool {
		return e.message == message
	})
}

// remove deletes the entry issued tok regardless of its policy.
func (c *messageCache) remove(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.entries)
	c.entries = slices.DeleteFunc(c.entries, func(e *cacheEntry) bool {
		return e.token.Equal(tok)
	})
	return len(c.entries) != before
}

func (c *messageCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *messageCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.entries = nil
}
