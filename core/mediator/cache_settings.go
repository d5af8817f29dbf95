package mediator

import (
	"fmt"
	"math"
	"time"
)

type cachePolicy uint8

const (
	policyUnset cachePolicy = iota
	policyResends
	policyDeadline
	policyTTL
	policyForever
)

// CacheSettings is the eviction policy of a cached broadcast.
// Exactly one policy applies: a replay quota, an absolute expiration, or explicit
// removal only. The zero value is invalid; use one of the constructors.
type CacheSettings struct {
	policy   cachePolicy
	resends  int
	deadline time.Time
	ttl      time.Duration
}

// CacheForResends keeps the message until it has been replayed n times.
// Negative n is treated as 0, which evicts the entry at the next sweep.
func CacheForResends(n int) CacheSettings {
	return CacheSettings{policy: policyResends, resends: max(n, 0)}
}

// CacheUntil keeps the message until the wall clock reaches t.
func CacheUntil(t time.Time) CacheSettings {
	return CacheSettings{policy: policyDeadline, deadline: t}
}

// CacheFor keeps the message for d, measured from the moment it is broadcast.
func CacheFor(d time.Duration) CacheSettings {
	return CacheSettings{policy: policyTTL, ttl: d}
}

// CacheForever keeps the message until it is removed with RemoveFromCache.
func CacheForever() CacheSettings {
	return CacheSettings{policy: policyForever}
}

// IsZero reports whether no policy was chosen.
func (s CacheSettings) IsZero() bool { return s.policy == policyUnset }

// MaxResends returns the replay quota; unbounded policies report math.MaxInt.
func (s CacheSettings) MaxResends() int {
	if s.policy == policyResends {
		return s.resends
	}
	return math.MaxInt
}

// ExpiresAt returns the absolute expiration and whether one exists.
// Relative policies created with CacheFor only have one after the broadcast stored them.
func (s CacheSettings) ExpiresAt() (time.Time, bool) {
	if s.policy == policyDeadline {
		return s.deadline, true
	}
	return time.Time{}, false
}

func (s CacheSettings) String() string {
	switch s.policy {
	case policyResends:
		return fmt.Sprintf("resends(%d)", s.resends)
	case policyDeadline:
		return "until(" + s.deadline.Format(time.RFC3339Nano) + ")"
	case policyTTL:
		return "for(" + s.ttl.String() + ")"
	case policyForever:
		return "forever"
	default:
		return "unset"
	}
}

// resolve pins relative policies to an absolute deadline.
func (s CacheSettings) resolve(now time.Time) CacheSettings {
	if s.policy == policyTTL {
		return CacheUntil(now.Add(s.ttl))
	}
	return s
}

// expired reports whether an entry under this policy is eligible for eviction.
func (s CacheSettings) expired(now time.Time, resends int) bool {
	switch s.policy {
	case policyResends:
		return resends >= s.resends
	case policyDeadline:
		return !now.Before(s.deadline)
	default:
		return false
	}
}
