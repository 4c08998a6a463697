package addrmgr

import (
	"container/list"
	"math"

	"github.com/pkt-cash/addrd/wire"
)

// KnownAddress is the address manager's entry for one known endpoint
// (AddrEntry in the design). The master index owns it; fresh buckets hold
// non-owning references counted by refs, and a used bucket holds it via an
// intrusive list element, at which point ownership is conceptually moved
// off the fresh side entirely (refs == 0, used == true).
type KnownAddress struct {
	na      *wire.NetAddress // addr; mutated in place by Add, MarkSuccess and MarkAck
	srcAddr *wire.NetAddress // src; immutable after creation

	used bool
	refs int // ref_count: 0..maxRefs; 0 while used, >= 1 while fresh

	attempts    int32
	lastSuccess int64
	lastAttempt int64

	// usedBucket/elem are only meaningful when used is true. Storing the
	// bucket index on the entry (rather than rediscovering it by scanning
	// every used bucket for a matching list head, as section 4.7 of the
	// originating design literally describes) makes Remove O(1); see the
	// redesign decision recorded in DESIGN.md.
	usedBucket int
	elem       *list.Element
}

func newKnownAddress(addr, src *wire.NetAddress) *KnownAddress {
	return &KnownAddress{na: addr, srcAddr: src, usedBucket: -1}
}

// NetAddress returns a copy of the entry's current address.
func (ka *KnownAddress) NetAddress() *wire.NetAddress {
	naCopy := *ka.na
	return &naCopy
}

// Attempts returns the number of connection attempts since the last
// success.
func (ka *KnownAddress) Attempts() int32 { return ka.attempts }

// LastAttempt returns the Unix timestamp of the last connection attempt,
// or 0 if never attempted.
func (ka *KnownAddress) LastAttempt() int64 { return ka.lastAttempt }

// LastSuccess returns the Unix timestamp of the last successful handshake,
// or 0 if never successful.
func (ka *KnownAddress) LastSuccess() int64 { return ka.lastSuccess }

// Used reports whether the entry currently lives in the used table.
func (ka *KnownAddress) Used() bool { return ka.used }

// isStale reports whether ka is a candidate for pruning during
// evict_fresh, per the staleness predicate: a recent attempt always wins
// (not stale), then any of a future-dated, zero, too-old, or too-many-
// failures condition marks it stale.
func (ka *KnownAddress) isStale(now int64) bool {
	if ka.lastAttempt >= now-recentAttemptWindow {
		return false
	}
	if ka.na.Timestamp > now+futureSkew {
		return true
	}
	if ka.na.Timestamp == 0 {
		return true
	}
	if now-ka.na.Timestamp > horizonDays*86400 {
		return true
	}
	if ka.lastSuccess == 0 && ka.attempts >= maxRetries {
		return true
	}
	if now-ka.lastSuccess > minBadDays*86400 && ka.attempts >= maxFailures {
		return true
	}
	return false
}

// chance is the selection weight for ka at time now: it decays
// exponentially with attempts and is further suppressed for 10 minutes
// after any attempt, successful or not, so a just-tried address doesn't
// immediately get redrawn.
func (ka *KnownAddress) chance(now int64) float64 {
	attempts := float64(ka.attempts)
	if attempts > chanceAttemptCeiling {
		attempts = chanceAttemptCeiling
	}
	c := math.Pow(chanceAttemptBase, attempts)
	if now-ka.lastAttempt < chanceRecentWindowSecs {
		c *= chanceRecentPenalty
	}
	return c
}
