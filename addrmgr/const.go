package addrmgr

// Bucket geometry. These mirror the canonical addrman constants exactly;
// changing any of them invalidates the bit-exact on-disk format.
const (
	maxFreshBuckets = 1024
	maxUsedBuckets  = 256
	maxEntries      = 64 // per bucket, both tables
	maxRefs         = 8  // MAX_REFS: max fresh buckets one entry can occupy
)

// Staleness thresholds.
const (
	horizonDays = 30 // HORIZON_DAYS
	maxRetries  = 3  // MAX_RETRIES
	minBadDays  = 7  // MIN_FAIL_DAYS
	maxFailures = 10 // MAX_FAILURES

	recentAttemptWindow = 60  // seconds; overrides staleness if more recent
	futureSkew          = 600 // seconds; addr.time beyond now+this is bogus
)

// Add() timing knobs.
const (
	freshWindow         = 86400 // "fresh" vs "old" classification for addr.time
	addIntervalFresh    = 3600
	addIntervalStale    = 86400
	addPenaltyUntrusted = 7200

	// newAddrTimeFloor/newAddrDefaultAge: a new entry whose announced time
	// is before the floor (genesis-era placeholder timestamps some
	// implementations send) or after now+futureSkew is reset to
	// now-newAddrDefaultAge instead of trusted verbatim.
	newAddrTimeFloor   = 100_000_000
	newAddrDefaultAge  = 5 * 86400
)

// markSuccessRefreshWindow is how stale addr.time must be, in seconds,
// before MarkSuccess bumps it to now (a bare successful connection, short
// of a completed handshake).
const markSuccessRefreshWindow = 20 * 60

// Selection.
const (
	// selectRejectionBits sizes the uniform draw in the rejection sampler:
	// r is drawn from [0, 2^selectRejectionBits).
	selectRejectionBits = 30
	// selectFactorGrowth is the per-miss multiplier on the acceptance
	// threshold; after ~40 misses the threshold exceeds 1 for any
	// positive chance, so termination is statistically immediate. This
	// cap bounds it defensively per the redesign note in DESIGN.md.
	selectFactorGrowth     = 1.2
	maxSelectIterations    = 1000
	chanceAttemptBase      = 0.66
	chanceAttemptCeiling   = 8
	chanceRecentPenalty    = 0.01
	chanceRecentWindowSecs = 600
)

// Bans.
const defaultBanTime = 86400 // seconds

// Serialization.
const (
	serVersion = 0

	// addrKeySize is the on-disk size of an AddrKey (16-byte raw address
	// + 2-byte port).
	addrKeySize = 18

	// addrEntryRecordSize is the fixed on-disk size of one
	// AddrEntryRecord: AddrKey(addr) + u64 services + i64 time +
	// AddrKey(src) + i32 attempts + i64 last_success + i64 last_attempt.
	addrEntryRecordSize = addrKeySize + 8 + 8 + addrKeySize + 4 + 8 + 8
)

// seedCap is the number of entries Open will accumulate from the seed list
// before it stops resolving further seeds. Named per the "Temporary"
// short-circuit documented in DESIGN NOTES of the originating spec; it is
// small on purpose; once a manager has this many addresses it has more
// than enough to bootstrap further discovery via Select/gossip.
const seedCap = 10
