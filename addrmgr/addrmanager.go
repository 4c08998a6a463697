// Package addrmgr implements the peer address manager: the subsystem that
// remembers network endpoints of other peers, ranks them for connection
// attempts, records attempt/success history, and persists the set across
// restarts. See SPEC_FULL.md for the full design this package implements.
package addrmgr

import (
	"container/list"
	crand "crypto/rand"
	"math/rand"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkt-cash/addrd/addrmgr/externaladdrs"
	"github.com/pkt-cash/addrd/er"
	"github.com/pkt-cash/addrd/pktlog/log"
	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

// Logger is the subset of pktlog/log's package-level API the manager logs
// through; it is satisfied by the log package itself via packageLogger,
// and can be swapped out with SetLogger (e.g. to add a subsystem prefix,
// or to silence it in tests).
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type packageLogger struct{}

func (packageLogger) Tracef(format string, args ...interface{}) { log.Tracef(format, args...) }
func (packageLogger) Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func (packageLogger) Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func (packageLogger) Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func (packageLogger) Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }

// OpenFlags modifies Open's behavior.
type OpenFlags int

const (
	// OpenDefault attempts to load the configured file, falling back to
	// seeds on any failure (including the file not existing).
	OpenDefault OpenFlags = 0
	// OpenForceReseed skips attempting to load the file entirely and goes
	// straight to the seed-list fallback, e.g. for a caller that wants to
	// discard a possibly-stale cache on startup.
	OpenForceReseed OpenFlags = 1 << iota
)

// Manager is a concurrency-safe peer address manager. All exported
// methods lock an internal mutex around a structure that is otherwise
// written for a single owning actor.
type Manager struct {
	mtx sync.Mutex

	network     uint32
	defaultPort uint16
	file        string
	proxy       string

	key [32]byte

	addrIndex map[wire.Key]*KnownAddress
	fresh     [maxFreshBuckets]bucket
	used      [maxUsedBuckets]*list.List

	totalFresh int
	totalUsed  int
	dirty      bool

	bans    map[wire.Key]*wire.NetAddress
	banTime int64

	locals       map[wire.Key]*LocalEntry
	selfServices protocol.ServiceFlag

	rand *rand.Rand
	now  func() int64

	seeds      []string
	lookupFunc func(string) ([]net.IP, er.R)

	log      Logger
	external externaladdrs.ExternalLocalAddrs
}

// v4MappedLoopback is 127.0.0.1 in IPv4-mapped IPv6 form, used as the sole
// self-entry Open falls back to when the network has no seed list at all.
var v4MappedLoopback = [16]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 127, 0, 0, 1}

// New returns a new, empty address manager for the given network magic
// and default peer port (used when resolving bare-IP seeds). lookupFunc
// resolves a DNS seed hostname to a set of IPs; it is the manager's only
// required external collaborator, matching the teacher's New(dataDir,
// lookupFunc) constructor.
func New(network uint32, defaultPort uint16, lookupFunc func(string) ([]net.IP, er.R)) *Manager {
	m := &Manager{
		network:      network,
		defaultPort:  defaultPort,
		lookupFunc:   lookupFunc,
		banTime:      defaultBanTime,
		selfServices: protocol.SFNodeNetwork,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          func() int64 { return time.Now().Unix() },
		log:          packageLogger{},
		external:     externaladdrs.New(),
	}
	m.resetLocked()
	return m
}

// --- configuration setters -------------------------------------------------

// SetLogger overrides the manager's logging sink.
func (m *Manager) SetLogger(l Logger) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.log = l
}

// SetTimeSource overrides how the manager reads "now". The default is
// time.Now(); production callers typically supply an adjusted-time
// collaborator (network-median-offset clock) instead, per spec section 1.
func (m *Manager) SetTimeSource(now func() int64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.now = now
}

// SetRandSource overrides the manager's source of randomness, primarily
// for deterministic tests.
func (m *Manager) SetRandSource(r *rand.Rand) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.rand = r
}

// SetExternalSelf registers addr as an externally-visible self address,
// used when Add is called with a nil src and as Open's loopback fallback
// source of truth.
func (m *Manager) SetExternalSelf(addr *wire.NetAddress) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.external.Add(addr)
}

// SetProxy records the SOCKS proxy address seed/DNS resolution should be
// routed through. Actually dialing through it is the network driver's
// job (an external collaborator, see spec section 1); the address manager
// only remembers the configured value so it can be surfaced to that
// driver.
func (m *Manager) SetProxy(proxy string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.proxy = proxy
}

// SetBanDuration overrides the ban TTL (default 86400 seconds).
func (m *Manager) SetBanDuration(seconds int64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.banTime = seconds
}

// SetSeeds registers the DNS seed hostnames Open falls back to resolving
// when no persisted file loads successfully.
func (m *Manager) SetSeeds(seeds []string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.seeds = seeds
}

func (m *Manager) nowFn() int64 {
	return m.now()
}

// --- self address -----------------------------------------------------

// selfAddress returns the address substituted for a nil src in Add: the
// most recently registered externally-visible self address, or a
// services-only placeholder over the loopback address if none has been
// registered.
func (m *Manager) selfAddress() *wire.NetAddress {
	addrs := m.external.Addresses()
	if len(addrs) > 0 {
		return addrs[len(addrs)-1]
	}
	return &wire.NetAddress{IP: v4MappedLoopback, Services: m.selfServices, Timestamp: m.nowFn()}
}

// --- mutations ----------------------------------------------------------

// Add announces addr as having been seen by src (or, if src is nil, by
// the manager's own self address with no staleness penalty). It reports
// true iff addr was placed into a fresh bucket it was not already in (as a
// new entry, or as a new reference for a known one); merging services or
// refreshing the timestamp of a known entry alone reports false.
//
// addr.Port must be nonzero; this is a caller contract violation, not a
// recoverable condition, and panics (see spec section 7).
func (m *Manager) Add(addr, src *wire.NetAddress) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.add(addr, src)
}

func (m *Manager) add(origAddr, origSrc *wire.NetAddress) bool {
	assert(origAddr.Port != 0, "Add called with a zero port")

	selfAnnounced := origSrc == nil
	src := origSrc
	if src == nil {
		src = m.selfAddress()
	}

	now := m.nowFn()
	key := wire.AddrKey(origAddr)

	if ka, ok := m.addrIndex[key]; ok {
		ka.na.Services |= origAddr.Services

		interval := int64(addIntervalStale)
		if now-origAddr.Timestamp < freshWindow {
			interval = addIntervalFresh
		}
		penalty := int64(addPenaltyUntrusted)
		if selfAnnounced {
			penalty = 0
		}
		if ka.na.Timestamp < origAddr.Timestamp-interval-penalty {
			ka.na.Timestamp = origAddr.Timestamp
			m.dirty = true
		}

		if origAddr.Timestamp <= ka.na.Timestamp || ka.used || ka.refs == maxRefs {
			return false
		}

		// Stochastic reference growth: accept with probability 2^-refs,
		// i.e. reject unless a uniform draw over [0, 2^refs) lands on 0.
		factor := int32(1) << uint(ka.refs)
		if m.rand.Int31n(factor) != 0 {
			return false
		}
		return m.placeFresh(ka)
	}

	ts := origAddr.Timestamp
	if ts <= newAddrTimeFloor || ts > now+futureSkew {
		ts = now - newAddrDefaultAge
	}
	naCopy := *origAddr
	naCopy.Timestamp = ts
	srcCopy := *src
	ka := newKnownAddress(&naCopy, &srcCopy)

	m.addrIndex[key] = ka
	m.totalFresh++
	return m.placeFresh(ka)
}

// Remove deletes addr from the manager entirely, wherever it currently
// lives. Reports false if addr was not known.
func (m *Manager) Remove(addr *wire.NetAddress) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	key := wire.AddrKey(addr)
	ka, ok := m.addrIndex[key]
	if !ok {
		return false
	}

	if ka.used {
		assert(ka.usedBucket >= 0 && ka.elem != nil, "Remove found a used entry missing its bucket linkage")
		m.used[ka.usedBucket].Remove(ka.elem)
		m.totalUsed--
	} else {
		for i := range m.fresh {
			if _, ok := m.fresh[i][key]; ok {
				delete(m.fresh[i], key)
				ka.refs--
			}
		}
		assert(ka.refs == 0, "Remove left a fresh entry with nonzero refs")
		m.totalFresh--
	}

	delete(m.addrIndex, key)
	m.dirty = true
	return true
}

// MarkAttempt records a connection attempt against addr, regardless of
// outcome. No-op if addr is unknown.
func (m *Manager) MarkAttempt(addr *wire.NetAddress) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	ka, ok := m.addrIndex[wire.AddrKey(addr)]
	if !ok {
		return
	}
	ka.attempts++
	ka.lastAttempt = m.nowFn()
	m.dirty = true
}

// MarkSuccess refreshes addr's last-seen time on a bare successful
// connection, without touching attempts/last_success/last_attempt or
// promoting the entry to used; that bookkeeping belongs to MarkAck, which
// fires on a completed version handshake. No-op if addr is unknown.
func (m *Manager) MarkSuccess(addr *wire.NetAddress) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	ka, ok := m.addrIndex[wire.AddrKey(addr)]
	if !ok {
		return
	}
	now := m.nowFn()
	if now-ka.na.Timestamp > markSuccessRefreshWindow {
		ka.na.Timestamp = now
		m.dirty = true
	}
}

// Get returns a candidate endpoint to attempt a connection to; it is an
// alias for Select kept to mirror the spec's "get()" name in the external
// interface list.
func (m *Manager) Get() *wire.NetAddress {
	return m.Select()
}

// --- queries --------------------------------------------------------------

// Total returns the number of distinct endpoints the manager knows about.
func (m *Manager) Total() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.total()
}

func (m *Manager) total() int {
	return m.totalFresh + m.totalUsed
}

// IsFull reports whether the fresh table has reached its maximum
// capacity (maxFreshBuckets * maxEntries).
func (m *Manager) IsFull() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.totalFresh >= maxFreshBuckets*maxEntries
}

// Iterator yields the addresses known at the moment Iterate was called,
// skipping any removed since; per spec section 5, borrows from it are only valid
// until the next mutating call, which is why Next returns copies rather
// than manager-owned pointers.
type Iterator struct {
	mgr  *Manager
	keys []wire.Key
	idx  int
}

// Iterate begins a new iteration over every known address.
func (m *Manager) Iterate() *Iterator {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	keys := make([]wire.Key, 0, len(m.addrIndex))
	for k := range m.addrIndex {
		keys = append(keys, k)
	}
	return &Iterator{mgr: m, keys: keys}
}

// Next returns the next address in the iteration, or nil when exhausted.
func (it *Iterator) Next() *wire.NetAddress {
	it.mgr.mtx.Lock()
	defer it.mgr.mtx.Unlock()

	for it.idx < len(it.keys) {
		k := it.keys[it.idx]
		it.idx++
		if ka, ok := it.mgr.addrIndex[k]; ok {
			return ka.NetAddress()
		}
	}
	return nil
}

// --- lifecycle --------------------------------------------------------

// Open loads the manager's state from file if possible, otherwise seeds
// it: from the network's DNS seed list if one is configured (via
// SetSeeds), or with a single loopback self-entry if not. It reports
// whether the manager ended up with at least one address.
func (m *Manager) Open(file string, flags OpenFlags) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.file = file
	if file != "" && flags&OpenForceReseed == 0 {
		if f, err := os.Open(file); err == nil {
			loadErr := m.doImport(f)
			f.Close()
			if loadErr == nil {
				m.log.Infof("addrmgr: loaded %d addresses from %s", len(m.addrIndex), file)
				return m.total() > 0
			}
			m.log.Warnf("addrmgr: failed to load %s, reseeding: %v", file, loadErr)
			m.resetLocked()
		}
	}

	m.seed()
	return m.total() > 0
}

func (m *Manager) seed() {
	if len(m.seeds) == 0 {
		self := &wire.NetAddress{IP: v4MappedLoopback, Services: m.selfServices, Timestamp: m.nowFn()}
		m.add(self, nil)
		return
	}

	for _, seedHost := range m.seeds {
		ips, err := m.lookupFunc(seedHost)
		if err != nil {
			m.log.Warnf("addrmgr: seed lookup for %s failed: %v", seedHost, err)
			continue
		}
		for _, ip := range ips {
			na := wire.NewNetAddressIPPort(ip, m.defaultPort, protocol.SFNodeNetwork)
			na.Timestamp = m.nowFn()
			m.add(na, nil)
			if len(m.addrIndex) >= seedCap {
				return
			}
		}
		if len(m.addrIndex) >= seedCap {
			return
		}
	}
}

// Flush serializes the manager's state to its configured file if dirty.
// No-op if the manager is clean or no file was configured via Open.
func (m *Manager) Flush() er.R {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if !m.dirty || m.file == "" {
		return nil
	}

	tmp := m.file + ".tmp"
	f, errN := os.Create(tmp)
	if errN != nil {
		return er.E(errN)
	}
	if err := m.export(f); err != nil {
		f.Close()
		return err
	}
	if errN := f.Close(); errN != nil {
		return er.E(errN)
	}
	if errN := os.Rename(tmp, m.file); errN != nil {
		return er.E(errN)
	}
	m.dirty = false
	m.log.Debugf("addrmgr: flushed %d addresses to %s", len(m.addrIndex), m.file)
	return nil
}

// Close flushes the manager one last time.
func (m *Manager) Close() er.R {
	return m.Flush()
}

// Reset discards all entries and regenerates the bucket-placement key,
// reshuffling the entire layout. Bans and local addresses are kept.
func (m *Manager) Reset() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.addrIndex = make(map[wire.Key]*KnownAddress)
	for i := range m.fresh {
		m.fresh[i] = make(bucket)
	}
	for i := range m.used {
		m.used[i] = list.New()
	}
	m.totalFresh = 0
	m.totalUsed = 0
	if m.bans == nil {
		m.bans = make(map[wire.Key]*wire.NetAddress)
	}
	if m.locals == nil {
		m.locals = make(map[wire.Key]*LocalEntry)
	}

	if _, err := crand.Read(m.key[:]); err != nil {
		panic("addrmgr: failed to read random key: " + err.Error())
	}
	m.dirty = true
}
