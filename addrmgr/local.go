package addrmgr

import (
	"github.com/pkt-cash/addrd/addrmgr/addrutil"
	"github.com/pkt-cash/addrd/wire"
)

// LocalAddrType classifies how a local address came to be known. The
// originating spec's data model names this field but its API surface
// (AddLocal(addr, score)) does not let a caller set it, so every address
// added through AddLocal is currently tagged LocalManual; the field is
// kept distinct from score so a future entry point (e.g. a discovered
// UPnP mapping) has somewhere to record its provenance without another
// schema change.
type LocalAddrType int

const (
	LocalManual LocalAddrType = iota
	LocalUPnP
	LocalBind
)

// LocalEntry is one of the node's own addresses, as it would be announced
// to peers.
type LocalEntry struct {
	Addr  *wire.NetAddress
	Type  LocalAddrType
	Score int
}

// AddLocal registers addr as one of the node's own addresses with the
// given starting score. It is rejected if addr is not routable or is
// already registered.
func (m *Manager) AddLocal(a *wire.NetAddress, score int) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if !addrutil.IsRoutable(a) {
		return false
	}
	k := wire.AddrKey(a)
	if _, ok := m.locals[k]; ok {
		return false
	}

	clone := *a
	clone.Services = m.selfServices
	m.locals[k] = &LocalEntry{Addr: &clone, Type: LocalManual, Score: score}
	m.dirty = true
	return true
}

// MarkLocal increments the score of a previously registered local
// address. Reports false if a is not registered.
func (m *Manager) MarkLocal(a *wire.NetAddress) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	le, ok := m.locals[wire.AddrKey(a)]
	if !ok {
		return false
	}
	le.Score++
	m.dirty = true
	return true
}

// HasLocal reports whether the manager has at least one local address
// registered. src is accepted for symmetry with GetLocal but does not
// affect the answer.
func (m *Manager) HasLocal(src *wire.NetAddress) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.locals) > 0
}

// GetLocal returns the best local address to announce to a peer connected
// from src (or, if src is nil, the highest-scored local address
// regardless of reachability), updating its last-seen timestamp. Returns
// nil if no local address is registered.
func (m *Manager) GetLocal(src *wire.NetAddress) *wire.NetAddress {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if len(m.locals) == 0 {
		return nil
	}

	var best *LocalEntry
	var bestReach addrutil.Reachability = -1
	for _, le := range m.locals {
		if src == nil {
			if best == nil || le.Score > best.Score {
				best = le
			}
			continue
		}
		reach := addrutil.ReachabilityFrom(le.Addr, src)
		if best == nil || reach > bestReach || (reach == bestReach && le.Score > best.Score) {
			best = le
			bestReach = reach
		}
	}

	best.Addr.Timestamp = m.nowFn()
	naCopy := *best.Addr
	return &naCopy
}
