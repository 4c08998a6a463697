package addrmgr

import "github.com/pkt-cash/addrd/wire"

// banKey is the ban-map key for an address: its AddrKey with the port
// zeroed, so a ban applies to the IP regardless of which port it was seen
// misbehaving on.
func banKey(a *wire.NetAddress) wire.Key {
	zeroed := *a
	zeroed.Port = 0
	return wire.AddrKey(&zeroed)
}

// Ban records a being banned as of now. A second Ban call on an address
// that is already banned is a no-op; the original ban instant (and hence
// its expiry) is preserved.
func (m *Manager) Ban(a *wire.NetAddress) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	k := banKey(a)
	if _, ok := m.bans[k]; ok {
		return
	}
	clone := *a
	clone.Port = 0
	clone.Timestamp = m.nowFn()
	m.bans[k] = &clone
	m.dirty = true
}

// Unban removes any ban record for a.
func (m *Manager) Unban(a *wire.NetAddress) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	k := banKey(a)
	if _, ok := m.bans[k]; ok {
		delete(m.bans, k)
		m.dirty = true
	}
}

// ClearBanned drops every ban record.
func (m *Manager) ClearBanned() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if len(m.bans) == 0 {
		return
	}
	m.bans = make(map[wire.Key]*wire.NetAddress)
	m.dirty = true
}

// IsBanned reports whether a is currently banned. A record older than the
// configured ban duration is lazily evicted and false is returned.
func (m *Manager) IsBanned(a *wire.NetAddress) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	k := banKey(a)
	entry, ok := m.bans[k]
	if !ok {
		return false
	}
	if m.nowFn() > entry.Timestamp+m.banTime {
		delete(m.bans, k)
		m.dirty = true
		return false
	}
	return true
}
