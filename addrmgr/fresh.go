package addrmgr

import "github.com/pkt-cash/addrd/wire"

// bucket is a fresh-table bucket: a non-owning mapping from an endpoint's
// key to its entry. Ownership of the entry itself stays with the master
// index (Manager.addrIndex).
type bucket map[wire.Key]*KnownAddress

// placeFresh inserts ka into its fresh bucket, evicting to make room if
// necessary. It is the "Placement" step shared by both the new-entry and
// existing-entry paths of Add. MarkAck's demotion of an evicted used entry
// back into fresh does not go through it.
func (m *Manager) placeFresh(ka *KnownAddress) bool {
	key := wire.AddrKey(ka.na)
	bi := m.freshBucket(ka.na, ka.srcAddr)
	b := m.fresh[bi]

	if _, ok := b[key]; ok {
		return false
	}
	if len(b) >= maxEntries {
		m.evictFresh(bi)
	}
	b[key] = ka
	ka.refs++
	m.dirty = true
	return true
}

// evictFresh makes room in a full fresh bucket: every stale entry in it is
// pruned, and the single oldest-by-addr.time non-stale entry is pruned as
// well, guaranteeing at least one freed slot.
func (m *Manager) evictFresh(biIndex int) {
	b := m.fresh[biIndex]
	now := m.nowFn()

	var old *KnownAddress
	var oldKey wire.Key
	for key, ka := range b {
		if ka.isStale(now) {
			m.dropFreshRef(b, key, ka)
			continue
		}
		if old == nil || ka.na.Timestamp < old.na.Timestamp {
			old = ka
			oldKey = key
		}
	}
	if old != nil {
		m.dropFreshRef(b, oldKey, old)
	}
}

// dropFreshRef removes ka from b and decrements its ref count, deleting it
// from the master index (and destroying it) once the count reaches zero.
func (m *Manager) dropFreshRef(b bucket, key wire.Key, ka *KnownAddress) {
	delete(b, key)
	ka.refs--
	assert(ka.refs >= 0, "addrmgr: fresh ref count underflow")
	if ka.refs == 0 {
		delete(m.addrIndex, key)
		m.totalFresh--
	}
}
