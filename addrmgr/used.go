package addrmgr

import (
	"container/list"

	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

// MarkAck records a successful version handshake with addr, promoting it
// from fresh to used if it isn't already there.
func (m *Manager) MarkAck(addr *wire.NetAddress, services protocol.ServiceFlag) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.markAck(addr, services)
}

func (m *Manager) markAck(addr *wire.NetAddress, services protocol.ServiceFlag) {
	key := wire.AddrKey(addr)
	ka, ok := m.addrIndex[key]
	if !ok {
		return
	}

	now := m.nowFn()
	ka.na.Services |= services
	ka.lastSuccess = now
	ka.lastAttempt = now
	ka.attempts = 0
	m.dirty = true

	if ka.used {
		return
	}

	oldBucket := -1
	for i := range m.fresh {
		if _, ok := m.fresh[i][key]; ok {
			delete(m.fresh[i], key)
			ka.refs--
			oldBucket = i
		}
	}
	assert(ka.refs == 0, "addrmgr: MarkAck found nonzero refs after removing every fresh reference")
	m.totalFresh--

	bi := m.usedBucket(ka.na)
	b := m.used[bi]
	if b.Len() < maxEntries {
		ka.used = true
		ka.usedBucket = bi
		ka.elem = b.PushBack(ka)
		m.totalUsed++
		return
	}

	m.promoteWithEviction(ka, bi, oldBucket)
}

// promoteWithEviction handles the used-bucket-full case: the oldest entry
// in bucket bi is demoted back into fresh (preferring its own fresh
// bucket, falling back to oldBucket if that one is also full), and ka
// takes its place in bi's list, in place, preserving list order.
func (m *Manager) promoteWithEviction(ka *KnownAddress, bi, oldBucket int) {
	evictedElem := m.pickUsedEvictee(bi)
	evicted := evictedElem.Value.(*KnownAddress)

	target := m.freshBucket(evicted.na, evicted.srcAddr)
	if len(m.fresh[target]) >= maxEntries {
		target = oldBucket
	}

	evictedElem.Value = ka
	ka.used = true
	ka.usedBucket = bi
	ka.elem = evictedElem

	evicted.used = false
	evicted.usedBucket = -1
	evicted.elem = nil
	evicted.refs = 1
	m.fresh[target][wire.AddrKey(evicted.na)] = evicted
	m.totalFresh++
}

// pickUsedEvictee returns the element holding the entry with the smallest
// addr.time in the given used bucket.
func (m *Manager) pickUsedEvictee(biIndex int) *list.Element {
	b := m.used[biIndex]
	var oldest *list.Element
	var oldestTime int64
	for e := b.Front(); e != nil; e = e.Next() {
		ka := e.Value.(*KnownAddress)
		if oldest == nil || ka.na.Timestamp < oldestTime {
			oldest = e
			oldestTime = ka.na.Timestamp
		}
	}
	return oldest
}
