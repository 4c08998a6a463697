package addrmgr

import (
	"encoding/binary"

	"github.com/pkt-cash/addrd/addrmgr/addrutil"
	"github.com/pkt-cash/addrd/chainhash"
	"github.com/pkt-cash/addrd/wire"
)

// hash256 mixes the manager's key with the given parts and returns the
// first 4 bytes of the digest, little-endian, as an unsigned integer. This
// is H(x...) from the bucket-placement design: first 4 bytes little-endian
// of hash256(key ∥ x...).
func (m *Manager) hash256(parts ...[]byte) uint32 {
	n := len(m.key)
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, m.key[:]...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	sum := chainhash.DoubleHashB(buf)
	return binary.LittleEndian.Uint32(sum[:4])
}

// freshBucket computes the fresh-table bucket for an entry announced by
// src. It depends on both the address and its source, so the same
// endpoint may land in up to maxRefs distinct fresh buckets when announced
// by distinct sources.
func (m *Manager) freshBucket(addr, src *wire.NetAddress) int {
	groupAddr := addrutil.GroupKey(addr)
	groupSrc := addrutil.GroupKey(src)

	h1 := m.hash256(groupAddr[:], groupSrc[:]) % 64
	var h1le [4]byte
	binary.LittleEndian.PutUint32(h1le[:], h1)

	h2 := m.hash256(groupSrc[:], h1le[:])
	return int(h2 % maxFreshBuckets)
}

// usedBucket computes the used-table bucket for an entry. It depends only
// on the address itself, so a given endpoint always has the same used
// bucket regardless of who announced it.
//
// The originating design mixes the address's port in native-endian byte
// order into h1 here (an explicitly flagged open question: native-endian
// mixing makes saved state non-portable across architectures). This
// implementation resolves that question by fixing the port encoding to
// little-endian for portability and cross-implementation interchange; see
// DESIGN.md.
func (m *Manager) usedBucket(addr *wire.NetAddress) int {
	var portLE [2]byte
	binary.LittleEndian.PutUint16(portLE[:], addr.Port)

	h1 := m.hash256(addr.IP[:], portLE[:]) % 8
	var h1le [4]byte
	binary.LittleEndian.PutUint32(h1le[:], h1)

	groupAddr := addrutil.GroupKey(addr)
	h2 := m.hash256(groupAddr[:], h1le[:])
	return int(h2 % maxUsedBuckets)
}
