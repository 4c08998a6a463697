package addrmgr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkt-cash/addrd/addrmgr/addrutil"
	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

func TestFreshBucketDeterministic(t *testing.T) {
	m := testManager(t)
	a := addr("11.22.33.44", 8333)
	s := addr("55.66.77.88", 8333)

	b1 := m.freshBucket(a, s)
	b2 := m.freshBucket(a, s)
	assert.Equal(t, b1, b2)
	assert.GreaterOrEqual(t, b1, 0)
	assert.Less(t, b1, maxFreshBuckets)
}

func TestFreshBucketVariesWithKey(t *testing.T) {
	m1 := testManager(t)
	m2 := testManager(t)
	m2.key[0] ^= 0xff

	a := addr("11.22.33.44", 8333)
	s := addr("55.66.77.88", 8333)

	// Not a mathematical guarantee, but with a differing 32-byte key the
	// probability of an accidental collision is negligible.
	assert.NotEqual(t, m1.freshBucket(a, s), m2.freshBucket(a, s))
}

func TestUsedBucketDependsOnlyOnAddress(t *testing.T) {
	m := testManager(t)
	a := addr("11.22.33.44", 8333)
	s1 := addr("55.66.77.88", 8333)
	s2 := addr("99.1.2.3", 8333)

	assert.Equal(t, m.usedBucket(a), m.usedBucket(a))
	b1 := m.freshBucket(a, s1)
	b2 := m.freshBucket(a, s2)
	_ = b1
	_ = b2
	// usedBucket ignores src entirely, unlike freshBucket.
	u1 := m.usedBucket(a)
	u2 := m.usedBucket(a)
	assert.Equal(t, u1, u2)
}

func TestUsedBucketLittleEndianPort(t *testing.T) {
	m := testManager(t)
	a := wire.NewNetAddressIPPort(net.ParseIP("11.22.33.44"), 0x0102, protocol.SFNodeNetwork)

	// Port 0x0102 is mixed into h1 as the little-endian bytes 02 01; h1 < 8,
	// so its little-endian u32 encoding is h1 followed by three zero bytes.
	h1 := m.hash256(a.IP[:], []byte{0x02, 0x01}) % 8
	group := addrutil.GroupKey(a)
	want := int(m.hash256(group[:], []byte{byte(h1), 0, 0, 0}) % maxUsedBuckets)
	assert.Equal(t, want, m.usedBucket(a))
}
