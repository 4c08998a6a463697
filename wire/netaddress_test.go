package wire

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/addrd/wire/protocol"
)

func TestAddrKeyBigEndianPort(t *testing.T) {
	na := NewNetAddressIPPort(net.ParseIP("1.2.3.4"), 0x0102, protocol.SFNodeNetwork)
	k := AddrKey(na)
	assert.Equal(t, byte(0x01), k[16])
	assert.Equal(t, byte(0x02), k[17])
}

func TestAddrEntryRecordRoundTrip(t *testing.T) {
	addr := NewNetAddressIPPort(net.ParseIP("1.2.3.4"), 8333, protocol.SFNodeNetwork)
	addr.Timestamp = 12345
	src := NewNetAddressIPPort(net.ParseIP("5.6.7.8"), 8333, protocol.SFNodeNetwork)

	var buf bytes.Buffer
	require.NoError(t, WriteAddrEntryRecord(&buf, addr, src, 3, 999, 1000))
	assert.Equal(t, addrEntryRecordTestSize, buf.Len())

	gotAddr, gotSrc, attempts, lastSuccess, lastAttempt, err := ReadAddrEntryRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, addr.IP, gotAddr.IP)
	assert.Equal(t, addr.Port, gotAddr.Port)
	assert.Equal(t, addr.Services, gotAddr.Services)
	assert.Equal(t, addr.Timestamp, gotAddr.Timestamp)
	assert.Equal(t, src.IP, gotSrc.IP)
	assert.EqualValues(t, 3, attempts)
	assert.EqualValues(t, 999, lastSuccess)
	assert.EqualValues(t, 1000, lastAttempt)
}

// addrEntryRecordTestSize mirrors addrmgr's addrEntryRecordSize constant,
// duplicated here since wire must not import addrmgr (the dependency runs
// the other way).
const addrEntryRecordTestSize = 18 + 8 + 8 + 18 + 4 + 8 + 8

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 252, 253, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 62}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, c))
		assert.Equal(t, VarIntSerializeSize(c), buf.Len())
		got, err := ReadVarInt(&buf)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestIsIPv4(t *testing.T) {
	v4 := NewNetAddressIPPort(net.ParseIP("1.2.3.4"), 8333, protocol.SFNodeNetwork)
	assert.True(t, v4.IsIPv4())

	v6 := NewNetAddressIPPort(net.ParseIP("2001:db8::1"), 8333, protocol.SFNodeNetwork)
	assert.False(t, v6.IsIPv4())
}
