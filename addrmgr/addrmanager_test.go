package addrmgr

import (
	"bytes"
	"math/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/addrd/er"
	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

func testManager(t *testing.T) *Manager {
	m := New(0xd9b4bef9, 8333, func(string) ([]net.IP, er.R) { return nil, nil })
	m.SetRandSource(rand.New(rand.NewSource(1)))
	return m
}

func addr(ip string, port uint16) *wire.NetAddress {
	return wire.NewNetAddressIPPort(net.ParseIP(ip), port, protocol.SFNodeNetwork)
}

func TestAddAndSelect(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)

	added := m.Add(addr("5.6.7.8", 8333), src)
	assert.True(t, added)
	assert.Equal(t, 1, m.Total())

	got := m.Select()
	require.NotNil(t, got)
	assert.Equal(t, addr("5.6.7.8", 8333).ToIP().String(), got.ToIP().String())
}

func TestAddRejectsZeroPort(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)

	assert.Panics(t, func() {
		m.Add(&wire.NetAddress{IP: addr("5.6.7.8", 1).IP, Port: 0}, src)
	})
}

func TestAddDuplicateFromSameSourceIsSuppressed(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)

	assert.True(t, m.Add(target, src))
	assert.Equal(t, 1, m.Total())

	// Re-announcing with an older or equal timestamp from the same source
	// should not grow the ref count nor change Total.
	assert.False(t, m.Add(target, src))
	assert.Equal(t, 1, m.Total())
}

func TestMarkAckPromotesToUsed(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)

	require.True(t, m.Add(target, src))
	ka := m.addrIndex[wire.AddrKey(target)]
	assert.False(t, ka.Used())

	m.MarkAck(target, protocol.SFNodeNetwork)
	assert.True(t, ka.Used())
	assert.Equal(t, 0, m.totalFresh)
	assert.Equal(t, 1, m.totalUsed)
}

func TestRemoveFresh(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)

	require.True(t, m.Add(target, src))
	assert.True(t, m.Remove(target))
	assert.Equal(t, 0, m.Total())
	assert.False(t, m.Remove(target))
}

func TestRemoveUsed(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)

	require.True(t, m.Add(target, src))
	m.MarkAck(target, protocol.SFNodeNetwork)
	assert.True(t, m.Remove(target))
	assert.Equal(t, 0, m.Total())
}

func TestMarkAttempt(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)
	require.True(t, m.Add(target, src))

	m.MarkAttempt(target)
	ka := m.addrIndex[wire.AddrKey(target)]
	assert.EqualValues(t, 1, ka.Attempts())
}

// TestMarkSuccessDoesNotResetAttempts pins down the distinction between a
// bare successful connection and a completed handshake: only MarkAck
// (promotion) may reset attempts/last_success, per
// original_source/src/node/addrman.c's btc_addrman_mark_success, which
// touches nothing but addr.time. A caller that repeatedly calls
// MarkSuccess without ever completing a handshake must not be able to
// launder a failing address's staleness accounting this way.
func TestMarkSuccessDoesNotResetAttempts(t *testing.T) {
	m := testManager(t)
	clock := int64(1_000_000)
	m.SetTimeSource(func() int64 { return clock })

	src := addr("1.2.3.4", 8333)
	target := addr("5.6.7.8", 8333)
	require.True(t, m.Add(target, src))

	ka := m.addrIndex[wire.AddrKey(target)]
	ka.attempts = maxFailures
	ka.lastSuccess = 0

	m.MarkSuccess(target)
	assert.EqualValues(t, maxFailures, ka.Attempts())
	assert.Zero(t, ka.LastSuccess())

	// addr.time is refreshed only once it is stale by more than the
	// refresh window.
	ka.na.Timestamp = clock - markSuccessRefreshWindow - 1
	m.MarkSuccess(target)
	assert.Equal(t, clock, ka.na.Timestamp)
}

func TestExportImportRoundTrip(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	for i := 0; i < 20; i++ {
		ip := net.IPv4(byte(10), byte(i), byte(i*2), byte(i*3))
		require.True(t, m.Add(wire.NewNetAddressIPPort(ip, 8333, protocol.SFNodeNetwork), src))
	}
	m.MarkAck(wire.NewNetAddressIPPort(net.IPv4(10, 1, 2, 3), 8333, protocol.SFNodeNetwork), protocol.SFNodeNetwork)

	var buf bytes.Buffer
	require.NoError(t, m.Export(&buf))
	assert.Equal(t, buf.Len(), m.Size())

	m2 := testManager(t)
	m2.network = m.network
	require.NoError(t, m2.Import(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, m.Total(), m2.Total())
}

func TestImportRejectsCorruption(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	require.True(t, m.Add(addr("5.6.7.8", 8333), src))

	var buf bytes.Buffer
	require.NoError(t, m.Export(&buf))
	corrupt := buf.Bytes()
	corrupt[4] ^= 0xff // flip a byte of the network magic

	m2 := testManager(t)
	m2.network = m.network
	err := m2.Import(bytes.NewReader(corrupt))
	// A rejected import leaves the manager reset to empty.
	assert.Error(t, err)
	assert.Equal(t, 0, m2.Total())
}

func TestFreshBucketOverflowEvicts(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)

	// Force many entries into the same fresh bucket isn't practical to
	// target directly without reimplementing the hash, so instead this
	// drives enough volume that evictFresh is certainly exercised
	// somewhere, and checks the manager stays internally consistent.
	for i := 0; i < 2000; i++ {
		ip := net.IPv4(byte(i>>16), byte(i>>8), byte(i), 1)
		m.Add(wire.NewNetAddressIPPort(ip, 8333, protocol.SFNodeNetwork), src)
	}
	assert.LessOrEqual(t, m.totalFresh, maxFreshBuckets*maxEntries)
}

func TestBanTTL(t *testing.T) {
	m := testManager(t)
	clock := int64(1000)
	m.SetTimeSource(func() int64 { return clock })
	m.SetBanDuration(100)

	a := addr("9.9.9.9", 8333)
	m.Ban(a)
	assert.True(t, m.IsBanned(a))

	clock += 50
	assert.True(t, m.IsBanned(a))

	clock += 100
	assert.False(t, m.IsBanned(a))
}

func TestLocalAddresses(t *testing.T) {
	m := testManager(t)
	local := addr("8.8.8.8", 8333)
	assert.True(t, m.AddLocal(local, 5))
	assert.False(t, m.AddLocal(local, 5))

	got := m.GetLocal(nil)
	require.NotNil(t, got)
	assert.Equal(t, local.ToIP().String(), got.ToIP().String())

	assert.True(t, m.MarkLocal(local))
}

func TestResetRegeneratesKey(t *testing.T) {
	m := testManager(t)
	oldKey := m.key
	m.Reset()
	assert.NotEqual(t, oldKey, m.key)
	assert.Equal(t, 0, m.Total())
}
