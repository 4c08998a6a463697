package addrmgr

import (
	"math/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

// TestSelectFavorsLowAttemptCounts is the stochastic-fairness scenario:
// given two otherwise-identical used entries, one with a long failure
// streak and one untouched, repeated Select calls should draw the
// untouched one noticeably more often. This is inherently probabilistic,
// so the assertion uses a generous margin rather than an exact ratio.
func TestSelectFavorsLowAttemptCounts(t *testing.T) {
	m := testManager(t)
	m.SetRandSource(rand.New(rand.NewSource(42)))
	src := addr("1.2.3.4", 8333)

	good := addr("20.0.0.1", 8333)
	bad := addr("20.0.0.2", 8333)
	require.True(t, m.Add(good, src))
	require.True(t, m.Add(bad, src))
	m.MarkAck(good, protocol.SFNodeNetwork)
	m.MarkAck(bad, protocol.SFNodeNetwork)

	badKA := m.addrIndex[wire.AddrKey(bad)]
	badKA.attempts = maxFailures

	goodCount, badCount := 0, 0
	for i := 0; i < 2000; i++ {
		got := m.Select()
		require.NotNil(t, got)
		switch got.ToIP().String() {
		case good.ToIP().String():
			goodCount++
		case bad.ToIP().String():
			badCount++
		}
	}
	assert.Greater(t, goodCount, badCount)
}

func TestSelectEmptyManagerReturnsNil(t *testing.T) {
	m := testManager(t)
	assert.Nil(t, m.Select())
}

func TestSelectReturnsEntryWhenBothTablesPopulated(t *testing.T) {
	m := testManager(t)
	src := addr("1.2.3.4", 8333)
	for i := 0; i < 5; i++ {
		ip := net.IPv4(30, 0, 0, byte(i+1))
		m.Add(wire.NewNetAddressIPPort(ip, 8333, protocol.SFNodeNetwork), src)
	}
	used := addr("30.1.0.1", 8333)
	require.True(t, m.Add(used, src))
	m.MarkAck(used, protocol.SFNodeNetwork)

	assert.Greater(t, m.totalUsed, 0)
	assert.Greater(t, m.totalFresh, 0)
	got := m.Select()
	assert.NotNil(t, got)
}
