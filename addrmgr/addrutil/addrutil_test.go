package addrutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

func na(ip string, port uint16) *wire.NetAddress {
	return wire.NewNetAddressIPPort(net.ParseIP(ip), port, protocol.SFNodeNetwork)
}

func TestGroupKeySameSlash16(t *testing.T) {
	a := na("203.0.113.5", 8333)
	b := na("203.0.113.250", 8333)
	assert.Equal(t, GroupKey(a), GroupKey(b))
}

func TestGroupKeyDifferentSlash16(t *testing.T) {
	a := na("203.0.113.5", 8333)
	b := na("203.1.113.5", 8333)
	assert.NotEqual(t, GroupKey(a), GroupKey(b))
}

func TestIsRoutableRejectsPrivate(t *testing.T) {
	assert.False(t, IsRoutable(na("10.0.0.1", 8333)))
	assert.False(t, IsRoutable(na("192.168.1.1", 8333)))
	assert.False(t, IsRoutable(na("127.0.0.1", 8333)))
	assert.True(t, IsRoutable(na("8.8.8.8", 8333)))
}

func TestIsRoutableRejectsZeroPort(t *testing.T) {
	assert.False(t, IsRoutable(na("8.8.8.8", 0)))
}

func TestReachabilityFromNilSrc(t *testing.T) {
	assert.Equal(t, ReachDefault, ReachabilityFrom(na("8.8.8.8", 8333), nil))
}

func TestReachabilityIPv4ToIPv4(t *testing.T) {
	assert.Equal(t, ReachIPv4, ReachabilityFrom(na("8.8.8.8", 8333), na("1.1.1.1", 8333)))
}
