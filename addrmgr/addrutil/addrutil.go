// Package addrutil is the network-address support library the address
// manager core is built on: group-key coarsening for bucket placement,
// routability filtering, and reachability classification between a
// destination and a candidate source address. None of this is address-
// manager policy; it is purely a function of the address bytes themselves,
// which is why it lives in its own package the way the teacher's
// addrmgr/addrutil package does.
package addrutil

import (
	"net"

	"github.com/pkt-cash/addrd/wire"
)

// network classification byte, mirrors Bitcoin Core's GetGroup first byte.
const (
	netIPv4 byte = iota + 1
	netIPv6
	netOnion
	netTeredo
	netLocal
	netUnroutable
)

// onionCatPrefix is the OnionCat /48 prefix (fd87:d87e:eb43::/48) used to
// tunnel .onion addresses through the IPv6 address space.
var onionCatPrefix = [6]byte{0xfd, 0x87, 0xd8, 0x7e, 0xeb, 0x43}

// teredoPrefix is the Teredo /32 prefix (2001:0000::/32).
var teredoPrefix = [4]byte{0x20, 0x01, 0x00, 0x00}

func classify(ip net.IP) byte {
	if v4 := ip.To4(); v4 != nil {
		if v4.IsLoopback() || v4.IsUnspecified() || v4.IsLinkLocalUnicast() {
			return netLocal
		}
		return netIPv4
	}
	if len(ip) == 16 {
		var b6 [6]byte
		copy(b6[:], ip[:6])
		if b6 == onionCatPrefix {
			return netOnion
		}
		var b4 [4]byte
		copy(b4[:], ip[:4])
		if b4 == teredoPrefix {
			return netTeredo
		}
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return netLocal
		}
		return netIPv6
	}
	return netUnroutable
}

// GroupKey returns the 6-byte bucket-coarsening group identifier for an
// address: the network class byte followed by the /16 prefix for IPv4,
// the /32 prefix for IPv6, or the onion service prefix for Tor addresses.
// Addresses in the same group are assumed to share an announcing entity
// for Sybil-resistance purposes.
func GroupKey(na *wire.NetAddress) [6]byte {
	ip := na.ToIP()
	class := classify(ip)

	var g [6]byte
	g[0] = class
	switch class {
	case netIPv4:
		v4 := ip.To4()
		g[1] = v4[0]
		g[2] = v4[1]
	case netIPv6:
		copy(g[1:5], na.IP[:4])
	case netOnion:
		copy(g[1:6], na.IP[6:11])
	case netTeredo:
		// group by the Teredo server's embedded IPv4 address (bytes 4-8).
		copy(g[1:5], na.IP[4:8])
	default:
		// Local/unroutable addresses all coarsen into a single group so
		// they can never dominate a bucket via group-key diversity.
	}
	return g
}

// IsRoutable reports whether na could plausibly be dialed on the public
// internet: not loopback, not unspecified, not link-local, not multicast,
// and not an RFC1918/RFC4193-style private range.
func IsRoutable(na *wire.NetAddress) bool {
	if na.Port == 0 {
		return false
	}
	ip := na.ToIP()
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		return !isRFC1918(v4)
	}
	class := classify(ip)
	if class == netOnion {
		return true
	}
	return !isULA(ip)
}

func isRFC1918(v4 net.IP) bool {
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1]&0xf0 == 16:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	default:
		return false
	}
}

func isULA(ip net.IP) bool {
	return len(ip) == 16 && ip[0]&0xfe == 0xfc
}

// Reachability is a coarse score of how reachable a destination address is
// from a given source address; higher is better. It is used by GetLocal to
// pick the best locally-owned address to announce to a given peer.
type Reachability int

const (
	ReachUnreachable Reachability = iota
	ReachDefault
	ReachTeredo
	ReachIPv6Weak
	ReachIPv4
	ReachIPv6Strong
	ReachPrivate
)

// ReachabilityFrom classifies how reachable dest is when announced to a
// peer connected from src. A nil src means "no known source", scored as
// ReachDefault so callers fall back to comparing score alone.
func ReachabilityFrom(dest, src *wire.NetAddress) Reachability {
	if src == nil {
		return ReachDefault
	}
	destClass := classify(dest.ToIP())
	srcClass := classify(src.ToIP())

	switch destClass {
	case netIPv4:
		if srcClass == netIPv4 {
			return ReachIPv4
		}
		return ReachDefault
	case netIPv6:
		switch srcClass {
		case netIPv6:
			if isSameGroup(dest, src) {
				return ReachIPv6Strong
			}
			return ReachIPv6Weak
		case netTeredo:
			return ReachIPv6Weak
		case netIPv4:
			return ReachIPv4
		default:
			return ReachDefault
		}
	case netOnion:
		if srcClass == netOnion {
			return ReachPrivate
		}
		return ReachDefault
	case netTeredo:
		if srcClass == netTeredo {
			return ReachTeredo
		}
		if srcClass == netIPv6 {
			return ReachIPv6Weak
		}
		return ReachDefault
	default:
		return ReachDefault
	}
}

func isSameGroup(a, b *wire.NetAddress) bool {
	return GroupKey(a) == GroupKey(b)
}

// NetAddressKey returns a stable string identity for na, used only for
// debug logging and diagnostic dumps (the binary AddrKey is the canonical
// lookup/serialization key).
func NetAddressKey(na *wire.NetAddress) string {
	ip := na.ToIP()
	return net.JoinHostPort(ip.String(), itoa(na.Port))
}

func itoa(port uint16) string {
	if port == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for port > 0 {
		i--
		buf[i] = byte('0' + port%10)
		port /= 10
	}
	return string(buf[i:])
}
