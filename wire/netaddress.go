// Package wire defines the network-address type exchanged between peers
// and its wire encodings: the AddrKey used to identify an endpoint inside
// the persisted address-manager file, and the varint "size" codec used
// throughout that format.
package wire

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/pkt-cash/addrd/er"
	"github.com/pkt-cash/addrd/wire/protocol"
)

// NetAddress is an endpoint as announced on the wire: a 16-byte canonical
// IPv6 form (IPv4 addresses are stored IPv4-mapped), a port, a service bit
// set, and the last time the endpoint was seen/claimed to be up.
type NetAddress struct {
	IP        [16]byte
	Port      uint16
	Services  protocol.ServiceFlag
	Timestamp int64 // Unix seconds
}

// NewNetAddressIPPort builds a NetAddress from a net.IP and port, mapping
// IPv4 addresses into the IPv4-in-IPv6 form.
func NewNetAddressIPPort(ip net.IP, port uint16, services protocol.ServiceFlag) *NetAddress {
	na := &NetAddress{Port: port, Services: services}
	if v4 := ip.To4(); v4 != nil {
		copy(na.IP[:12], v4MappedPrefix[:])
		copy(na.IP[12:], v4)
	} else if v6 := ip.To16(); v6 != nil {
		copy(na.IP[:], v6)
	}
	return na
}

var v4MappedPrefix = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}

// ToIP converts the canonical 16-byte form back into a net.IP, collapsing
// the IPv4-mapped form back to 4 bytes.
func (na *NetAddress) ToIP() net.IP {
	ip := net.IP(na.IP[:])
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

// IsIPv4 reports whether the address is an IPv4-mapped IPv6 address.
func (na *NetAddress) IsIPv4() bool {
	return bytesEqual(na.IP[:12], v4MappedPrefix[:])
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AddService ORs the given service flags into the address's service set.
func (na *NetAddress) AddService(s protocol.ServiceFlag) {
	na.Services |= s
}

// Key is the master-index / fresh-bucket / used-bucket key for this
// address: the raw 16-byte address plus the port, ignoring services and
// timestamp. Two NetAddress values with the same Key refer to the same
// endpoint.
type Key [18]byte

// AddrKey returns the 18-byte on-disk/lookup key for na: 16 raw address
// bytes followed by the port in big-endian (network) byte order, matching
// the existing netaddr encoder's convention for ports.
func AddrKey(na *NetAddress) Key {
	var k Key
	copy(k[:16], na.IP[:])
	binary.BigEndian.PutUint16(k[16:18], na.Port)
	return k
}

// WriteAddrKey writes the AddrKey encoding of na.
func WriteAddrKey(w io.Writer, na *NetAddress) er.R {
	k := AddrKey(na)
	_, err := w.Write(k[:])
	return er.E(err)
}

// ReadAddrKey reads an AddrKey encoding into a freshly allocated
// NetAddress with zero Services/Timestamp (callers fill those in as the
// surrounding record dictates).
func ReadAddrKey(r io.Reader) (*NetAddress, er.R) {
	var k Key
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return nil, er.E(err)
	}
	na := &NetAddress{}
	copy(na.IP[:], k[:16])
	na.Port = binary.BigEndian.Uint16(k[16:18])
	return na, nil
}

// WriteAddrEntryRecord writes the full AddrEntryRecord wire layout for one
// master-index entry: AddrKey(addr), u64 services, i64 time, AddrKey(src),
// i32 attempts, i64 last_success, i64 last_attempt. All multi-byte
// integers other than the AddrKey ports are little-endian.
func WriteAddrEntryRecord(w io.Writer, addr, src *NetAddress, attempts int32, lastSuccess, lastAttempt int64) er.R {
	if err := WriteAddrKey(w, addr); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(addr.Services)); err != nil {
		return err
	}
	if err := writeInt64(w, addr.Timestamp); err != nil {
		return err
	}
	if err := WriteAddrKey(w, src); err != nil {
		return err
	}
	if err := writeInt32(w, attempts); err != nil {
		return err
	}
	if err := writeInt64(w, lastSuccess); err != nil {
		return err
	}
	return writeInt64(w, lastAttempt)
}

// ReadAddrEntryRecord is the inverse of WriteAddrEntryRecord. srcServices
// and srcTime are not stored on disk; callers default them (per spec,
// srcServices to the default service mask and srcTime to now).
func ReadAddrEntryRecord(r io.Reader) (addr, src *NetAddress, attempts int32, lastSuccess, lastAttempt int64, rErr er.R) {
	addr, rErr = ReadAddrKey(r)
	if rErr != nil {
		return
	}
	services, err := readUint64(r)
	if err != nil {
		rErr = err
		return
	}
	addr.Services = protocol.ServiceFlag(services)
	ts, err := readInt64(r)
	if err != nil {
		rErr = err
		return
	}
	addr.Timestamp = ts

	src, rErr = ReadAddrKey(r)
	if rErr != nil {
		return
	}
	attempts, err = readInt32(r)
	if err != nil {
		rErr = err
		return
	}
	lastSuccess, err = readInt64(r)
	if err != nil {
		rErr = err
		return
	}
	lastAttempt, err = readInt64(r)
	if err != nil {
		rErr = err
		return
	}
	return
}

func writeUint64(w io.Writer, v uint64) er.R {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return er.E(err)
}

func readUint64(r io.Reader) (uint64, er.R) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, er.E(err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeInt64(w io.Writer, v int64) er.R {
	return writeUint64(w, uint64(v))
}

func readInt64(r io.Reader) (int64, er.R) {
	v, err := readUint64(r)
	return int64(v), err
}

func writeInt32(w io.Writer, v int32) er.R {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return er.E(err)
}

func readInt32(r io.Reader) (int32, er.R) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, er.E(err)
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

// Now returns the current time as Unix seconds. Nothing in this module
// calls it; addrmgr reads time through its own injectable time source.
func Now() int64 {
	return time.Now().Unix()
}
