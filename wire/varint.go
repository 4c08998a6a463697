package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkt-cash/addrd/er"
)

// WriteVarInt writes x using the "size" codec: a single byte for values up
// to 252, otherwise a 0xFD/0xFE/0xFF prefix followed by a 2/4/8-byte
// little-endian length.
func WriteVarInt(w io.Writer, x uint64) er.R {
	var buf [9]byte
	switch {
	case x < 0xfd:
		buf[0] = byte(x)
		_, err := w.Write(buf[:1])
		return er.E(err)
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:3], uint16(x))
		_, err := w.Write(buf[:3])
		return er.E(err)
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:5], uint32(x))
		_, err := w.Write(buf[:5])
		return er.E(err)
	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:9], x)
		_, err := w.Write(buf[:9])
		return er.E(err)
	}
}

// ReadVarInt reads a value written by WriteVarInt.
func ReadVarInt(r io.Reader) (uint64, er.R) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, er.E(err)
	}
	switch prefix[0] {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, er.E(err)
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, er.E(err)
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, er.E(err)
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteUint32 writes a plain little-endian u32, used for the persisted
// format's version and network-magic header fields.
func WriteUint32(w io.Writer, v uint32) er.R {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return er.E(err)
}

// ReadUint32 reads a value written by WriteUint32.
func ReadUint32(r io.Reader) (uint32, er.R) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, er.E(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would write
// for x, used to compute Size() without actually serializing.
func VarIntSerializeSize(x uint64) int {
	switch {
	case x < 0xfd:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
