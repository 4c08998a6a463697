package addrmgr

import (
	"container/list"
	"io"

	"github.com/pkt-cash/addrd/er"
	"github.com/pkt-cash/addrd/wire"
	"github.com/pkt-cash/addrd/wire/protocol"
)

// countingWriter wraps an io.Writer and counts bytes written through it,
// used to assert export's output matches Size()'s prediction exactly.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// Export serializes the manager's entire state to w in the bit-exact
// on-disk format: u32 version, u32 network magic, 32-byte key, the master
// index, then the 1024 fresh buckets and 256 used buckets as AddrKey
// lists.
func (m *Manager) Export(w io.Writer) er.R {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.export(w)
}

func (m *Manager) export(w io.Writer) er.R {
	cw := &countingWriter{w: w}
	if err := m.writeAll(cw); err != nil {
		return err
	}
	assert(cw.n == m.size(), "addrmgr: export wrote a different byte count than Size() predicted")
	return nil
}

func (m *Manager) writeAll(w io.Writer) er.R {
	if err := wire.WriteUint32(w, serVersion); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, m.network); err != nil {
		return err
	}
	if _, err := w.Write(m.key[:]); err != nil {
		return er.E(err)
	}

	if err := wire.WriteVarInt(w, uint64(len(m.addrIndex))); err != nil {
		return err
	}
	for _, ka := range m.addrIndex {
		if err := wire.WriteAddrEntryRecord(w, ka.na, ka.srcAddr, ka.attempts, ka.lastSuccess, ka.lastAttempt); err != nil {
			return err
		}
	}

	for i := 0; i < maxFreshBuckets; i++ {
		b := m.fresh[i]
		if err := wire.WriteVarInt(w, uint64(len(b))); err != nil {
			return err
		}
		for key := range b {
			if _, err := w.Write(key[:]); err != nil {
				return er.E(err)
			}
		}
	}

	for i := 0; i < maxUsedBuckets; i++ {
		b := m.used[i]
		if err := wire.WriteVarInt(w, uint64(b.Len())); err != nil {
			return err
		}
		for e := b.Front(); e != nil; e = e.Next() {
			ka := e.Value.(*KnownAddress)
			key := wire.AddrKey(ka.na)
			if _, err := w.Write(key[:]); err != nil {
				return er.E(err)
			}
		}
	}
	return nil
}

// Size returns the exact number of bytes Export would write.
func (m *Manager) Size() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.size()
}

func (m *Manager) size() int {
	n := 4 + 4 + len(m.key)
	n += wire.VarIntSerializeSize(uint64(len(m.addrIndex)))
	n += len(m.addrIndex) * addrEntryRecordSize

	for i := 0; i < maxFreshBuckets; i++ {
		l := len(m.fresh[i])
		n += wire.VarIntSerializeSize(uint64(l)) + l*addrKeySize
	}
	for i := 0; i < maxUsedBuckets; i++ {
		l := m.used[i].Len()
		n += wire.VarIntSerializeSize(uint64(l)) + l*addrKeySize
	}
	return n
}

// Import replaces the manager's entire state with what is read from r. Any
// validation failure resets the manager to empty (per spec: a corrupted
// file must not leave a half-loaded structure around) and the failure is
// returned to the caller.
func (m *Manager) Import(r io.Reader) er.R {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if err := m.doImport(r); err != nil {
		m.resetLocked()
		return err
	}
	return nil
}

func (m *Manager) doImport(r io.Reader) er.R {
	version, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	if version != serVersion {
		return er.Errorf("addrmgr: unsupported on-disk version %d", version)
	}
	magic, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	if magic != m.network {
		return er.Errorf("addrmgr: network magic mismatch: file has %08x, manager is %08x", magic, m.network)
	}

	var key [32]byte
	if _, e := io.ReadFull(r, key[:]); e != nil {
		return er.E(e)
	}

	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}

	now := m.nowFn()
	addrIndex := make(map[wire.Key]*KnownAddress, n)
	for i := uint64(0); i < n; i++ {
		addr, src, attempts, lastSuccess, lastAttempt, rerr := wire.ReadAddrEntryRecord(r)
		if rerr != nil {
			return rerr
		}
		// src.services/time are not persisted (see spec section 6);
		// default them as documented there.
		src.Services = protocol.SFNodeNetwork
		src.Timestamp = now

		ka := newKnownAddress(addr, src)
		ka.attempts = attempts
		ka.lastSuccess = lastSuccess
		ka.lastAttempt = lastAttempt
		addrIndex[wire.AddrKey(addr)] = ka
	}

	var fresh [maxFreshBuckets]bucket
	for i := range fresh {
		fresh[i] = make(bucket)
	}
	for i := 0; i < maxFreshBuckets; i++ {
		l, err := wire.ReadVarInt(r)
		if err != nil {
			return err
		}
		if l > maxEntries {
			return er.Errorf("addrmgr: fresh bucket %d has %d entries, exceeds max of %d", i, l, maxEntries)
		}
		for j := uint64(0); j < l; j++ {
			var k wire.Key
			if _, e := io.ReadFull(r, k[:]); e != nil {
				return er.E(e)
			}
			ka, ok := addrIndex[k]
			if !ok {
				return er.Errorf("addrmgr: fresh bucket %d references an address not in the master index", i)
			}
			if _, dup := fresh[i][k]; dup {
				return er.Errorf("addrmgr: fresh bucket %d contains a duplicate address", i)
			}
			fresh[i][k] = ka
			ka.refs++
		}
	}

	var used [maxUsedBuckets]*list.List
	for i := range used {
		used[i] = list.New()
	}
	for i := 0; i < maxUsedBuckets; i++ {
		l, err := wire.ReadVarInt(r)
		if err != nil {
			return err
		}
		if l > maxEntries {
			return er.Errorf("addrmgr: used bucket %d has %d entries, exceeds max of %d", i, l, maxEntries)
		}
		for j := uint64(0); j < l; j++ {
			var k wire.Key
			if _, e := io.ReadFull(r, k[:]); e != nil {
				return er.E(e)
			}
			ka, ok := addrIndex[k]
			if !ok {
				return er.Errorf("addrmgr: used bucket %d references an address not in the master index", i)
			}
			if ka.refs != 0 || ka.used {
				return er.Errorf("addrmgr: used bucket %d references an address already placed elsewhere", i)
			}
			ka.used = true
			ka.usedBucket = i
			ka.elem = used[i].PushBack(ka)
		}
	}

	var probe [1]byte
	if n2, _ := io.ReadFull(r, probe[:]); n2 > 0 {
		return er.Errorf("addrmgr: trailing bytes after address manager data")
	}

	totalFresh, totalUsed := 0, 0
	for k, ka := range addrIndex {
		if ka.used {
			totalUsed++
			continue
		}
		if ka.refs == 0 {
			return er.Errorf("addrmgr: address %x is referenced by neither the fresh nor used table", k)
		}
		totalFresh++
	}

	m.key = key
	m.addrIndex = addrIndex
	m.fresh = fresh
	m.used = used
	m.totalFresh = totalFresh
	m.totalUsed = totalUsed
	m.dirty = false
	return nil
}
