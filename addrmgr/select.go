package addrmgr

import "github.com/pkt-cash/addrd/wire"

// Select returns a candidate endpoint to attempt a connection to, or nil
// if the manager holds nothing. It is a weighted rejection sampler: it
// repeatedly draws a random bucket and entry from whichever table was
// chosen, then accepts it with probability proportional to the entry's
// chance() score, amplifying the acceptance threshold on every miss so
// the loop terminates with probability 1.
func (m *Manager) Select() *wire.NetAddress {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	ka := m.selectKnown()
	if ka == nil {
		return nil
	}
	return ka.NetAddress()
}

func (m *Manager) selectKnown() *KnownAddress {
	if m.totalFresh == 0 && m.totalUsed == 0 {
		return nil
	}

	useUsed := m.totalUsed > 0 && (m.totalFresh == 0 || m.rand.Intn(2) == 0)

	now := m.nowFn()
	factor := 1.0
	threshold := float64(int64(1) << selectRejectionBits)

	var last *KnownAddress
	for i := 0; i < maxSelectIterations; {
		ka := m.sampleOne(useUsed)
		if ka == nil {
			continue
		}
		i++
		last = ka

		r := m.rand.Int31n(1 << selectRejectionBits)
		if float64(r) < factor*ka.chance(now)*threshold {
			return ka
		}
		factor *= selectFactorGrowth
	}

	// Termination is statistically immediate (factor exceeds 1 for any
	// positive chance after a few dozen misses) but not formally bounded;
	// this cap is a defensive backstop per the redesign note in
	// DESIGN.md. Returning the last sampled candidate rather than nil
	// avoids surprising callers with a spurious "nothing available".
	return last
}

func (m *Manager) sampleOne(useUsed bool) *KnownAddress {
	if useUsed {
		bi := m.rand.Intn(maxUsedBuckets)
		b := m.used[bi]
		if b.Len() == 0 {
			return nil
		}
		idx := m.rand.Intn(b.Len())
		e := b.Front()
		for i := 0; i < idx; i++ {
			e = e.Next()
		}
		return e.Value.(*KnownAddress)
	}

	bi := m.rand.Intn(maxFreshBuckets)
	b := m.fresh[bi]
	if len(b) == 0 {
		return nil
	}
	idx := m.rand.Intn(len(b))
	i := 0
	for _, ka := range b {
		if i == idx {
			return ka
		}
		i++
	}
	return nil
}
