package addrmgr

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/pkt-cash/addrd/er"
)

// debugSnapshot is the shape DebugJSON renders; it is a diagnostic view,
// not the canonical persisted format (that one is bit-exact binary, see
// serialize.go). Field names are deliberately verbose since this is meant
// to be read by a human running an ops tool, not round-tripped.
type debugSnapshot struct {
	Network    uint32   `json:"network_magic"`
	TotalFresh int      `json:"total_fresh"`
	TotalUsed  int      `json:"total_used"`
	Banned     int      `json:"banned"`
	Locals     int      `json:"local_addresses"`
	Addresses  []string `json:"addresses"`
}

// DebugJSON renders a human-readable snapshot of the manager's live state.
// It exists for operator tooling (cmd/addrtool --dump) and is not used for
// persistence; Export/Import own that format.
func (m *Manager) DebugJSON() ([]byte, er.R) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	snap := debugSnapshot{
		Network:    m.network,
		TotalFresh: m.totalFresh,
		TotalUsed:  m.totalUsed,
		Banned:     len(m.bans),
		Locals:     len(m.locals),
		Addresses:  make([]string, 0, len(m.addrIndex)),
	}
	for _, ka := range m.addrIndex {
		snap.Addresses = append(snap.Addresses, addrKeyString(ka))
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return nil, er.E(err)
	}
	return data, nil
}

func addrKeyString(ka *KnownAddress) string {
	return ka.NetAddress().ToIP().String()
}
