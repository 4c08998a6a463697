// Package externaladdrs holds the set of addresses the node has been told
// (by configuration, UPnP, or a peer-reported "you see me as...") represent
// itself on the public network. Discovering these is an external
// collaborator's job; this package only stores what it is given and
// returns it in insertion order. addrmgr.Manager uses the most recently
// added address as the announcing source when Add is called with a nil src.
package externaladdrs

import "github.com/pkt-cash/addrd/wire"

// ExternalLocalAddrs is the self-address collaborator interface the
// address manager depends on.
type ExternalLocalAddrs interface {
	// Addresses returns every externally-reported self address currently
	// known, most-recently-added last.
	Addresses() []*wire.NetAddress
	// Add registers addr as an externally-visible self address.
	Add(addr *wire.NetAddress)
}

type externalLocalAddrs struct {
	addrs []*wire.NetAddress
}

// New returns an empty ExternalLocalAddrs collaborator.
func New() ExternalLocalAddrs {
	return &externalLocalAddrs{}
}

func (e *externalLocalAddrs) Addresses() []*wire.NetAddress {
	out := make([]*wire.NetAddress, len(e.addrs))
	copy(out, e.addrs)
	return out
}

func (e *externalLocalAddrs) Add(addr *wire.NetAddress) {
	e.addrs = append(e.addrs, addr)
}
