// Package protocol defines the wire-level service bit flags advertised by a
// network address, independent of the address manager itself.
package protocol

// ServiceFlag is a bitmask of services advertised by a peer address.
type ServiceFlag uint64

const (
	// SFNodeNetwork indicates the peer serves the full block chain.
	SFNodeNetwork ServiceFlag = 1 << iota
	// SFNodeGetUTXO indicates the peer supports the getutxo protocol.
	SFNodeGetUTXO
	// SFNodeBloom indicates the peer supports bloom filtering.
	SFNodeBloom
	// SFNodeWitness indicates the peer supports segregated witness.
	SFNodeWitness
)
