// Package chainhash implements the hash256 primitive (double SHA-256) used
// for bucket-placement hashing. It is a thin wrapper over crypto/sha256,
// mirroring the teacher's own chainhash package which does the same.
package chainhash

import "crypto/sha256"

// HashSize is the size in bytes of a hash256 digest.
const HashSize = sha256.Size

// Hash is a hash256 digest.
type Hash [HashSize]byte

// DoubleHashB computes hash256(b): sha256(sha256(b)).
func DoubleHashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// DoubleHashH is DoubleHashB returning a Hash value instead of a slice.
func DoubleHashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}
