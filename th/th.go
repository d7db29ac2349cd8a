// Package th implements the tweakable hash abstraction: domain-separated
// hashing for the message, chain, leaf and node roles used throughout the
// signature engine.
package th

import (
	"encoding/binary"

	"github.com/wintersig/xmss-go/internal/xerrors"
)

// Digest is an immutable fixed-width hash output.
type Digest []byte

// Tweak separator bytes, prepended (followed by any role-specific fields) to
// the data before hashing. Distinct per role so the same underlying primitive
// can never be confused across uses.
const (
	sepMessage = "MSG"
	sepChain   = "CHAIN"
	sepLeaf    = "LEAF"
	sepNode    = "NODE"
)

// TweakableHash is the four-operation contract every hash family backend
// must provide. All four operations return a Digest of OutputLen() bytes.
type TweakableHash interface {
	MessageHash(m []byte) Digest
	ChainHash(d Digest, chainIndex int) Digest
	LeafHash(d Digest) Digest
	NodeHash(left, right Digest, level int, idx int) Digest
	OutputLen() int

	// Raw applies the underlying primitive directly to the concatenation
	// of parts, with no tweak prefix. The Winternitz hash-chain walk
	// (ots.chain) uses this rather than ChainHash: the chain step hashes
	// acc‖single_byte(chainIndex) with the index fixed across every
	// iteration, which is a different byte layout than the CHAIN-tweaked
	// contract operation above.
	Raw(parts ...[]byte) Digest
}

// chainTweak and nodeTweak are shared by every backend: they build the
// tweak prefix handed to the underlying primitive ahead of the data.
func chainTweak(chainIndex int) []byte {
	b := make([]byte, 0, len(sepChain)+4)
	b = append(b, sepChain...)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(chainIndex))
	return append(b, idx[:]...)
}

func nodeTweak(level, idx int) []byte {
	b := make([]byte, 0, len(sepNode)+8)
	b = append(b, sepNode...)
	var lv, ix [4]byte
	binary.BigEndian.PutUint32(lv[:], uint32(level))
	binary.BigEndian.PutUint32(ix[:], uint32(idx))
	b = append(b, lv[:]...)
	return append(b, ix[:]...)
}

// ErrUnsupportedWidth is returned by NewSHA3 when asked for an unsupported
// output width.
var ErrUnsupportedWidth = xerrors.InvalidParameter
