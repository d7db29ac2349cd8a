// Package prf provides deterministic seed derivation for OTS hash
// chains: given a master secret, a leaf index and a chain index, it
// produces the same chain-starting seed every time. This backs the
// resource note that OTS keypairs need not be eagerly materialised and
// stored — the i-th keypair can instead be regenerated on demand from
// a master secret, provided derivation is deterministic.
package prf

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/wintersig/xmss-go/th"
)

// PRF derives a per-(leafIndex, chainIndex) seed from a master key.
type PRF interface {
	KeyGen(rng io.Reader) []byte
	Apply(key []byte, leafIndex uint32, chainIndex uint64) th.Digest
	OutputLen() int
}

// prfDomainSep domain-separates this derivation from any other use of
// SHA3 elsewhere in the engine.
var prfDomainSep = []byte{
	0x00, 0x01, 0x12, 0xff, 0x00, 0x01, 0xfa, 0xff,
	0x00, 0xaf, 0x12, 0xff, 0x01, 0xfa, 0xff, 0x00,
}

// SHA3PRF derives seeds with SHA3-256, truncated or left full-length to
// outputLen bytes.
type SHA3PRF struct {
	keyLen    int
	outputLen int
}

// NewSHA3PRF builds a SHA3PRF with a keyLen-byte master key and
// outputLen-byte derived seeds. Callers deriving OTS chain seeds should
// set outputLen to the target TweakableHash's OutputLen().
func NewSHA3PRF(keyLen, outputLen int) *SHA3PRF {
	return &SHA3PRF{keyLen: keyLen, outputLen: outputLen}
}

func (p *SHA3PRF) KeyGen(rng io.Reader) []byte {
	key := make([]byte, p.keyLen)
	if _, err := io.ReadFull(rng, key); err != nil {
		panic("prf: failed to generate key: " + err.Error())
	}
	return key
}

func (p *SHA3PRF) Apply(key []byte, leafIndex uint32, chainIndex uint64) th.Digest {
	h := sha3.New256()
	h.Write(prfDomainSep)
	h.Write(key)

	var leaf [4]byte
	binary.BigEndian.PutUint32(leaf[:], leafIndex)
	h.Write(leaf[:])

	var chain [8]byte
	binary.BigEndian.PutUint64(chain[:], chainIndex)
	h.Write(chain[:])

	full := h.Sum(nil)
	if len(full) > p.outputLen {
		return full[:p.outputLen]
	}
	return full
}

func (p *SHA3PRF) OutputLen() int {
	return p.outputLen
}
