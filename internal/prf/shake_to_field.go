package prf

import (
	"encoding/binary"
	"io"

	"github.com/consensys/gnark-crypto/field/babybear"
	"golang.org/x/crypto/sha3"

	"github.com/wintersig/xmss-go/th"
)

// shakePRFDomainSep domain-separates the field-valued derivation from
// SHA3PRF's byte-valued one.
var shakePRFDomainSep = []byte{
	0xae, 0xae, 0x22, 0xff, 0x00, 0x01, 0xfa, 0xff,
	0x21, 0xaf, 0x12, 0x00, 0x01, 0x11, 0xff, 0x00,
}

// ShakePRFtoField derives seeds as a sequence of BabyBear field
// elements via SHAKE128, for use with the Poseidon-backed tweakable
// hash, whose sponge operates over that same field.
type ShakePRFtoField struct {
	keyLen      int
	outputLenFE int
}

// NewShakePRFtoField builds a ShakePRFtoField with a keyLen-byte master
// key, deriving outputLenFE field elements per seed.
func NewShakePRFtoField(keyLen, outputLenFE int) *ShakePRFtoField {
	return &ShakePRFtoField{keyLen: keyLen, outputLenFE: outputLenFE}
}

func (p *ShakePRFtoField) KeyGen(rng io.Reader) []byte {
	key := make([]byte, p.keyLen)
	if _, err := io.ReadFull(rng, key); err != nil {
		panic("prf: failed to generate key: " + err.Error())
	}
	return key
}

// Apply derives outputLenFE BabyBear field elements from key, leafIndex
// and chainIndex via SHAKE128, reducing each 8-byte block modulo the
// BabyBear prime.
func (p *ShakePRFtoField) Apply(key []byte, leafIndex uint32, chainIndex uint64) th.Digest {
	shake := sha3.NewShake128()
	shake.Write(shakePRFDomainSep)
	shake.Write(key)

	var leaf [4]byte
	binary.BigEndian.PutUint32(leaf[:], leafIndex)
	shake.Write(leaf[:])

	var chain [8]byte
	binary.BigEndian.PutUint64(chain[:], chainIndex)
	shake.Write(chain[:])

	const bytesPerElement = 8
	raw := make([]byte, bytesPerElement*p.outputLenFE)
	shake.Read(raw)

	result := make([]byte, 0, p.outputLenFE*4)
	for i := 0; i < p.outputLenFE; i++ {
		start := i * bytesPerElement
		val := binary.BigEndian.Uint64(raw[start:start+bytesPerElement]) % 2013265921 // BabyBear prime
		var elem babybear.Element
		elem.SetUint64(val)
		b := elem.Bytes()
		result = append(result, b[:]...)
	}
	return result
}

// OutputLen returns the derived seed length in bytes: 4 per field
// element, matching babybear.Element.Bytes()'s width.
func (p *ShakePRFtoField) OutputLen() int {
	return p.outputLenFE * 4
}
