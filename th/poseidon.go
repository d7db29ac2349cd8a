package th

import (
	"github.com/consensys/gnark-crypto/field/babybear"

	"github.com/wintersig/xmss-go/field"
	"github.com/wintersig/xmss-go/poseidon"
)

// poseidonStub implements TweakableHash via a sponge built on the teacher's
// Poseidon2 permutation (gnark-crypto, BabyBear field). Per spec.md §4.1 and
// §1, Poseidon is carried only as a contract-conformance placeholder: the
// byte<->field packing and the tweak domain separation wrapped around the
// permutation here have not been analyzed as a sponge construction, so
// (unlike the SHA3 backend) this type's collision resistance is not
// claimed — it exists so callers can exercise the same TweakableHash
// interface with an arithmetic-friendly primitive, matching what the
// original Python implementation's Poseidon module documents about itself
// (a placeholder standing in for "the actual Poseidon permutation").
type poseidonStub struct {
	n    int // output width in bytes
	perm *poseidon.Poseidon2
}

// NewPoseidonStub builds a Poseidon-backed TweakableHash with fixed output
// width n bytes (n > 0). It always succeeds: there is no "unsupported
// width" for a sponge, only a rate/capacity split picked internally.
func NewPoseidonStub(n int) TweakableHash {
	return &poseidonStub{n: n, perm: poseidon.NewPoseidon2_16()}
}

func (p *poseidonStub) MessageHash(m []byte) Digest {
	return p.sponge([]byte(sepMessage), m)
}

func (p *poseidonStub) ChainHash(d Digest, chainIndex int) Digest {
	return p.sponge(chainTweak(chainIndex), d)
}

func (p *poseidonStub) LeafHash(d Digest) Digest {
	return p.sponge([]byte(sepLeaf), d)
}

func (p *poseidonStub) NodeHash(left, right Digest, level, idx int) Digest {
	return p.sponge(nodeTweak(level, idx), left, right)
}

func (p *poseidonStub) OutputLen() int { return p.n }

func (p *poseidonStub) Raw(parts ...[]byte) Digest {
	return p.sponge(nil, parts...)
}

// sponge absorbs tweak||data... through the Poseidon2 permutation, each
// part packed into digitsFor(len) field elements, and squeezes p.n bytes back
// out. Mirrors the teacher's th/message_hash/poseidon.go absorb/permute
// /squeeze shape, sized to the 16-wide permutation this package uses.
func (p *poseidonStub) sponge(tweak []byte, parts ...[]byte) Digest {
	const capacity = 4
	width := p.perm.Width()
	rate := width - capacity

	input := field.PackDigits(tweak, digitsFor(len(tweak)))
	for _, part := range parts {
		input = append(input, field.PackDigits(part, digitsFor(len(part)))...)
	}

	state := make([]babybear.Element, width)
	for i := 0; i < len(input); i += rate {
		end := i + rate
		if end > len(input) {
			end = len(input)
		}
		for j := 0; j < end-i; j++ {
			state[j].Add(&state[j], &input[i+j])
		}
		p.perm.Permute(state)
	}

	needed := digitsFor(p.n)
	squeezed := make([]babybear.Element, 0, needed)
	for len(squeezed) < needed {
		take := rate
		if remaining := needed - len(squeezed); remaining < take {
			take = remaining
		}
		squeezed = append(squeezed, state[:take]...)
		if len(squeezed) < needed {
			p.perm.Permute(state)
		}
	}
	return field.UnpackDigits(squeezed, p.n)
}

// digitsFor returns ceil(n/4), the number of field elements the sponge
// uses for n bytes. A BabyBear element holds fewer than 31 bits, so that
// many elements do not carry every bit of n bytes: PackDigits keeps the
// input modulo P^digitsFor(n), and the top bits of a squeezed n-byte
// output are not fully populated.
func digitsFor(n int) int {
	return (n + 3) / 4
}
