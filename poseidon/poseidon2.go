// Package poseidon wraps gnark-crypto's Poseidon2 permutation over the
// BabyBear field. It exposes the raw permutation only; sponge framing
// (rate/capacity split, absorb/squeeze) lives with the caller in th.
package poseidon

import (
	"github.com/consensys/gnark-crypto/field/babybear"
	"github.com/consensys/gnark-crypto/field/babybear/poseidon2"
)

// Element is a BabyBear field element.
type Element = babybear.Element

// Poseidon2 is a fixed-width Poseidon2 permutation instance.
type Poseidon2 struct {
	perm  *poseidon2.Permutation
	width int
}

// NewPoseidon2_16 builds the width-16 permutation (8 external rounds, 13
// internal rounds, matching Plonky3's default_babybear_poseidon2_16).
func NewPoseidon2_16() *Poseidon2 {
	return &Poseidon2{perm: poseidon2.NewPermutation(16, 8, 13), width: 16}
}

// NewPoseidon2_24 builds the width-24 permutation (8 external rounds, 21
// internal rounds, matching Plonky3's default_babybear_poseidon2_24).
func NewPoseidon2_24() *Poseidon2 {
	return &Poseidon2{perm: poseidon2.NewPermutation(24, 8, 21), width: 24}
}

// Permute applies the permutation to state in place. state must have
// exactly Width() elements.
func (p *Poseidon2) Permute(state []Element) {
	if len(state) != p.width {
		panic("poseidon: state size mismatch")
	}
	if err := p.perm.Permutation(state); err != nil {
		panic("poseidon: permutation failed: " + err.Error())
	}
}

// PermuteNew is Permute without mutating the input.
func (p *Poseidon2) PermuteNew(state []Element) []Element {
	out := make([]Element, len(state))
	copy(out, state)
	p.Permute(out)
	return out
}

// Width returns the permutation's state width in field elements.
func (p *Poseidon2) Width() int {
	return p.width
}