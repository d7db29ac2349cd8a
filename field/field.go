// Package field wraps the BabyBear prime field (gnark-crypto) with the
// handful of conversions the Poseidon sponge in th needs: digit-wise
// packing of an arbitrary byte string into field elements and back.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/field/babybear"
)

// P is the BabyBear modulus, 2^31 - 2^27 + 1.
const P uint64 = 2013265921

// Element is a BabyBear field element.
type Element = babybear.Element

// NewElement builds the element representing v mod P.
func NewElement(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// Zero is the additive identity.
func Zero() Element {
	return babybear.NewElement(0)
}

// One is the multiplicative identity.
func One() Element {
	return babybear.NewElement(1)
}

// FromBytes interprets b (big-endian) as an element, reducing mod P.
func FromBytes(b []byte) Element {
	var e Element
	e.SetBytes(b)
	return e
}

// ToBytes renders e as its canonical big-endian byte form.
func ToBytes(e Element) []byte {
	b := e.Bytes()
	return b[:]
}

// ToBigInt renders e as a big.Int in [0, P).
func ToBigInt(e Element) *big.Int {
	return e.BigInt(big.NewInt(0))
}

// FromBigInt reduces v mod P into an element.
func FromBigInt(v *big.Int) Element {
	var e Element
	e.SetBigInt(v)
	return e
}

// PackDigits decomposes data, read as a big-endian integer, into count
// base-P digits (least significant digit first), each returned as an
// element. Used to absorb an arbitrary byte string into a sponge whose
// rate is measured in field elements rather than bytes.
func PackDigits(data []byte, count int) []Element {
	if count <= 0 {
		return nil
	}
	acc := new(big.Int).SetBytes(data)
	modulus := new(big.Int).SetUint64(P)
	digit := new(big.Int)
	out := make([]Element, count)
	for i := 0; i < count; i++ {
		acc.DivMod(acc, modulus, digit)
		out[i] = FromBigInt(digit)
	}
	return out
}

// UnpackDigits is the inverse of PackDigits: it recombines count
// base-P digits (least significant first) into an n-byte big-endian
// string, truncating or left-padding with zeroes as needed.
func UnpackDigits(digits []Element, n int) []byte {
	acc := new(big.Int)
	modulus := new(big.Int).SetUint64(P)
	for i := len(digits) - 1; i >= 0; i-- {
		acc.Mul(acc, modulus)
		acc.Add(acc, ToBigInt(digits[i]))
	}
	b := acc.Bytes()
	out := make([]byte, n)
	if len(b) >= n {
		copy(out, b[len(b)-n:])
	} else {
		copy(out[n-len(b):], b)
	}
	return out
}