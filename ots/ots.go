// Package ots implements the two Winternitz hash-chain one-time
// signature schemes: the classical checksum variant and the
// checksum-free target-sum variant. Both share the chain walk and
// message-digit extraction defined in this file.
package ots

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// msgBitlen is the fixed input width both encodings operate over: the
// message is always read as exactly 256 bits, zero-padded or truncated.
const msgBitlen = 256

// PrivateKey is an ordered sequence of per-chain secret seeds.
type PrivateKey []th.Digest

// PublicKey is an ordered sequence of per-chain chain-ends.
type PublicKey []th.Digest

// Signature is an ordered sequence of per-chain intermediate values.
type Signature []th.Digest

// Scheme is the contract both Winternitz variants satisfy.
type Scheme interface {
	NumChains() int
	GenerateKeyPair(rand io.Reader) (PrivateKey, PublicKey, error)
	Sign(msg []byte, sk PrivateKey) (Signature, error)
	Verify(msg []byte, sig Signature, pk PublicKey) bool
	PublicKeyFromSignature(msg []byte, sig Signature) (PublicKey, error)
}

// chain applies h.Raw(acc, byte(chainIndex)) steps times, starting from
// start. chainIndex is fixed across every iteration and only identifies
// which of the L chains this walk belongs to — it is not an iteration
// counter. This is the exact layout the original implementation uses
// ("single_byte(j)"), distinct from the tweakable hash's own CHAIN-tweak
// contract operation.
func chain(h th.TweakableHash, start th.Digest, steps, chainIndex int) th.Digest {
	acc := start
	idx := byte(chainIndex)
	for i := 0; i < steps; i++ {
		acc = h.Raw(acc, []byte{idx})
	}
	return acc
}

// padMessage zero-pads or truncates msg to exactly 32 bytes (256 bits).
func padMessage(msg []byte) []byte {
	const n = msgBitlen / 8
	out := make([]byte, n)
	copy(out, msg)
	return out
}

// extractDigits reads the 256-bit padded message as count consecutive
// w-bit groups, most-significant bit first, left to right.
func extractDigits(msg []byte, w, count int) []int {
	bits := padMessage(msg)
	digits := make([]int, count)
	pos := 0
	for i := 0; i < count; i++ {
		v := 0
		for j := 0; j < w; j++ {
			byteIdx := pos / 8
			bitIdx := 7 - pos%8
			bit := 0
			if byteIdx < len(bits) {
				bit = int((bits[byteIdx] >> uint(bitIdx)) & 1)
			}
			v = (v << 1) | bit
			pos++
		}
		digits[i] = v
	}
	return digits
}

// splitDigits decomposes value into count base-2^w digits, most
// significant first.
func splitDigits(value, w, count int) []int {
	digits := make([]int, count)
	mask := (1 << uint(w)) - 1
	for i := count - 1; i >= 0; i-- {
		digits[i] = value & mask
		value >>= uint(w)
	}
	return digits
}

func validateW(w int) error {
	switch w {
	case 1, 2, 4, 8, 16:
		return nil
	default:
		return fmt.Errorf("%w: winternitz w must be 1, 2, 4, 8, or 16, got %d", xerrors.InvalidParameter, w)
	}
}

func digestsEqual(a, b []th.Digest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
