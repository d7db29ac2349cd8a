package ots

import (
	"fmt"
	"io"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// Winternitz is the classical checksum-bearing Winternitz OTS: the
// encoded message digits are appended with a checksum so that any
// attempt to forge a signature by lowering a digit is caught by the
// checksum chains rising out of range.
type Winternitz struct {
	h           th.TweakableHash
	w           int
	m           int
	c           int
	l           int
	maxChainLen int
}

// NewWinternitz builds the classical variant over hash h with
// Winternitz width w (one of 1, 2, 4, 8, 16).
func NewWinternitz(h th.TweakableHash, w int) (*Winternitz, error) {
	if err := validateW(w); err != nil {
		return nil, err
	}
	m := msgBitlen / w
	maxChainLen := (1 << uint(w)) - 1
	maxChecksum := m * maxChainLen
	checksumBits := bitLen(maxChecksum)
	c := (checksumBits + w - 1) / w
	return &Winternitz{h: h, w: w, m: m, c: c, l: m + c, maxChainLen: maxChainLen}, nil
}

// NumChains returns L = m + c.
func (ws *Winternitz) NumChains() int { return ws.l }

// GenerateKeyPair draws L random seeds and walks each to the top of its
// chain to derive the matching public key element.
func (ws *Winternitz) GenerateKeyPair(rand io.Reader) (PrivateKey, PublicKey, error) {
	sk := make(PrivateKey, ws.l)
	pk := make(PublicKey, ws.l)
	for j := 0; j < ws.l; j++ {
		seed := make([]byte, ws.h.OutputLen())
		if _, err := io.ReadFull(rand, seed); err != nil {
			return nil, nil, fmt.Errorf("%w: drawing ots seed %d: %v", xerrors.MalformedInput, j, err)
		}
		sk[j] = seed
		pk[j] = chain(ws.h, seed, ws.maxChainLen, j)
	}
	return sk, pk, nil
}

// encode splits the message into m digits, appends a checksum of
// (maxChainLen - digit) summed over those m digits and re-split into c
// base-2^w digits, most significant first.
func (ws *Winternitz) encode(msg []byte) []int {
	digits := extractDigits(msg, ws.w, ws.m)
	sum := 0
	for _, d := range digits {
		sum += ws.maxChainLen - d
	}
	checksum := splitDigits(sum, ws.w, ws.c)
	return append(digits, checksum...)
}

// Sign walks chain j forward digits[j] steps from sk[j].
func (ws *Winternitz) Sign(msg []byte, sk PrivateKey) (Signature, error) {
	if len(sk) != ws.l {
		return nil, fmt.Errorf("%w: private key has %d chains, want %d", xerrors.InvalidParameter, len(sk), ws.l)
	}
	digits := ws.encode(msg)
	sig := make(Signature, ws.l)
	for j := 0; j < ws.l; j++ {
		sig[j] = chain(ws.h, sk[j], digits[j], j)
	}
	return sig, nil
}

// Verify recomputes the public key from (msg, sig) and compares it
// element-wise against pk. Never panics or propagates an error: any
// malformed input is reported as a plain false.
func (ws *Winternitz) Verify(msg []byte, sig Signature, pk PublicKey) bool {
	reconstructed, err := ws.PublicKeyFromSignature(msg, sig)
	if err != nil {
		return false
	}
	return digestsEqual(reconstructed, pk)
}

// PublicKeyFromSignature walks each signature chain element forward the
// remaining maxChainLen-digits[j] steps to recover what should be the
// public key, were the signature genuine.
func (ws *Winternitz) PublicKeyFromSignature(msg []byte, sig Signature) (PublicKey, error) {
	if len(sig) != ws.l {
		return nil, fmt.Errorf("%w: signature has %d chains, want %d", xerrors.MalformedInput, len(sig), ws.l)
	}
	digits := ws.encode(msg)
	pk := make(PublicKey, ws.l)
	for j := 0; j < ws.l; j++ {
		remaining := ws.maxChainLen - digits[j]
		if remaining < 0 || remaining > ws.maxChainLen {
			return nil, fmt.Errorf("%w: digit %d out of range", xerrors.MalformedInput, j)
		}
		pk[j] = chain(ws.h, sig[j], remaining, j)
	}
	return pk, nil
}

// bitLen returns the number of bits needed to represent v (0 for v<=0).
func bitLen(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}
