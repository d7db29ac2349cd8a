package ots

import (
	"fmt"
	"io"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// TargetSum is the checksum-free Winternitz variant: instead of a
// checksum chain, the m digits are balanced so they always sum to a
// fixed target T, which the verifier can check implicitly by walking
// every chain to the same total chain length. The balancing here is a
// deterministic port of the original right-to-left/left-to-right digit
// adjustment (not the rejection-sampling-with-randomness approach some
// XMSS implementations use, since this encoding takes no randomness
// input — it is a pure function of the message alone).
type TargetSum struct {
	h           th.TweakableHash
	w           int
	m           int
	maxChainLen int
	target      int
}

// NewTargetSum builds the target-sum variant over hash h with
// Winternitz width w.
func NewTargetSum(h th.TweakableHash, w int) (*TargetSum, error) {
	if err := validateW(w); err != nil {
		return nil, err
	}
	m := msgBitlen / w
	maxChainLen := (1 << uint(w)) - 1
	total := m * maxChainLen
	target := total / 2
	if total%2 != 0 {
		target++
	}
	return &TargetSum{h: h, w: w, m: m, maxChainLen: maxChainLen, target: target}, nil
}

// NumChains returns L = m (no checksum chains).
func (ts *TargetSum) NumChains() int { return ts.m }

// GenerateKeyPair draws m random seeds and walks each to the top of its
// chain to derive the matching public key element.
func (ts *TargetSum) GenerateKeyPair(rand io.Reader) (PrivateKey, PublicKey, error) {
	sk := make(PrivateKey, ts.m)
	pk := make(PublicKey, ts.m)
	for j := 0; j < ts.m; j++ {
		seed := make([]byte, ts.h.OutputLen())
		if _, err := io.ReadFull(rand, seed); err != nil {
			return nil, nil, fmt.Errorf("%w: drawing ots seed %d: %v", xerrors.MalformedInput, j, err)
		}
		sk[j] = seed
		pk[j] = chain(ts.h, seed, ts.maxChainLen, j)
	}
	return sk, pk, nil
}

// encode produces m digits in [0, maxChainLen] summing to exactly
// ts.target, deterministically, from the message alone. The first m-1
// digits come straight from the message bits; the last digit is
// whatever balances the sum, with earlier digits nudged when the
// unconstrained last digit would fall outside [0, maxChainLen].
func (ts *TargetSum) encode(msg []byte) []int {
	blocks := extractDigits(msg, ts.w, ts.m-1)
	currentSum := 0
	for _, b := range blocks {
		currentSum += b
	}

	last := ts.target - currentSum
	switch {
	case last < 0:
		adjustment := -last
		for i := len(blocks) - 1; i >= 0 && adjustment > 0; i-- {
			for adjustment > 0 && blocks[i] > 0 {
				blocks[i]--
				adjustment--
				currentSum--
			}
		}
		last = ts.target - currentSum
	case last > ts.maxChainLen:
		adjustment := last - ts.maxChainLen
		for i := 0; i < len(blocks) && adjustment > 0; i++ {
			for adjustment > 0 && blocks[i] < ts.maxChainLen {
				blocks[i]++
				adjustment--
				currentSum++
			}
		}
		last = ts.target - currentSum
	}

	if last < 0 {
		last = 0
	} else if last > ts.maxChainLen {
		last = ts.maxChainLen
	}
	blocks = append(blocks, last)

	finalSum := 0
	for _, b := range blocks {
		finalSum += b
	}
	if diff := ts.target - finalSum; diff != 0 {
		if last+diff >= 0 && last+diff <= ts.maxChainLen {
			blocks[len(blocks)-1] += diff
		} else {
			for i := len(blocks) - 2; i >= 0; i-- {
				if diff > 0 && blocks[i] <= ts.maxChainLen-diff {
					blocks[i] += diff
					break
				} else if diff < 0 && blocks[i] >= -diff {
					blocks[i] += diff
					break
				}
			}
		}
	}
	return blocks
}

// Sign walks chain j forward digits[j] steps from sk[j].
func (ts *TargetSum) Sign(msg []byte, sk PrivateKey) (Signature, error) {
	if len(sk) != ts.m {
		return nil, fmt.Errorf("%w: private key has %d chains, want %d", xerrors.InvalidParameter, len(sk), ts.m)
	}
	digits := ts.encode(msg)
	sig := make(Signature, ts.m)
	for j := 0; j < ts.m; j++ {
		sig[j] = chain(ts.h, sk[j], digits[j], j)
	}
	return sig, nil
}

// Verify recomputes the public key from (msg, sig) and compares it
// element-wise against pk.
func (ts *TargetSum) Verify(msg []byte, sig Signature, pk PublicKey) bool {
	reconstructed, err := ts.PublicKeyFromSignature(msg, sig)
	if err != nil {
		return false
	}
	return digestsEqual(reconstructed, pk)
}

// PublicKeyFromSignature walks each signature chain element forward the
// remaining maxChainLen-digits[j] steps.
func (ts *TargetSum) PublicKeyFromSignature(msg []byte, sig Signature) (PublicKey, error) {
	if len(sig) != ts.m {
		return nil, fmt.Errorf("%w: signature has %d chains, want %d", xerrors.MalformedInput, len(sig), ts.m)
	}
	digits := ts.encode(msg)
	pk := make(PublicKey, ts.m)
	for j := 0; j < ts.m; j++ {
		remaining := ts.maxChainLen - digits[j]
		if remaining < 0 || remaining > ts.maxChainLen {
			return nil, fmt.Errorf("%w: digit %d out of range", xerrors.MalformedInput, j)
		}
		pk[j] = chain(ts.h, sig[j], remaining, j)
	}
	return pk, nil
}
