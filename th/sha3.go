package th

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// sha3Hash implements TweakableHash over SHA3-256 (n=32) or SHA3-512 (n=64).
// Construction 1 from the paper; grounded on the teacher's
// th/tweak_hash/sha3.go and th/message_hash/sha3.go.
type sha3Hash struct {
	n int
}

// NewSHA3 builds a tweakable hash backed by SHA3. width must be 256 or 512;
// any other value fails with xerrors.InvalidParameter.
func NewSHA3(width int) (TweakableHash, error) {
	switch width {
	case 256, 512:
		return &sha3Hash{n: width / 8}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported SHA3 width %d (want 256 or 512)", ErrUnsupportedWidth, width)
	}
}

func (s *sha3Hash) MessageHash(m []byte) Digest {
	return s.digest([]byte(sepMessage), m)
}

func (s *sha3Hash) ChainHash(d Digest, chainIndex int) Digest {
	return s.digest(chainTweak(chainIndex), d)
}

func (s *sha3Hash) LeafHash(d Digest) Digest {
	return s.digest([]byte(sepLeaf), d)
}

func (s *sha3Hash) NodeHash(left, right Digest, level, idx int) Digest {
	return s.digest(nodeTweak(level, idx), left, right)
}

func (s *sha3Hash) OutputLen() int { return s.n }

func (s *sha3Hash) Raw(parts ...[]byte) Digest {
	return s.digest(nil, parts...)
}

// digest computes Truncate_n(SHA3(tweak || data...)) using the fixed-output
// SHA3 variant matching s.n.
func (s *sha3Hash) digest(tweak []byte, parts ...[]byte) Digest {
	var full []byte
	switch s.n {
	case 32:
		h := sha3.New256()
		h.Write(tweak)
		for _, p := range parts {
			h.Write(p)
		}
		full = h.Sum(nil)
	case 64:
		h := sha3.New512()
		h.Write(tweak)
		for _, p := range parts {
			h.Write(p)
		}
		full = h.Sum(nil)
	}
	if len(full) > s.n {
		return full[:s.n]
	}
	return full
}
