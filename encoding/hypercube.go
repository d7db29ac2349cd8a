package encoding

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/wintersig/xmss-go/hypercube"
	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// Hypercube realizes IncomparableEncoding over a fixed-sum layer of
// the discrete hypercube {0,...,base-1}^dimension: a message hashes to
// a rank, which is unranked into a vertex on the middle layer (the
// layer every valid codeword lives on), and each coordinate is
// returned as its own single-byte Digest so VerifyIncomparability can
// compare coordinate vectors directly.
type Hypercube struct {
	hash      th.TweakableHash
	dimension int
	base      int
	target    int
	layerSize *big.Int
}

// NewHypercube builds a Hypercube encoding with the given dimension
// (number of coordinates) and base (each coordinate in [0,base-1]),
// targeting the middle layer (coordinate sum = dimension*(base-1)/2),
// matching the balance point the target-sum OTS variant uses.
func NewHypercube(hash th.TweakableHash, dimension, base int) (*Hypercube, error) {
	if dimension <= 0 || base <= 1 {
		return nil, fmt.Errorf("%w: hypercube needs dimension>0 and base>1, got dimension=%d base=%d",
			xerrors.InvalidParameter, dimension, base)
	}
	target := dimension * (base - 1) / 2
	layerSize := hypercube.CountVerticesWithSum(base, dimension, target)
	if layerSize.Sign() == 0 {
		return nil, fmt.Errorf("%w: hypercube layer is empty for dimension=%d base=%d", xerrors.InvalidParameter, dimension, base)
	}
	return &Hypercube{hash: hash, dimension: dimension, base: base, target: target, layerSize: layerSize}, nil
}

func (hc *Hypercube) EncodingLength() int { return hc.dimension }

// Encode hashes message, reduces it modulo the layer's vertex count to
// get a rank, unranks that into a coordinate vector on the target-sum
// layer, and returns each coordinate as a one-byte Digest.
func (hc *Hypercube) Encode(message []byte) ([]th.Digest, error) {
	digest := hc.hash.MessageHash(message)
	rank := new(big.Int).SetBytes(digest)
	rank.Mod(rank, hc.layerSize)

	coords := hypercube.Unrank(hc.base, hc.dimension, hc.target, rank)
	out := make([]th.Digest, hc.dimension)
	for i, c := range coords {
		out[i] = th.Digest{byte(c)}
	}
	return out, nil
}

// Decode folds the coordinate vector into a single representative
// Digest via the underlying hash.
func (hc *Hypercube) Decode(encoded []th.Digest) th.Digest {
	parts := make([][]byte, len(encoded))
	for i, d := range encoded {
		parts[i] = d
	}
	return hc.hash.Raw(parts...)
}

// VerifyIncomparability reports whether e1 and e2 are incomparable in
// the coordinate-wise partial order: true iff neither vector
// dominates the other (some coordinate of e1 exceeds e2's and some
// falls short of it).
func (hc *Hypercube) VerifyIncomparability(e1, e2 []th.Digest) bool {
	if len(e1) != hc.dimension || len(e2) != hc.dimension {
		return false
	}
	geq := bitset.New(uint(hc.dimension))
	leq := bitset.New(uint(hc.dimension))
	for i := range e1 {
		if len(e1[i]) == 0 || len(e2[i]) == 0 {
			return false
		}
		a, b := e1[i][0], e2[i][0]
		if a >= b {
			geq.Set(uint(i))
		}
		if a <= b {
			leq.Set(uint(i))
		}
	}
	e1DominatesE2 := geq.All()
	e2DominatesE1 := leq.All()
	return !e1DominatesE2 && !e2DominatesE1
}
