package xmss

import (
	"fmt"
	"io"

	"github.com/wintersig/xmss-go/internal/prf"
	"github.com/wintersig/xmss-go/internal/xerrors"
)

// seededReader turns a PRF plus a fixed leaf index into an io.Reader
// that yields consecutive per-chain seeds on each Read call, in the
// exact order ots.Scheme.GenerateKeyPair consumes them (chain 0, 1, 2,
// ...). This lets GenerateKeyPairFromSeed reuse the ordinary
// rand.Reader-based ots.Scheme.GenerateKeyPair without that package
// needing to know anything about deterministic derivation.
type seededReader struct {
	scheme     prf.PRF
	masterSeed []byte
	leafIndex  uint32
	chainIndex uint64
}

func (r *seededReader) Read(p []byte) (int, error) {
	out := r.scheme.Apply(r.masterSeed, r.leafIndex, r.chainIndex)
	r.chainIndex++
	if len(out) != len(p) {
		return 0, fmt.Errorf("%w: prf produced %d bytes, ots chain seed needs exactly %d", xerrors.InvalidParameter, len(out), len(p))
	}
	copy(p, out)
	return len(p), nil
}

// GenerateKeyPairFromSeed derives every OTS keypair deterministically
// from masterSeed via scheme, instead of drawing fresh randomness per
// chain: the i-th leaf's keypair depends only on masterSeed and i, so
// it can be regenerated on demand rather than kept eagerly in memory.
// scheme.OutputLen() must equal x.hash.OutputLen(), matching the seed
// width ots.Scheme.GenerateKeyPair expects.
func (x *XMSS) GenerateKeyPairFromSeed(masterSeed []byte, scheme prf.PRF) (*PrivateKey, *PublicKey, error) {
	if scheme.OutputLen() != x.hash.OutputLen() {
		return nil, nil, fmt.Errorf("%w: prf output length %d does not match hash output length %d",
			xerrors.InvalidParameter, scheme.OutputLen(), x.hash.OutputLen())
	}

	return x.generateFromReaders(func(i int) io.Reader {
		return &seededReader{scheme: scheme, masterSeed: masterSeed, leafIndex: uint32(i)}
	})
}
