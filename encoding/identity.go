package encoding

import (
	"bytes"
	"fmt"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// Identity is the trivial IncomparableEncoding: it re-derives `length`
// independent Digests from the message by hashing the message
// alongside a position counter, with no combinatorial structure. It
// exists mainly as a minimal conformance example for the contract.
type Identity struct {
	hash   th.TweakableHash
	length int
}

// NewIdentity builds an Identity encoding producing `length` Digests.
func NewIdentity(hash th.TweakableHash, length int) (*Identity, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: identity encoding length must be positive, got %d", xerrors.InvalidParameter, length)
	}
	return &Identity{hash: hash, length: length}, nil
}

func (id *Identity) EncodingLength() int { return id.length }

func (id *Identity) Encode(message []byte) ([]th.Digest, error) {
	out := make([]th.Digest, id.length)
	for i := 0; i < id.length; i++ {
		out[i] = id.hash.Raw(message, []byte{byte(i)})
	}
	return out, nil
}

func (id *Identity) Decode(encoded []th.Digest) th.Digest {
	parts := make([][]byte, len(encoded))
	for i, d := range encoded {
		parts[i] = d
	}
	return id.hash.Raw(parts...)
}

// VerifyIncomparability has no coordinate structure to compare for the
// identity encoding; distinct messages yield unrelated digest
// sequences, so any two non-identical sequences are reported
// incomparable.
func (id *Identity) VerifyIncomparability(e1, e2 []th.Digest) bool {
	if len(e1) != len(e2) {
		return true
	}
	for i := range e1 {
		if !bytes.Equal(e1[i], e2[i]) {
			return true
		}
	}
	return false
}
