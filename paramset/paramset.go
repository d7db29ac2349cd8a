// Package paramset holds the closed registry of named XMSS parameter
// sets: a fixed catalogue of (height, Winternitz width, hash family,
// output width, signature size) records, looked up by name.
package paramset

import (
	"fmt"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// Set is one named parameter record.
type Set struct {
	Name           string
	Height         int
	WinternitzW    int
	HashFamily     string // "SHA2" or "SHAKE", inherited from the RFC 8391 naming this registry is modelled on
	N              int    // digest width in bytes
	SignatureBytes int    // nominal signature size listed for the set; not the length of xmss.SerializeSignature's output
}

// NewHash resolves the set's HashFamily label to a live TweakableHash.
// Both labels in this registry map to the SHA3 backend: this module
// carries no standalone SHA2/SHAKE tweakable-hash implementation, and
// SHA3-256 matches the registry's fixed n=32 output width for both
// families alike. HashFamily is kept as data for callers that need to
// report or match against the original name.
func (s Set) NewHash() (th.TweakableHash, error) {
	return th.NewSHA3(s.N * 8)
}

var registry = map[string]Set{
	"SHA2_10_256": {
		Name: "SHA2_10_256", Height: 10, WinternitzW: 16,
		HashFamily: "SHA2", N: 32, SignatureBytes: 2500,
	},
	"SHA2_16_256": {
		Name: "SHA2_16_256", Height: 16, WinternitzW: 16,
		HashFamily: "SHA2", N: 32, SignatureBytes: 3988,
	},
	"SHAKE_10_256": {
		Name: "SHAKE_10_256", Height: 10, WinternitzW: 16,
		HashFamily: "SHAKE", N: 32, SignatureBytes: 2500,
	},
	"SHAKE_16_256": {
		Name: "SHAKE_16_256", Height: 16, WinternitzW: 16,
		HashFamily: "SHAKE", N: 32, SignatureBytes: 3988,
	},
}

// Lookup returns the named parameter set. Unknown names fail with
// InvalidParameter rather than silently defaulting to anything.
func Lookup(name string) (Set, error) {
	set, ok := registry[name]
	if !ok {
		return Set{}, fmt.Errorf("%w: unknown parameter set %q", xerrors.InvalidParameter, name)
	}
	return set, nil
}

// Names returns the registry's parameter-set names in a fixed order,
// useful for listing available sets in CLIs and config validation.
func Names() []string {
	return []string{"SHA2_10_256", "SHA2_16_256", "SHAKE_10_256", "SHAKE_16_256"}
}
