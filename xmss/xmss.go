// Package xmss implements the stateful XMSS orchestrator: it allocates
// one-time-signature slots from a Merkle tree of OTS public keys in
// monotonic order, producing composite signatures and verifying them
// against the tree root.
package xmss

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/merkle"
	"github.com/wintersig/xmss-go/ots"
	"github.com/wintersig/xmss-go/paramset"
	"github.com/wintersig/xmss-go/statestore"
	"github.com/wintersig/xmss-go/th"
)

// parallelKeygenThreshold mirrors the teacher's chain-end computation:
// below this many OTS keypairs, generate sequentially; above it, fan
// out across goroutines.
const parallelKeygenThreshold = 64

// XMSS is an immutable scheme descriptor: an OTS scheme, the
// tweakable hash used for leaves and tree nodes, and the tree height.
// It carries no per-key state; PrivateKey and PublicKey do.
type XMSS struct {
	ots    ots.Scheme
	hash   th.TweakableHash
	height int
}

// New builds an XMSS scheme directly from an OTS scheme and height.
func New(scheme ots.Scheme, hash th.TweakableHash, height int) (*XMSS, error) {
	if height <= 0 || height > 32 {
		return nil, fmt.Errorf("%w: xmss height must be in (0,32], got %d", xerrors.InvalidParameter, height)
	}
	return &XMSS{ots: scheme, hash: hash, height: height}, nil
}

// FromParameterSet resolves name in the parameter registry and builds
// an XMSS scheme from it. The registry fixes height, Winternitz width
// and hash family; it does not record which OTS variant (classical or
// target-sum) a signer uses, so FromParameterSet always builds the
// classical checksum variant — callers who want the target-sum variant
// at a registry height/width combination should call New directly with
// ots.NewTargetSum.
func FromParameterSet(name string) (*XMSS, error) {
	set, err := paramset.Lookup(name)
	if err != nil {
		return nil, err
	}
	hash, err := set.NewHash()
	if err != nil {
		return nil, err
	}
	scheme, err := ots.NewWinternitz(hash, set.WinternitzW)
	if err != nil {
		return nil, err
	}
	return New(scheme, hash, set.Height)
}

// Lifetime returns 2^height, the number of messages this scheme can
// sign before exhaustion.
func (x *XMSS) Lifetime() uint64 {
	return uint64(1) << uint(x.height)
}

// Height returns the Merkle tree height this scheme was built with.
func (x *XMSS) Height() int {
	return x.height
}

// PublicKey is the XMSS public key: the Merkle root over all OTS
// public-key leaves, plus the height needed to bound a signature index.
type PublicKey struct {
	Root   th.Digest
	Height int
}

// PrivateKey holds every OTS keypair in index order, the Merkle tree
// built over their leaves, and the next free signing index. Sign holds
// this key's mutex for its whole call, so a single handle cannot be
// driven by two goroutines at once.
type PrivateKey struct {
	mu       sync.Mutex
	otsKeys  []ots.PrivateKey
	otsPubs  []ots.PublicKey
	tree     *merkle.Tree
	height   int
	index    uint64
	poisoned bool
}

// leafDigest derives the per-leaf commitment for an OTS public key by
// concatenating its component digests and hashing the result once,
// matching the keygen/verify rule exactly.
func leafDigest(hash th.TweakableHash, pub ots.PublicKey) th.Digest {
	var buf bytes.Buffer
	for _, d := range pub {
		buf.Write(d)
	}
	return hash.LeafHash(buf.Bytes())
}

// GenerateKeyPair produces 2^height OTS keypairs, builds the Merkle
// tree over their leaf digests, and returns the resulting private and
// public keys with index 0.
func (x *XMSS) GenerateKeyPair(rand io.Reader) (*PrivateKey, *PublicKey, error) {
	return x.generateFromReaders(func(i int) io.Reader { return rand })
}

// generateFromReaders builds a full keypair, drawing each OTS keypair's
// randomness from readerFor(i). GenerateKeyPair passes the same shared
// reader for every index; GenerateKeyPairFromSeed passes a distinct
// deterministic reader per index.
func (x *XMSS) generateFromReaders(readerFor func(i int) io.Reader) (*PrivateKey, *PublicKey, error) {
	n := int(x.Lifetime())
	otsKeys := make([]ots.PrivateKey, n)
	otsPubs := make([]ots.PublicKey, n)
	leaves := make([]th.Digest, n)

	genOne := func(i int) error {
		sk, pk, err := x.ots.GenerateKeyPair(readerFor(i))
		if err != nil {
			return fmt.Errorf("%w: generating ots keypair %d: %v", xerrors.MalformedInput, i, err)
		}
		otsKeys[i] = sk
		otsPubs[i] = pk
		leaves[i] = leafDigest(x.hash, pk)
		return nil
	}

	if n > parallelKeygenThreshold {
		var wg sync.WaitGroup
		errs := make([]error, n)
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(idx int) {
				defer wg.Done()
				errs[idx] = genOne(idx)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, nil, err
			}
		}
	} else {
		for i := 0; i < n; i++ {
			if err := genOne(i); err != nil {
				return nil, nil, err
			}
		}
	}

	tree, err := merkle.NewTree(x.hash, leaves)
	if err != nil {
		return nil, nil, err
	}

	sk := &PrivateKey{otsKeys: otsKeys, otsPubs: otsPubs, tree: tree, height: x.height}
	pk := &PublicKey{Root: tree.Root(), Height: x.height}
	return sk, pk, nil
}

// Signature is a complete XMSS signature: the OTS signature, the OTS
// public key used to produce it, the Merkle authentication path for
// that key's leaf, and the index it was signed at.
type Signature struct {
	OTSSignature ots.Signature
	OTSPublicKey ots.PublicKey
	Path         merkle.Path
	Index        uint64
}

// GetState returns sk's current signing index.
func (sk *PrivateKey) GetState() uint64 {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	return sk.index
}

// UpdateState forcibly sets sk's index, for callers restoring from
// persisted state. This bypasses the normal sign-then-advance flow and
// must only be used during recovery, never during ordinary signing.
func (sk *PrivateKey) UpdateState(index uint64) {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	sk.index = index
}

// Exhausted reports whether sk has no remaining signing slots.
func (sk *PrivateKey) Exhausted() bool {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	return sk.index >= uint64(1)<<uint(sk.height)
}

// Sign produces a signature for msg using the next free OTS keypair,
// then advances sk's index. sk is locked for the whole call: concurrent
// callers on the same key serialize rather than race over the index.
func (x *XMSS) Sign(sk *PrivateKey, msg []byte) (*Signature, error) {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	if sk.poisoned {
		return nil, fmt.Errorf("%w: private key is poisoned after an incomplete sign, needs operator reconciliation", xerrors.PersistenceFailure)
	}
	if sk.index >= uint64(len(sk.otsKeys)) {
		return nil, fmt.Errorf("%w: signing index %d exhausts height-%d key", xerrors.Exhausted, sk.index, sk.height)
	}

	i := sk.index
	otsSig, err := x.ots.Sign(msg, sk.otsKeys[i])
	if err != nil {
		return nil, fmt.Errorf("%w: ots signing failed at index %d: %v", xerrors.MalformedInput, i, err)
	}
	path, err := sk.tree.Path(int(i))
	if err != nil {
		return nil, err
	}

	sk.index = i + 1
	return &Signature{
		OTSSignature: otsSig,
		OTSPublicKey: sk.otsPubs[i],
		Path:         path,
		Index:        i,
	}, nil
}

// SignAndPersist signs msg, then durably saves the advanced index to
// store under identifier before returning the signature, so a crash
// immediately after Sign can never re-expose an already-used index: if
// the persist fails, sk is poisoned and the signature is discarded
// rather than handed back to the caller.
func (x *XMSS) SignAndPersist(sk *PrivateKey, msg []byte, store *statestore.Store, identifier string) (*Signature, error) {
	sig, err := x.Sign(sk, msg)
	if err != nil {
		return nil, err
	}
	if err := store.Save(identifier, sk.GetState(), x.height); err != nil {
		sk.mu.Lock()
		sk.poisoned = true
		sk.mu.Unlock()
		return nil, fmt.Errorf("%w: signature produced at index %d but not persisted, key poisoned: %v", xerrors.PersistenceFailure, sig.Index, err)
	}
	return sig, nil
}

// Verify checks sig against msg and pk. It is a total predicate: any
// semantic mismatch (tampered message, signature, index, or
// out-of-range index) yields false, never an error or panic.
func (x *XMSS) Verify(pk *PublicKey, msg []byte, sig *Signature) bool {
	if sig == nil || pk == nil {
		return false
	}
	if sig.Index >= uint64(1)<<uint(pk.Height) {
		return false
	}
	if !x.ots.Verify(msg, sig.OTSSignature, sig.OTSPublicKey) {
		return false
	}
	leaf := leafDigest(x.hash, sig.OTSPublicKey)
	return merkle.VerifyPath(x.hash, leaf, sig.Path, int(sig.Index), pk.Root)
}

// PublicKey derives the public key (root, height) sk was built with,
// without needing the original XMSS scheme handle.
func (sk *PrivateKey) PublicKey() *PublicKey {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	return &PublicKey{Root: sk.tree.Root(), Height: sk.height}
}
