// Package merkle builds and verifies a binary hash tree over a sequence
// of leaf digests, the commitment structure an XMSS public key is the
// root of.
package merkle

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/th"
)

// parallelThreshold mirrors the teacher's tree-building code: below this
// many parents per level, hash sequentially; above it, fan out across
// goroutines.
const parallelThreshold = 100

// Tree is a binary hash tree stored bottom-up. levels[0] holds the
// leaves exactly as given to NewTree; levels[len-1] is the single-node
// root level.
type Tree struct {
	hash   th.TweakableHash
	levels [][]th.Digest
}

// PathStep is one sibling encountered walking from a leaf to the root.
type PathStep struct {
	Sibling th.Digest
	IsLeft  bool
}

// Path is an authentication path, ordered from leaf to root.
type Path []PathStep

// NewTree builds a tree over leaves, which must be non-empty and
// already hashed (callers are responsible for digesting OTS public
// keys, typically via TweakableHash.LeafHash, before calling this).
// Where a level has odd cardinality, the trailing node is duplicated
// when forming the next level up — it is not stored duplicated.
func NewTree(hash th.TweakableHash, leaves []th.Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: merkle tree requires at least one leaf", xerrors.MalformedInput)
	}
	levels := [][]th.Digest{append([]th.Digest(nil), leaves...)}
	for level := 0; len(levels[len(levels)-1]) > 1; level++ {
		levels = append(levels, buildNextLevel(hash, levels[len(levels)-1], level))
	}
	return &Tree{hash: hash, levels: levels}, nil
}

// buildNextLevel hashes adjacent pairs of nodes into their parent,
// duplicating the trailing node first if the level has odd cardinality.
func buildNextLevel(hash th.TweakableHash, nodes []th.Digest, level int) []th.Digest {
	padded := nodes
	if len(nodes)%2 == 1 {
		padded = make([]th.Digest, len(nodes)+1)
		copy(padded, nodes)
		padded[len(nodes)] = nodes[len(nodes)-1]
	}

	numParents := len(padded) / 2
	parents := make([]th.Digest, numParents)

	if numParents > parallelThreshold {
		var wg sync.WaitGroup
		wg.Add(numParents)
		for i := 0; i < numParents; i++ {
			go func(idx int) {
				defer wg.Done()
				parents[idx] = hash.NodeHash(padded[2*idx], padded[2*idx+1], level+1, idx)
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < numParents; i++ {
			parents[i] = hash.NodeHash(padded[2*i], padded[2*i+1], level+1, i)
		}
	}
	return parents
}

// Root returns the tree's root digest.
func (t *Tree) Root() th.Digest {
	return t.levels[len(t.levels)-1][0]
}

// Leaf returns the leaf digest at index i.
func (t *Tree) Leaf(i int) (th.Digest, error) {
	n := len(t.levels[0])
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: leaf index %d out of range [0,%d)", xerrors.OutOfRange, i, n)
	}
	return t.levels[0][i], nil
}

// Path returns the authentication path for leaf index i, from leaf to
// root. When a level has odd cardinality and i lands on the unpaired
// trailing node, the step records that node duplicated against itself,
// with IsLeft matching the node's own parity.
func (t *Tree) Path(i int) (Path, error) {
	n := len(t.levels[0])
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: leaf index %d out of range [0,%d)", xerrors.OutOfRange, i, n)
	}

	path := make(Path, 0, len(t.levels)-1)
	index := i
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		siblingIndex := index ^ 1

		var step PathStep
		if siblingIndex < len(nodes) {
			step = PathStep{Sibling: nodes[siblingIndex], IsLeft: siblingIndex < index}
		} else {
			step = PathStep{Sibling: nodes[index], IsLeft: index%2 == 0}
		}
		path = append(path, step)
		index >>= 1
	}
	return path, nil
}

// VerifyPath recomputes the root from leaf by walking path, combining
// at each level according to the current index's parity (not the
// stored IsLeft flag, which is informational only), and compares the
// result to root.
func VerifyPath(hash th.TweakableHash, leaf th.Digest, path Path, index int, root th.Digest) bool {
	current := leaf
	idx := index
	for level, step := range path {
		parentIdx := idx >> 1
		if idx%2 == 0 {
			current = hash.NodeHash(current, step.Sibling, level+1, parentIdx)
		} else {
			current = hash.NodeHash(step.Sibling, current, level+1, parentIdx)
		}
		idx = parentIdx
	}
	return bytes.Equal(current, root)
}
