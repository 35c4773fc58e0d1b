// Package merkle implements a binary Merkle tree commitment over hash
// digests.
//
// The tree is parameterized over a Compressor, the two-to-one compression
// capability; the Rescue-Prime hasher is the usual choice but any
// collision-resistant compression works. Construction is deterministic:
// identical leaf sequences produce identical roots and authentication
// paths regardless of how much of the build ran in parallel.
package merkle

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-crypto/internal/vybium-crypto/mathutil"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

var (
	// ErrNonPowerOfTwoLeafCount is returned when the leaf count is zero
	// or not a power of two. Padding is deliberately not performed; the
	// caller decides how to fill its leaf sequence.
	ErrNonPowerOfTwoLeafCount = errors.New("merkle: leaf count is not a power of two")

	// ErrIndexOutOfRange is returned by Open for indices at or beyond
	// the leaf count.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
)

// parallelThreshold is the level width at and above which node
// construction fans out across a bounded worker pool.
const parallelThreshold = 256

// Compressor is the two-to-one compression capability the tree is built
// with. hash.Hasher (Rescue-Prime) and hash.ShakeHasher both satisfy it.
type Compressor interface {
	Compress(left, right hash.Digest) hash.Digest
}

// Path is an authentication path: the sibling digests from a leaf to the
// root, ordered leaf-to-root. Together with the leaf index, whose bits
// select the compression order at each level, it lets a verifier
// recompute the root. A Path is an independent copy; it stays valid after
// the tree is gone.
type Path []hash.Digest

// Tree is an immutable Merkle tree. The implicit complete binary tree is
// stored as a flat one-indexed array: the root at index 1, node i's
// children at 2i and 2i+1, the n leaves at [n, 2n).
type Tree struct {
	nodes      []hash.Digest
	numLeaves  int
	compressor Compressor
}

// New builds a Merkle tree over the given leaf digests. The leaf count
// must be a nonzero power of two; otherwise ErrNonPowerOfTwoLeafCount is
// returned before any hashing starts. The leaves are copied.
func New(leaves []hash.Digest, c Compressor) (*Tree, error) {
	n := len(leaves)
	if !mathutil.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrNonPowerOfTwoLeafCount, n)
	}

	nodes := make([]hash.Digest, 2*n)
	copy(nodes[n:], leaves)

	t := &Tree{nodes: nodes, numLeaves: n, compressor: c}
	for width := n / 2; width >= 1; width /= 2 {
		t.buildLevel(width)
	}
	return t, nil
}

// buildLevel fills the nodes [width, 2*width) from their already-built
// children. Nodes within a level are independent and fan out across a
// bounded worker pool for wide levels; levels stay strictly sequential.
func (t *Tree) buildLevel(width int) {
	compress := func(from, to int) {
		for i := from; i < to; i++ {
			t.nodes[i] = t.compressor.Compress(t.nodes[2*i], t.nodes[2*i+1])
		}
	}

	if width < parallelThreshold {
		compress(width, 2*width)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (width + workers - 1) / workers
	var g errgroup.Group
	for from := width; from < 2*width; from += chunk {
		from, to := from, from+chunk
		if to > 2*width {
			to = 2 * width
		}
		g.Go(func() error {
			compress(from, to)
			return nil
		})
	}
	// workers cannot fail; Wait is the per-level join
	_ = g.Wait()
}

// Commit builds the tree and returns only its root digest.
func Commit(leaves []hash.Digest, c Compressor) (hash.Digest, error) {
	t, err := New(leaves, c)
	if err != nil {
		return hash.Digest{}, err
	}
	return t.Root(), nil
}

// Root returns the root digest.
func (t *Tree) Root() hash.Digest {
	return t.nodes[1]
}

// NumLeaves returns the number of leaves the tree was built over.
func (t *Tree) NumLeaves() int {
	return t.numLeaves
}

// Leaf returns the leaf digest at the given index.
func (t *Tree) Leaf(index int) (hash.Digest, error) {
	if index < 0 || index >= t.numLeaves {
		return hash.Digest{}, fmt.Errorf("%w: %d with %d leaves", ErrIndexOutOfRange, index, t.numLeaves)
	}
	return t.nodes[t.numLeaves+index], nil
}

// Open returns the leaf at the given index together with its
// authentication path. Fails with ErrIndexOutOfRange for invalid indices.
func (t *Tree) Open(index int) (hash.Digest, Path, error) {
	if index < 0 || index >= t.numLeaves {
		return hash.Digest{}, nil, fmt.Errorf("%w: %d with %d leaves", ErrIndexOutOfRange, index, t.numLeaves)
	}

	path := make(Path, 0, mathutil.Log2(t.numLeaves))
	for i := t.numLeaves + index; i > 1; i /= 2 {
		path = append(path, t.nodes[i^1])
	}
	return t.nodes[t.numLeaves+index], path, nil
}

// Verify recomputes the root from a leaf, its index and an authentication
// path, compressing left or right at each level according to the
// corresponding index bit. It returns true only when the recomputed root
// matches; it never returns an error, because a failing proof is an
// expected outcome, not an exceptional one.
func Verify(root, leaf hash.Digest, index int, path Path, c Compressor) bool {
	if index < 0 || len(path) >= 63 || index >= 1<<len(path) {
		return false
	}

	current := leaf
	for _, sibling := range path {
		if index&1 == 1 {
			current = c.Compress(sibling, current)
		} else {
			current = c.Compress(current, sibling)
		}
		index >>= 1
	}
	return current.Equal(root)
}
