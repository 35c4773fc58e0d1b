package merkle

import (
	"errors"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

func testLeaves(n int) []hash.Digest {
	leaves := make([]hash.Digest, n)
	for i := range leaves {
		for j := range leaves[i] {
			leaves[i][j] = field.New(uint64(i*hash.DigestLength + j + 1))
		}
	}
	return leaves
}

func TestCommitOpenVerify(t *testing.T) {
	for _, compressor := range []Compressor{hash.Hasher{}, hash.ShakeHasher{}} {
		for _, n := range []int{1, 2, 4, 8, 64} {
			leaves := testLeaves(n)
			tree, err := New(leaves, compressor)
			if err != nil {
				t.Fatalf("New(%d leaves): %v", n, err)
			}
			root := tree.Root()

			for i := 0; i < n; i++ {
				leaf, path, err := tree.Open(i)
				if err != nil {
					t.Fatalf("Open(%d): %v", i, err)
				}
				if !leaf.Equal(leaves[i]) {
					t.Fatalf("Open(%d) returned wrong leaf", i)
				}
				if !Verify(root, leaf, i, path, compressor) {
					t.Fatalf("valid proof for leaf %d of %d rejected", i, n)
				}
			}
		}
	}
}

// TestFourLeafScenario pins the exact tree shape: with leaves L0..L3, the
// path for index 2 must be [L3, compress(L0, L1)].
func TestFourLeafScenario(t *testing.T) {
	c := hash.Hasher{}
	leaves := testLeaves(4)

	tree, err := New(leaves, c)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root, err := Commit(leaves, c)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !root.Equal(tree.Root()) {
		t.Fatal("Commit and New disagree on the root")
	}

	leaf, path, err := tree.Open(2)
	if err != nil {
		t.Fatalf("Open(2): %v", err)
	}
	if !leaf.Equal(leaves[2]) {
		t.Error("Open(2) should return L2")
	}
	if len(path) != 2 {
		t.Fatalf("path length %d, want 2", len(path))
	}
	if !path[0].Equal(leaves[3]) {
		t.Error("level-0 sibling should be L3")
	}
	if !path[1].Equal(c.Compress(leaves[0], leaves[1])) {
		t.Error("level-1 sibling should be compress(L0, L1)")
	}
	if !Verify(root, leaf, 2, path, c) {
		t.Error("valid proof rejected")
	}

	// the root is what a by-hand build gives
	want := c.Compress(c.Compress(leaves[0], leaves[1]), c.Compress(leaves[2], leaves[3]))
	if !root.Equal(want) {
		t.Error("root differs from the hand-computed root")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := hash.Hasher{}
	leaves := testLeaves(8)
	tree, err := New(leaves, c)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := tree.Root()
	leaf, path, err := tree.Open(5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	t.Run("flipped path element", func(t *testing.T) {
		tampered := make(Path, len(path))
		copy(tampered, path)
		tampered[1][0] = tampered[1][0].Add(field.One)
		if Verify(root, leaf, 5, tampered, c) {
			t.Error("tampered path accepted")
		}
	})

	t.Run("flipped leaf", func(t *testing.T) {
		badLeaf := leaf
		badLeaf[0] = badLeaf[0].Add(field.One)
		if Verify(root, badLeaf, 5, path, c) {
			t.Error("tampered leaf accepted")
		}
	})

	t.Run("wrong index", func(t *testing.T) {
		if Verify(root, leaf, 4, path, c) {
			t.Error("wrong index accepted")
		}
	})

	t.Run("flipped root", func(t *testing.T) {
		badRoot := root
		badRoot[0] = badRoot[0].Add(field.One)
		if Verify(badRoot, leaf, 5, path, c) {
			t.Error("wrong root accepted")
		}
	})

	t.Run("truncated path", func(t *testing.T) {
		if Verify(root, leaf, 5, path[:2], c) {
			t.Error("truncated path accepted")
		}
	})

	t.Run("index beyond path range", func(t *testing.T) {
		if Verify(root, leaf, 8, path, c) {
			t.Error("index outside the tree accepted")
		}
		if Verify(root, leaf, -1, path, c) {
			t.Error("negative index accepted")
		}
	})
}

func TestLeafCountValidation(t *testing.T) {
	c := hash.Hasher{}
	for _, n := range []int{0, 3, 5, 6, 7, 100} {
		if _, err := New(testLeaves(n), c); !errors.Is(err, ErrNonPowerOfTwoLeafCount) {
			t.Errorf("New(%d leaves) = %v, want ErrNonPowerOfTwoLeafCount", n, err)
		}
		if _, err := Commit(testLeaves(n), c); !errors.Is(err, ErrNonPowerOfTwoLeafCount) {
			t.Errorf("Commit(%d leaves) = %v, want ErrNonPowerOfTwoLeafCount", n, err)
		}
	}
}

func TestOpenIndexOutOfRange(t *testing.T) {
	tree, err := New(testLeaves(4), hash.Hasher{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, index := range []int{-1, 4, 100} {
		if _, _, err := tree.Open(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Open(%d) = %v, want ErrIndexOutOfRange", index, err)
		}
		if _, err := tree.Leaf(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Leaf(%d) = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

// TestDeterminism builds a tree wide enough for the parallel path and
// checks it agrees with itself and with the sequential sizes.
func TestDeterminism(t *testing.T) {
	c := hash.Hasher{}
	leaves := testLeaves(1024) // wide enough to engage the worker pool

	first, err := Commit(leaves, c)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	second, err := Commit(leaves, c)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !first.Equal(second) {
		t.Error("identical leaves produced different roots")
	}
}

// TestPathOutlivesTree checks that an authentication path is a copy, not
// a view into the tree's storage.
func TestPathOutlivesTree(t *testing.T) {
	c := hash.Hasher{}
	leaves := testLeaves(4)
	tree, err := New(leaves, c)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := tree.Root()
	leaf, path, err := tree.Open(1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// clobber the tree's internal nodes
	for i := range tree.nodes {
		tree.nodes[i] = hash.Digest{}
	}

	if !Verify(root, leaf, 1, path, c) {
		t.Error("path should stay valid after the tree is discarded")
	}
}

func TestCompressorsDisagree(t *testing.T) {
	leaves := testLeaves(4)
	rescue, err := Commit(leaves, hash.Hasher{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	shake, err := Commit(leaves, hash.ShakeHasher{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if rescue.Equal(shake) {
		t.Error("different compressors should give different roots")
	}
}

func BenchmarkCommit(b *testing.B) {
	leaves := testLeaves(1 << 10)
	c := hash.Hasher{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Commit(leaves, c); err != nil {
			b.Fatal(err)
		}
	}
}
