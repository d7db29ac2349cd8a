package merkle

import (
	"testing"

	"github.com/wintersig/xmss-go/th"
)

func leavesOf(values ...string) []th.Digest {
	out := make([]th.Digest, len(values))
	for i, v := range values {
		out[i] = th.Digest(v)
	}
	return out
}

func TestFourLeafTree(t *testing.T) {
	hash, err := th.NewSHA3(256)
	if err != nil {
		t.Fatalf("NewSHA3: %v", err)
	}
	leaves := leavesOf("leaf0", "leaf1", "leaf2", "leaf3")
	tree, err := NewTree(hash, leaves)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	root := tree.Root()

	for i := range leaves {
		leaf, err := tree.Leaf(i)
		if err != nil {
			t.Fatalf("Leaf(%d): %v", i, err)
		}
		path, err := tree.Path(i)
		if err != nil {
			t.Fatalf("Path(%d): %v", i, err)
		}
		if !VerifyPath(hash, leaf, path, i, root) {
			t.Fatalf("VerifyPath(leaf %d) = false, want true", i)
		}
	}

	path0, _ := tree.Path(0)
	if VerifyPath(hash, th.Digest("wrong"), path0, 0, root) {
		t.Fatal("VerifyPath accepted a wrong leaf")
	}
	leaf0, _ := tree.Leaf(0)
	if VerifyPath(hash, leaf0, path0, 1, root) {
		t.Fatal("VerifyPath accepted a mismatched index")
	}
}

func TestOddCountTree(t *testing.T) {
	hash, err := th.NewSHA3(256)
	if err != nil {
		t.Fatalf("NewSHA3: %v", err)
	}
	leaves := leavesOf("leaf0", "leaf1", "leaf2")

	tree1, err := NewTree(hash, leaves)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	tree2, err := NewTree(hash, leaves)
	if err != nil {
		t.Fatalf("NewTree (second construction): %v", err)
	}
	if string(tree1.Root()) != string(tree2.Root()) {
		t.Fatal("root is not stable across repeated construction")
	}

	for i := range leaves {
		leaf, err := tree1.Leaf(i)
		if err != nil {
			t.Fatalf("Leaf(%d): %v", i, err)
		}
		path, err := tree1.Path(i)
		if err != nil {
			t.Fatalf("Path(%d): %v", i, err)
		}
		if !VerifyPath(hash, leaf, path, i, tree1.Root()) {
			t.Fatalf("VerifyPath(leaf %d) = false, want true", i)
		}
	}
}

func TestSingleLeafTree(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	leaves := leavesOf("only-leaf")
	tree, err := NewTree(hash, leaves)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if string(tree.Root()) != string(leaves[0]) {
		t.Fatal("single-leaf tree root should equal the leaf itself")
	}
	path, err := tree.Path(0)
	if err != nil {
		t.Fatalf("Path(0): %v", err)
	}
	if len(path) != 0 {
		t.Fatalf("single-leaf tree path should be empty, got %d steps", len(path))
	}
}

func TestNewTreeRejectsEmptyLeaves(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	if _, err := NewTree(hash, nil); err == nil {
		t.Fatal("NewTree(nil) should have failed")
	}
}

func TestLeafAndPathBoundsChecked(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	tree, _ := NewTree(hash, leavesOf("a", "b"))
	if _, err := tree.Leaf(-1); err == nil {
		t.Fatal("Leaf(-1) should have failed")
	}
	if _, err := tree.Leaf(2); err == nil {
		t.Fatal("Leaf(2) should have failed")
	}
	if _, err := tree.Path(2); err == nil {
		t.Fatal("Path(2) should have failed")
	}
}

func TestWideTreeParallelPath(t *testing.T) {
	hash, _ := th.NewSHA3(256)
	values := make([]string, 300)
	for i := range values {
		values[i] = string(rune('a' + i%26))
	}
	leaves := leavesOf(values...)
	tree, err := NewTree(hash, leaves)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	root := tree.Root()
	for _, i := range []int{0, 1, 150, 299} {
		leaf, err := tree.Leaf(i)
		if err != nil {
			t.Fatalf("Leaf(%d): %v", i, err)
		}
		path, err := tree.Path(i)
		if err != nil {
			t.Fatalf("Path(%d): %v", i, err)
		}
		if !VerifyPath(hash, leaf, path, i, root) {
			t.Fatalf("VerifyPath(leaf %d) = false, want true", i)
		}
	}
}
