package bstar

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

type treeOption func(*BStarTree) error

func withFanout(n int) treeOption {
	return func(t *BStarTree) error { return t.SetFanout(n) }
}

func withPageSize(n int) treeOption {
	return func(t *BStarTree) error { return t.SetPageSize(n) }
}

func withCacheSize(n int) treeOption {
	return func(t *BStarTree) error { t.SetCacheSize(n); return nil }
}

func withPolicy(p EvictionPolicy) treeOption {
	return func(t *BStarTree) error { return t.SetEvictionPolicy(p) }
}

func withDelaySplit(on bool) treeOption {
	return func(t *BStarTree) error { return t.SetDelaySplit(on) }
}

func withThreadSafe() treeOption {
	return func(t *BStarTree) error { return t.SetThreadSafe(true) }
}

// openTestTree opens a fresh tree in a temp dir and closes it at cleanup.
func openTestTree(t *testing.T, opts ...treeOption) *BStarTree {
	t.Helper()
	return openTreeAt(t, filepath.Join(t.TempDir(), "store.db"), opts...)
}

func openTreeAt(t *testing.T, path string, opts ...treeOption) *BStarTree {
	t.Helper()
	tree := NewBStarTree(path, nil)
	for _, opt := range opts {
		if err := opt(tree); err != nil {
			t.Fatalf("Failed to configure tree: %v", err)
		}
	}
	if err := tree.Open(); err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return tree
}

func key(i int) []byte {
	return []byte(fmt.Sprintf("k%06d", i))
}

func value(i int) []byte {
	return []byte(fmt.Sprintf("value-%d", i))
}

func mustInsert(t *testing.T, tree *BStarTree, k, v []byte) {
	t.Helper()
	ok, err := tree.Insert(k, v)
	if err != nil {
		t.Fatalf("Failed to insert %q: %v", k, err)
	}
	if !ok {
		t.Fatalf("Insert %q reported a duplicate", k)
	}
}

func mustVerify(t *testing.T, tree *BStarTree) {
	t.Helper()
	if err := tree.Verify(); err != nil {
		t.Fatalf("Tree invariants broken: %v", err)
	}
}

// expectContents checks Find for every key in want and the item count.
func expectContents(t *testing.T, tree *BStarTree, want map[int][]byte) {
	t.Helper()
	for i, v := range want {
		got, ok, err := tree.Find(key(i))
		if err != nil {
			t.Fatalf("Failed to find %q: %v", key(i), err)
		}
		if !ok {
			t.Fatalf("Key %q not found", key(i))
		}
		if string(got) != string(v) {
			t.Fatalf("Value mismatch for %q: expected %q, got %q", key(i), v, got)
		}
	}
	if got := tree.ItemCount(); got != uint64(len(want)) {
		t.Fatalf("Expected %d items, got %d", len(want), got)
	}
}

// collect walks a cursor to exhaustion and returns the keys seen.
func collect(t *testing.T, tree *BStarTree, c *Cursor, forward bool) []string {
	t.Helper()
	var keys []string
	for c.Valid() {
		k, _, ok, err := tree.Read(c)
		if err != nil {
			t.Fatalf("Failed to read cursor: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, string(k))
		if _, err := tree.Advance(c, forward); err != nil {
			t.Fatalf("Failed to advance cursor: %v", err)
		}
	}
	return keys
}

func shuffled(n int, seed int64) []int {
	r := rand.New(rand.NewSource(seed))
	return r.Perm(n)
}
