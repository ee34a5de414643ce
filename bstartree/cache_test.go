package bstar

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

// runWorkload applies the same mixed operations to tree and returns the expected contents.
func runWorkload(t *testing.T, tree *BStarTree, seed int64) map[int][]byte {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	want := map[int][]byte{}
	for step := 0; step < 3000; step++ {
		i := r.Intn(800)
		switch op := r.Intn(10); {
		case op < 5:
			ok, err := tree.Insert(key(i), value(i))
			if err != nil {
				t.Fatalf("Failed to insert: %v", err)
			}
			if _, had := want[i]; had == ok {
				t.Fatalf("Insert %q: ok=%v but present=%v", key(i), ok, had)
			}
			if ok {
				want[i] = value(i)
			}
		case op < 7:
			ok, err := tree.Delete(key(i))
			if err != nil {
				t.Fatalf("Failed to delete: %v", err)
			}
			if _, had := want[i]; had != ok {
				t.Fatalf("Delete %q: ok=%v but present=%v", key(i), ok, had)
			}
			delete(want, i)
		case op < 8:
			v := []byte(fmt.Sprintf("updated-%d-%d", i, step))
			if err := tree.Update(key(i), v); err != nil {
				t.Fatalf("Failed to update: %v", err)
			}
			want[i] = v
		default:
			got, ok, err := tree.Find(key(i))
			if err != nil {
				t.Fatalf("Failed to find: %v", err)
			}
			if v, had := want[i]; had != ok || (ok && string(got) != string(v)) {
				t.Fatalf("Find %q: got %q ok=%v, want %q present=%v", key(i), got, ok, v, had)
			}
		}
	}
	return want
}

// TestEvictionMatchesUnbounded tests that a tiny cache gives the same store as an unbounded one
func TestEvictionMatchesUnbounded(t *testing.T) {
	unbounded := openTestTree(t, withFanout(6), withCacheSize(0))
	want := runWorkload(t, unbounded, 42)
	mustVerify(t, unbounded)
	wantRange, err := unbounded.Range(0, len(want))
	if err != nil {
		t.Fatalf("Failed to range: %v", err)
	}

	for _, policy := range []EvictionPolicy{EvictFull, EvictPartial} {
		t.Run(policy.String(), func(t *testing.T) {
			tree := openTestTree(t, withFanout(6), withCacheSize(4), withPolicy(policy))
			got := runWorkload(t, tree, 42)
			if len(got) != len(want) {
				t.Fatalf("Expected %d records, got %d", len(want), len(got))
			}
			// a read evicts first, then loads at most one path
			if _, _, err := tree.Find(key(0)); err != nil {
				t.Fatalf("Failed to find: %v", err)
			}
			if n := tree.activeNodes.Load(); n > 4+8 {
				t.Errorf("Cache held %d live nodes after the workload", n)
			}
			mustVerify(t, tree)
			expectContents(t, tree, want)

			gotRange, err := tree.Range(0, len(want))
			if err != nil {
				t.Fatalf("Failed to range: %v", err)
			}
			if fmt.Sprint(gotRange) != fmt.Sprint(wantRange) {
				t.Errorf("Ordered contents differ from the unbounded run")
			}
		})
	}
}

// TestFlushDropsGraph tests that Flush writes everything and unloads the root
func TestFlushDropsGraph(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	for i := 0; i < 100; i++ {
		mustInsert(t, tree, key(i), value(i))
	}
	if err := tree.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	if tree.root != nil || tree.activeNodes.Load() != 0 {
		t.Errorf("Expected no resident nodes after flush, root=%v active=%d", tree.root != nil, tree.activeNodes.Load())
	}

	stats, err := tree.Stats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.ActiveNodes != 1 || stats.DirtyNodes != 0 || stats.ItemCount != 100 {
		t.Errorf("Unexpected stats after flush: %+v", stats)
	}
	if stats.FileSize != tree.Header().EstimatedFileSize() {
		t.Errorf("File size %d, header estimates %d", stats.FileSize, tree.Header().EstimatedFileSize())
	}
	expectContents(t, tree, func() map[int][]byte {
		m := map[int][]byte{}
		for i := 0; i < 100; i++ {
			m[i] = value(i)
		}
		return m
	}())
}

// TestRetuneOnInsert tests the cache size shrink when the store holds many overflow pages
func TestRetuneOnInsert(t *testing.T) {
	tree := NewBStarTree(filepath.Join(t.TempDir(), "store.db"), nil)
	tree.SetFanout(6)
	tree.SetPageSize(128)
	tree.SetCacheSize(1000)
	if err := tree.SetAutoTune(false, 40); err != nil {
		t.Fatalf("Failed to set auto tune: %v", err)
	}
	if err := tree.Open(); err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer tree.Close()

	for i := 0; i <= 40; i++ {
		mustInsert(t, tree, key(i), make([]byte, 600))
	}
	if tree.cacheSize >= 1000 {
		t.Errorf("Expected cache size to shrink from overflow ratio, still %d", tree.cacheSize)
	}
	if tree.Header().CacheSize != uint64(tree.cacheSize) {
		t.Errorf("Header cache size %d not updated to %d", tree.Header().CacheSize, tree.cacheSize)
	}
}
