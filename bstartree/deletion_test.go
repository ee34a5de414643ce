package bstar

import (
	"fmt"
	"testing"
)

// TestDeleteRandom tests deleting half the keys in random order while the invariants hold
func TestDeleteRandom(t *testing.T) {
	for _, fanout := range []int{6, 7, 9, 24} {
		t.Run(fmt.Sprintf("fanout=%d", fanout), func(t *testing.T) {
			tree := openTestTree(t, withFanout(fanout))
			want := map[int][]byte{}
			for _, i := range shuffled(600, int64(fanout)) {
				mustInsert(t, tree, key(i), value(i))
				want[i] = value(i)
			}

			for n, i := range shuffled(600, int64(fanout)+100)[:300] {
				ok, err := tree.Delete(key(i))
				if err != nil {
					t.Fatalf("Failed to delete %q: %v", key(i), err)
				}
				if !ok {
					t.Fatalf("Delete %q reported missing", key(i))
				}
				delete(want, i)
				if n%25 == 0 {
					mustVerify(t, tree)
				}
				if _, found, _ := tree.Find(key(i)); found {
					t.Fatalf("Key %q still present after delete", key(i))
				}
			}
			mustVerify(t, tree)
			expectContents(t, tree, want)
		})
	}
}

// TestDeleteAll tests emptying the tree down to an empty root and refilling it
func TestDeleteAll(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	for i := 0; i < 200; i++ {
		mustInsert(t, tree, key(i), value(i))
	}
	for _, i := range shuffled(200, 3) {
		if ok, err := tree.Delete(key(i)); err != nil || !ok {
			t.Fatalf("Failed to delete %q: ok=%v err=%v", key(i), ok, err)
		}
	}
	mustVerify(t, tree)
	if tree.ItemCount() != 0 {
		t.Fatalf("Expected empty tree, got %d items", tree.ItemCount())
	}
	if !tree.root.isLeaf || len(tree.root.keys) != 0 {
		t.Errorf("Expected an empty leaf root")
	}

	c, err := tree.First()
	if err != nil {
		t.Fatalf("Failed to get first cursor: %v", err)
	}
	if c.Valid() {
		t.Errorf("Expected an exhausted cursor on an empty tree")
	}

	for i := 0; i < 50; i++ {
		mustInsert(t, tree, key(i), value(i))
	}
	mustVerify(t, tree)
}

// TestDeleteMissing tests that deleting an absent key changes nothing
func TestDeleteMissing(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	for i := 0; i < 80; i += 2 {
		mustInsert(t, tree, key(i), value(i))
	}
	before := tree.Header()
	version := tree.version.Load()

	for i := 1; i < 80; i += 2 {
		ok, err := tree.Delete(key(i))
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if ok {
			t.Errorf("Delete of missing %q reported success", key(i))
		}
	}
	if tree.Header() != before || tree.version.Load() != version {
		t.Errorf("Deleting missing keys changed the tree")
	}
	mustVerify(t, tree)
}

// TestDeleteInternalKeys tests removing records that live in internal nodes
func TestDeleteInternalKeys(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	want := map[int][]byte{}
	for i := 0; i < 300; i++ {
		mustInsert(t, tree, key(i), value(i))
		want[i] = value(i)
	}

	for round := 0; round < 20 && !tree.root.isLeaf; round++ {
		k := append([]byte{}, tree.root.keys[0]...)
		var i int
		fmt.Sscanf(string(k), "k%06d", &i)

		ok, err := tree.Delete(k)
		if err != nil || !ok {
			t.Fatalf("Failed to delete root key %q: ok=%v err=%v", k, ok, err)
		}
		delete(want, i)
		mustVerify(t, tree)
	}
	expectContents(t, tree, want)
}

// TestDeleteReopen tests that deletions persist
func TestDeleteReopen(t *testing.T) {
	tree := openTestTree(t, withFanout(8))
	for i := 0; i < 400; i++ {
		mustInsert(t, tree, key(i), value(i))
	}
	want := map[int][]byte{}
	for i := 0; i < 400; i++ {
		if i%3 == 0 {
			if _, err := tree.Delete(key(i)); err != nil {
				t.Fatalf("Failed to delete: %v", err)
			}
			continue
		}
		want[i] = value(i)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened := openTreeAt(t, tree.FileName())
	expectContents(t, reopened, want)
	mustVerify(t, reopened)
}
