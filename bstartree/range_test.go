package bstar

import (
	"testing"

	"github.com/cockroachdb/errors"
)

// TestRangeOrdinal tests ranges against the sorted key list
func TestRangeOrdinal(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	ids := shuffled(250, 7)
	for _, i := range ids {
		mustInsert(t, tree, key(i), value(i))
	}
	all := sortedKeys(ids)

	tests := []struct {
		name       string
		start, end int
		wantLen    int
	}{
		{"single first", 0, 0, 1},
		{"single last", 249, 249, 1},
		{"middle", 37, 151, 115},
		{"everything", 0, 249, 250},
		{"past the end", 240, 400, 10},
		{"wholly past the end", 300, 310, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tree.Range(tt.start, tt.end)
			if err != nil {
				t.Fatalf("Failed to range: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("Expected %d entries, got %d", tt.wantLen, len(got))
			}
			for i, e := range got {
				if string(e.Key) != all[tt.start+i] {
					t.Errorf("Rank %d: expected %s, got %s", tt.start+i, all[tt.start+i], e.Key)
				}
			}
		})
	}
}

// TestRangeInvalid tests rejected bounds
func TestRangeInvalid(t *testing.T) {
	tree := openTestTree(t)
	mustInsert(t, tree, key(1), value(1))

	if _, err := tree.Range(5, 4); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for end < start, got %v", err)
	}
	if _, err := tree.Range(-1, 4); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for negative start, got %v", err)
	}
}

// TestRangeSkipsUnloadedSubtrees tests that a range near the end loads only
// the path to its records
func TestRangeSkipsUnloadedSubtrees(t *testing.T) {
	tree := openTestTree(t, withFanout(6))
	ids := shuffled(2000, 11)
	for _, i := range ids {
		mustInsert(t, tree, key(i), value(i))
	}
	all := sortedKeys(ids)

	tests := []struct {
		name       string
		start, end int
	}{
		{"last", 1999, 1999},
		{"middle", 1000, 1004},
		{"crosses the end", 1995, 2010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tree.Flush(); err != nil {
				t.Fatalf("Failed to flush: %v", err)
			}
			got, err := tree.Range(tt.start, tt.end)
			if err != nil {
				t.Fatalf("Failed to range: %v", err)
			}
			for i, e := range got {
				if string(e.Key) != all[tt.start+i] {
					t.Errorf("Rank %d: expected %s, got %s", tt.start+i, all[tt.start+i], e.Key)
				}
			}
			if want := min(tt.end, 1999) - tt.start + 1; len(got) != want {
				t.Errorf("Expected %d entries, got %d", want, len(got))
			}
			if n := tree.activeNodes.Load(); n > 16 {
				t.Errorf("Range made %d nodes resident", n)
			}
		})
	}
}
