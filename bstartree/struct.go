// Structure of the B* tree
/*
Tree
 ├── Internal Node (keys + values + child pointers)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (keys + values)


- keys: sorted ascending order under the tree comparator
- internal nodes carry records too: children length == len(keys)+1
- every non-root node holds at least fanout/3 records at rest
- full leaves hand a record to a sibling before they split,
  two full siblings split into three nodes
- all leaf nodes at same depth

*/
package bstar

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type EvictionPolicy int

const (
	// EvictFull commits and then drops every child of the root.
	EvictFull EvictionPolicy = iota
	// EvictPartial commits and then drops the deepest half of the live nodes.
	EvictPartial
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictFull:
		return "full"
	case EvictPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Node is an in-memory node. An unloaded node is a stub that only knows
// its file offset; loadChild fills it in place.
type Node struct {
	fpos    int64
	isLeaf  bool
	loaded  bool
	dirty   bool
	childNo int   // slot in parent.children, -1 for the root
	parent  *Node // nil for the root

	keys     [][]byte
	vals     [][]byte
	children []*Node // only for internal node, len(keys)+1

	ovflAddr  int64  // start of the overflow run, 0 if none
	ovflPages uint64 // pages in the overflow run
}

type BStarTree struct {
	fileName string
	cmp      func(a, b []byte) int // comparison function for keys
	log      *zap.Logger

	// layout and tuning, fixed once the tree is open (except cacheSize)
	fanout         int
	pageSize       int
	cacheSize      int
	cacheSizeSet   bool
	delaySplit     bool
	threadSafe     bool
	policy         EvictionPolicy
	pageCacheBytes int64
	autoTune       bool
	optimizeEvery  uint64
	syncOnCommit   bool

	pager  *OnDiskPager
	header FileHeader
	root   *Node

	activeNodes atomic.Int64  // loaded nodes, root included
	version     atomic.Uint64 // bumped on every mutation and eviction

	mu     rwLocker   // tree lock, a no-op unless thread safe
	loadMu sync.Mutex // serializes lazy node loads
}

// Entry is a key/value pair returned by Range.
type Entry struct {
	Key   []byte
	Value []byte
}

// Stats is a snapshot of the tree's counters.
type Stats struct {
	FileName      string
	Fanout        int
	PageSize      int
	CacheSize     int
	Policy        EvictionPolicy
	ItemCount     uint64
	ActiveNodes   int64
	DirtyNodes    int
	NodePages     uint64
	OverflowPages uint64
	FileSize      int64
	PageCacheHits uint64
	PageCacheMiss uint64
}

type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}
