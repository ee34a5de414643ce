package bstar

import (
	"bytes"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// NewBStarTree returns a closed tree bound to fileName. A nil cmp orders keys
// byte-wise with shorter-is-less.
func NewBStarTree(fileName string, cmp func(a, b []byte) int) *BStarTree {
	if cmp == nil {
		cmp = bytes.Compare
	}
	return &BStarTree{
		fileName:       fileName,
		cmp:            cmp,
		log:            zap.NewNop(),
		fanout:         DefaultFanout,
		pageSize:       DefaultPageSize,
		cacheSize:      DefaultCacheSize,
		delaySplit:     true,
		policy:         EvictFull,
		pageCacheBytes: DefaultPageCacheBytes,
		optimizeEvery:  DefaultOptimizeEvery,
		mu:             nopLocker{},
	}
}

// SetFanout sets the maximum records per node for a new store. Values below
// MinFanout are raised to MinFanout.
func (t *BStarTree) SetFanout(n int) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	if n < MinFanout {
		t.log.Warn("fanout below minimum, clamping", zap.Int("requested", n), zap.Int("fanout", MinFanout))
		n = MinFanout
	}
	t.fanout = n
	return nil
}

// SetPageSize sets the node page size for a new store.
func (t *BStarTree) SetPageSize(n int) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	t.pageSize = n
	return nil
}

// SetCacheSize sets the live node limit. It may be changed while open.
// Zero disables eviction.
func (t *BStarTree) SetCacheSize(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 {
		n = 0
	}
	t.cacheSize = n
	t.cacheSizeSet = true
	if t.pager != nil {
		t.header.CacheSize = uint64(n)
	}
}

// SetDelaySplit switches leaf redistribution on or off. With it off the
// tree splits like a plain B-tree.
func (t *BStarTree) SetDelaySplit(on bool) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	t.delaySplit = on
	return nil
}

// SetThreadSafe enables the tree lock.
func (t *BStarTree) SetThreadSafe(on bool) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	t.threadSafe = on
	if on {
		t.mu = &sync.RWMutex{}
	} else {
		t.mu = nopLocker{}
	}
	return nil
}

func (t *BStarTree) SetEvictionPolicy(p EvictionPolicy) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	if p != EvictFull && p != EvictPartial {
		return errors.Newf("unknown eviction policy %d", p)
	}
	t.policy = p
	return nil
}

// SetPageCacheBytes sizes the page read cache under the node graph.
// Zero disables it.
func (t *BStarTree) SetPageCacheBytes(n int64) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	t.pageCacheBytes = n
	return nil
}

// SetAutoTune lets Optimize resize pages and fanout from the overflow ratio.
// every is the item count at which an insert re-tunes the store: with auto
// tuning on it runs Optimize, otherwise it only shrinks the cache size. Zero
// turns that off.
func (t *BStarTree) SetAutoTune(on bool, every uint64) error {
	if t.pager != nil {
		return ErrAlreadyOpen
	}
	t.autoTune = on
	t.optimizeEvery = every
	return nil
}

// SetSyncOnCommit makes every commit fsync the file.
func (t *BStarTree) SetSyncOnCommit(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncOnCommit = on
}

func (t *BStarTree) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	t.log = l
}

// Open opens the store file, creating an empty store if the file is empty.
func (t *BStarTree) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pager != nil {
		return ErrAlreadyOpen
	}
	return t.openLocked()
}

func (t *BStarTree) openLocked() error {
	pager, err := NewOnDiskPager(t.fileName, t.pageCacheBytes)
	if err != nil {
		return err
	}
	size, err := pager.Size()
	if err != nil {
		pager.Close()
		return err
	}

	t.pager = pager
	t.root = nil
	t.activeNodes.Store(0)
	t.version.Add(1)

	if size == 0 {
		if err := t.create(); err != nil {
			t.pager = nil
			pager.Close()
			return err
		}
		return nil
	}

	buf, err := pager.ReadAt(0, HeaderSize)
	if err != nil {
		t.pager = nil
		pager.Close()
		return err
	}
	h, err := decodeHeader(buf)
	if err != nil {
		t.pager = nil
		pager.Close()
		return errors.Wrapf(err, "open %s", t.fileName)
	}

	t.header = h
	t.fanout = int(h.Fanout)
	t.pageSize = int(h.PageSize)
	if t.cacheSizeSet {
		t.header.CacheSize = uint64(t.cacheSize)
	} else {
		t.cacheSize = int(h.CacheSize)
	}
	t.log.Info("opened store",
		zap.String("file", t.fileName),
		zap.Int("fanout", t.fanout),
		zap.Int("pageSize", t.pageSize),
		zap.Uint64("items", h.ItemCount))
	return nil
}

// create writes the header and an empty root leaf to an empty file.
func (t *BStarTree) create() error {
	if t.fanout < MinFanout {
		t.fanout = MinFanout
	}
	if minSize := minPageSize(t.fanout); t.pageSize < minSize {
		t.log.Warn("page size too small for fanout, raising",
			zap.Int("requested", t.pageSize), zap.Int("pageSize", minSize))
		t.pageSize = minSize
	}
	t.header = newHeader(t.fanout, t.pageSize, t.cacheSize)
	t.root = t.newNode(true)
	t.root.childNo = -1

	t.log.Info("created store",
		zap.String("file", t.fileName),
		zap.Int("fanout", t.fanout),
		zap.Int("pageSize", t.pageSize))
	return t.commitLocked()
}

// Close commits, drops the node graph and closes the file.
func (t *BStarTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *BStarTree) closeLocked() error {
	if t.pager == nil {
		return nil
	}
	err := t.flushLocked()
	if cerr := t.pager.Close(); err == nil {
		err = cerr
	}
	t.pager = nil
	t.log.Info("closed store", zap.String("file", t.fileName))
	return err
}

func (t *BStarTree) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pager != nil
}

// Clear drops every record by recreating an empty store with the same layout.
func (t *BStarTree) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pager == nil {
		return ErrNotOpen
	}
	t.root = nil
	t.activeNodes.Store(0)
	if err := t.pager.Close(); err != nil {
		return err
	}
	t.pager = nil
	if err := os.Remove(t.fileName); err != nil {
		return errors.Wrapf(err, "remove %s", t.fileName)
	}
	return t.openLocked()
}

func (t *BStarTree) ItemCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.header.ItemCount
}

// Header returns a copy of the in-memory header.
func (t *BStarTree) Header() FileHeader {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.header
}

func (t *BStarTree) FileName() string {
	return t.fileName
}

// newNode allocates a page for a fresh, loaded, dirty node.
func (t *BStarTree) newNode(isLeaf bool) *Node {
	n := &Node{
		fpos:    t.header.nextPageOffset(),
		isLeaf:  isLeaf,
		loaded:  true,
		dirty:   true,
		childNo: -1,
	}
	t.header.NodePages++
	t.activeNodes.Add(1)
	return n
}

// allocOverflow reserves pages contiguous pages at the end of the file.
func (t *BStarTree) allocOverflow(pages uint64) int64 {
	off := t.header.nextPageOffset()
	t.header.OverflowPages += pages
	return off
}

// lockWrite takes the tree lock for a mutation and makes the root resident.
func (t *BStarTree) lockWrite() error {
	t.mu.Lock()
	if t.pager == nil {
		t.mu.Unlock()
		return ErrNotOpen
	}
	if err := t.prepareLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	return nil
}

// lockRead takes the shared tree lock with the root resident. Eviction needs
// the exclusive lock, so it runs before the shared lock is taken.
func (t *BStarTree) lockRead() error {
	t.mu.RLock()
	if t.pager == nil {
		t.mu.RUnlock()
		return ErrNotOpen
	}
	if t.root != nil && !t.overCache() {
		return nil
	}
	t.mu.RUnlock()

	for {
		t.mu.Lock()
		if t.pager == nil {
			t.mu.Unlock()
			return ErrNotOpen
		}
		if err := t.prepareLocked(); err != nil {
			t.mu.Unlock()
			return err
		}
		t.mu.Unlock()

		t.mu.RLock()
		if t.pager == nil {
			t.mu.RUnlock()
			return ErrNotOpen
		}
		if t.root != nil {
			return nil
		}
		t.mu.RUnlock()
	}
}
