package bstar

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

// OnDiskPager reads and writes byte ranges of the store file. Reads are
// served from a ristretto cache keyed by file offset when one is configured.
type OnDiskPager struct {
	file     *os.File
	filePath string
	pages    *ristretto.Cache[int64, []byte]
	hits     atomic.Uint64
	misses   atomic.Uint64
	mu       sync.RWMutex
}

// NewOnDiskPager opens or creates the store file. cacheBytes <= 0 disables
// the page cache.
func NewOnDiskPager(filePath string, cacheBytes int64) (*OnDiskPager, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store file %s", filePath)
	}

	pager := &OnDiskPager{
		file:     file,
		filePath: filePath,
	}
	if cacheBytes > 0 {
		pager.pages, err = ristretto.NewCache(&ristretto.Config[int64, []byte]{
			NumCounters:        max(cacheBytes/DefaultPageSize*10, 1000),
			MaxCost:            cacheBytes,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			file.Close()
			return nil, errors.Wrap(err, "failed to create page cache")
		}
	}
	return pager, nil
}

// ReadAt reads n bytes at off. A read past the end of the file is zero padded.
func (p *OnDiskPager) ReadAt(off int64, n int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return nil, errors.New("pager file is closed")
	}

	if p.pages != nil {
		if cached, ok := p.pages.Get(off); ok && len(cached) == n {
			p.hits.Add(1)
			return append([]byte(nil), cached...), nil
		}
		p.misses.Add(1)
	}

	buf := make([]byte, n)
	read, err := p.file.ReadAt(buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && read > 0) {
		return nil, errors.Wrapf(err, "failed to read %d bytes at %d", n, off)
	}

	if p.pages != nil {
		p.pages.Set(off, append([]byte(nil), buf...), int64(n))
	}
	return buf, nil
}

// WriteAt writes data at off and drops any cached copy of that range.
func (p *OnDiskPager) WriteAt(off int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return errors.New("pager file is closed")
	}

	if _, err := p.file.WriteAt(data, off); err != nil {
		return errors.Wrapf(err, "failed to write %d bytes at %d", len(data), off)
	}
	if p.pages != nil {
		p.pages.Del(off)
		p.pages.Wait()
	}
	return nil
}

// Size returns the current file size.
func (p *OnDiskPager) Size() (int64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return 0, errors.New("pager file is closed")
	}
	stat, err := p.file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "failed to stat store file")
	}
	return stat.Size(), nil
}

// Sync flushes all pending writes to disk
func (p *OnDiskPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return errors.New("pager file is closed")
	}
	return p.file.Sync()
}

// CacheCounters returns page cache hits and misses.
func (p *OnDiskPager) CacheCounters() (hits, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

// Close syncs and closes the store file
func (p *OnDiskPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil // Already closed
	}
	if p.pages != nil {
		p.pages.Close()
		p.pages = nil
	}

	err := p.file.Sync() // Flush before closing
	if err != nil {
		p.file.Close()
		p.file = nil
		return errors.Wrap(err, "failed to sync before close")
	}

	err = p.file.Close()
	p.file = nil // Mark as closed
	return err
}
