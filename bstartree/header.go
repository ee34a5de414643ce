package bstar

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	Magic      = 0x1a9999a1
	HeaderSize = 64 // in bytes, the first node page starts right after it

	DefaultFanout         = 24
	MinFanout             = 6
	DefaultPageSize       = 1024
	DefaultCacheSize      = 100 * 1024 // live nodes
	DefaultOptimizeEvery  = 16384
	DefaultPageCacheBytes = 8 << 20
)

// FileHeader is the fixed record at offset 0 of a store file.
//
// Layout (little endian):
//
//	magic u32 | reserved u32 | fanout u64 | pageSize u64 | cacheSize u64 |
//	itemCount u64 | rootOffset i64 | nodePages u64 | overflowPages u64
type FileHeader struct {
	Magic         uint32
	Fanout        uint64
	PageSize      uint64
	CacheSize     uint64
	ItemCount     uint64
	RootOffset    int64
	NodePages     uint64
	OverflowPages uint64
}

func newHeader(fanout, pageSize, cacheSize int) FileHeader {
	return FileHeader{
		Magic:      Magic,
		Fanout:     uint64(fanout),
		PageSize:   uint64(pageSize),
		CacheSize:  uint64(cacheSize),
		RootOffset: HeaderSize,
	}
}

func (h *FileHeader) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint64(buf[8:], h.Fanout)
	binary.LittleEndian.PutUint64(buf[16:], h.PageSize)
	binary.LittleEndian.PutUint64(buf[24:], h.CacheSize)
	binary.LittleEndian.PutUint64(buf[32:], h.ItemCount)
	binary.LittleEndian.PutUint64(buf[40:], uint64(h.RootOffset))
	binary.LittleEndian.PutUint64(buf[48:], h.NodePages)
	binary.LittleEndian.PutUint64(buf[56:], h.OverflowPages)
	return buf
}

func decodeHeader(buf []byte) (FileHeader, error) {
	var h FileHeader
	if len(buf) < HeaderSize {
		return h, errors.Wrapf(ErrCorrupt, "header is %d bytes, want %d", len(buf), HeaderSize)
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	if h.Magic != Magic {
		return h, errors.Wrapf(ErrCorrupt, "bad magic %#x", h.Magic)
	}
	h.Fanout = binary.LittleEndian.Uint64(buf[8:])
	h.PageSize = binary.LittleEndian.Uint64(buf[16:])
	h.CacheSize = binary.LittleEndian.Uint64(buf[24:])
	h.ItemCount = binary.LittleEndian.Uint64(buf[32:])
	h.RootOffset = int64(binary.LittleEndian.Uint64(buf[40:]))
	h.NodePages = binary.LittleEndian.Uint64(buf[48:])
	h.OverflowPages = binary.LittleEndian.Uint64(buf[56:])

	if h.Fanout < MinFanout || h.PageSize < uint64(minPageSize(int(h.Fanout))) {
		return h, errors.Wrapf(ErrCorrupt, "bad layout fanout=%d pageSize=%d", h.Fanout, h.PageSize)
	}
	if h.RootOffset < HeaderSize {
		return h, errors.Wrapf(ErrCorrupt, "bad root offset %d", h.RootOffset)
	}
	return h, nil
}

// nextPageOffset is where the next allocated page starts.
func (h *FileHeader) nextPageOffset() int64 {
	return HeaderSize + int64(h.PageSize)*int64(h.NodePages+h.OverflowPages)
}

// EstimatedFileSize is the size the file has once every allocated page is written.
func (h FileHeader) EstimatedFileSize() int64 {
	return h.nextPageOffset()
}

// ItemsPerNode is the average number of records per node page.
func (h FileHeader) ItemsPerNode() float64 {
	if h.NodePages == 0 {
		return 0
	}
	return float64(h.ItemCount) / float64(h.NodePages)
}

// OverflowPerNode is the average number of overflow pages per node page.
func (h FileHeader) OverflowPerNode() float64 {
	if h.NodePages == 0 {
		return 0
	}
	return float64(h.OverflowPages) / float64(h.NodePages)
}

// minPageSize is the smallest page that holds a full internal node header
// plus the continuation sentinel.
func minPageSize(fanout int) int {
	return 1 + 3*8 + (fanout+3)*8
}
