// Package sstable implements the immutable on-disk sorted-table format:
// data blocks, an optional bloom filter block, an index block, and a
// fixed 48-byte footer (spec.md §4.3).
package sstable

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/ChinmayNoob/lsm-go/bloom"
	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/status"
)

// FormatFilename renders a file number as the bit-exact NNNNNN.sst name
// spec.md §6 requires.
func FormatFilename(number uint64) string {
	return fmt.Sprintf("%06d.sst", number)
}

// WriterOptions configures how a new SST is built.
type WriterOptions struct {
	BlockSize       int
	RestartInterval int
	Compression     CompressionType
	BitsPerKey      int // 0 disables the bloom filter block
}

// DefaultWriterOptions mirrors spec.md §4.3/§6's defaults.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		BlockSize:       DefaultBlockSize,
		RestartInterval: DefaultRestartInterval,
		Compression:     CompressionSnappy,
		BitsPerKey:      bloom.DefaultBitsPerKey,
	}
}

// Writer builds one SST file from a strictly-increasing stream of
// (internalKey, value) pairs.
type Writer struct {
	opts WriterOptions
	f    *os.File

	dataBlock  *blockBuilder
	indexBlock *blockBuilder
	filter     *bloom.Builder

	offset      uint64
	smallest    []byte
	largest     []byte
	numEntries  int
	pendingSep  []byte
	pendingHdl  BlockHandle
	havePending bool
}

// NewWriter creates path (truncating if it exists) and prepares it to
// receive entries via Add.
func NewWriter(path string, opts WriterOptions) (*Writer, *status.Status) {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.RestartInterval <= 0 {
		opts.RestartInterval = DefaultRestartInterval
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, status.Wrap(err, "create sst %s", path)
	}
	w := &Writer{
		opts:       opts,
		f:          f,
		dataBlock:  newBlockBuilder(opts.RestartInterval),
		indexBlock: newBlockBuilder(opts.RestartInterval),
	}
	if opts.BitsPerKey > 0 {
		w.filter = bloom.NewBuilder(opts.BitsPerKey)
	}
	return w, nil
}

// Add appends one internal-key-encoded entry. Entries MUST be added in
// strictly increasing internal-key order (spec.md §4.3's writer contract).
func (w *Writer) Add(internalKey ikey.Key, value []byte) *status.Status {
	userKey := ikey.UserKey(internalKey)
	if w.smallest == nil {
		w.smallest = append([]byte(nil), userKey...)
	}
	w.largest = append(w.largest[:0], userKey...)

	if w.havePending {
		if st := w.indexBlock.Add(w.pendingSep, w.pendingHdl.Encode()); st != nil {
			return st
		}
		w.havePending = false
	}

	if st := w.dataBlock.Add(internalKey, value); st != nil {
		return st
	}
	if w.filter != nil {
		w.filter.Add(userKey)
	}
	w.numEntries++

	if len(w.dataBlock.buf) >= w.opts.BlockSize {
		if st := w.flushDataBlock(internalKey); st != nil {
			return st
		}
	}
	return nil
}

// flushDataBlock writes the current data block and stages its index entry
// (separator = lastKey, handle = where it landed) to be added once we know
// the next block's first key won't collide with it.
func (w *Writer) flushDataBlock(lastKeyInBlock ikey.Key) *status.Status {
	if w.dataBlock.Empty() {
		return nil
	}
	blob := w.dataBlock.Finish(w.opts.Compression)
	hdl := BlockHandle{Offset: w.offset, Size: uint64(len(blob))}
	if _, err := w.f.Write(blob); err != nil {
		return status.Wrap(err, "write sst data block")
	}
	w.offset += uint64(len(blob))

	w.pendingSep = append([]byte(nil), lastKeyInBlock...)
	w.pendingHdl = hdl
	w.havePending = true

	w.dataBlock = newBlockBuilder(w.opts.RestartInterval)
	return nil
}

// Finish flushes any remaining data, writes the filter block, the index
// block, and the 48-byte footer, then syncs and closes the file.
func (w *Writer) Finish() (smallest, largest []byte, fileSize uint64, st *status.Status) {
	if !w.dataBlock.Empty() {
		// Last block: its own last-added key is the separator.
		if st := w.flushLastBlock(); st != nil {
			return nil, nil, 0, st
		}
	}
	if w.havePending {
		if st := w.indexBlock.Add(w.pendingSep, w.pendingHdl.Encode()); st != nil {
			return nil, nil, 0, st
		}
		w.havePending = false
	}

	var metaHandle BlockHandle
	if w.filter != nil {
		filterBytes := w.filter.Finish()
		metaHandle = BlockHandle{Offset: w.offset, Size: uint64(len(filterBytes))}
		if _, err := w.f.Write(filterBytes); err != nil {
			return nil, nil, 0, status.Wrap(err, "write sst filter block")
		}
		w.offset += uint64(len(filterBytes))
	}

	indexBlob := w.indexBlock.Finish(CompressionNone)
	indexHandle := BlockHandle{Offset: w.offset, Size: uint64(len(indexBlob))}
	if _, err := w.f.Write(indexBlob); err != nil {
		return nil, nil, 0, status.Wrap(err, "write sst index block")
	}
	w.offset += uint64(len(indexBlob))

	footer := Footer{MetaIndexHandle: metaHandle, IndexHandle: indexHandle}
	encoded := footer.Encode()
	if _, err := w.f.Write(encoded[:]); err != nil {
		return nil, nil, 0, status.Wrap(err, "write sst footer")
	}
	w.offset += uint64(len(encoded))

	if err := w.f.Sync(); err != nil {
		return nil, nil, 0, status.Wrap(err, "sync sst")
	}
	if err := w.f.Close(); err != nil {
		return nil, nil, 0, status.Wrap(err, "close sst")
	}
	return w.smallest, w.largest, w.offset, nil
}

func (w *Writer) flushLastBlock() *status.Status {
	if w.havePending {
		if st := w.indexBlock.Add(w.pendingSep, w.pendingHdl.Encode()); st != nil {
			return st
		}
		w.havePending = false
	}
	blob := w.dataBlock.Finish(w.opts.Compression)
	hdl := BlockHandle{Offset: w.offset, Size: uint64(len(blob))}
	if _, err := w.f.Write(blob); err != nil {
		return status.Wrap(err, "write sst data block")
	}
	w.offset += uint64(len(blob))
	w.pendingSep = append([]byte(nil), w.dataBlock.lastKey...)
	w.pendingHdl = hdl
	w.havePending = true
	return nil
}

// NumEntries reports how many entries have been added so far.
func (w *Writer) NumEntries() int { return w.numEntries }

// BlockCache is the narrow interface sstable needs from a block cache,
// kept local (rather than importing cache.LRU directly) so this package
// never depends on the cache package; callers pass an adapter — see
// cache.NewSSTableBlockCache.
type BlockCache interface {
	Get(key CacheKey) (interface{}, bool)
	Insert(key CacheKey, value interface{})
}

// CacheKey mirrors cache.Key's shape (fileNumber, blockOffset).
type CacheKey struct {
	FileNumber  uint64
	BlockOffset uint64
}

// Reader opens an existing SST for point lookups and iteration, loading
// its index and (if present) bloom filter eagerly; data blocks are loaded
// lazily and, if a block cache was attached via SetBlockCache, cached
// across lookups keyed by (file number, block offset) per spec.md §4.4.
type Reader struct {
	f      *os.File
	path   string
	Number uint64

	indexEntries []blockEntry
	filter       *bloom.Filter
	blockCache   BlockCache

	mu sync.Mutex
}

// SetBlockCache attaches a block cache; adapter must translate
// (fileNumber, blockOffset) lookups onto whatever concrete cache the
// caller uses (see cache.NewSSTableBlockCache).
func (r *Reader) SetBlockCache(bc BlockCache) { r.blockCache = bc }

// Open validates the footer (magic-checked per spec.md §6) and loads the
// index block and optional filter block.
func Open(path string, number uint64) (*Reader, *status.Status) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Wrap(err, "open sst %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, status.Wrap(err, "stat sst %s", path)
	}
	if info.Size() < FooterSize {
		f.Close()
		return nil, status.Corruptionf("sst %s too small for footer", path)
	}

	footerBuf := make([]byte, FooterSize)
	if _, err := f.ReadAt(footerBuf, info.Size()-FooterSize); err != nil {
		f.Close()
		return nil, status.Wrap(err, "read sst footer")
	}
	footer, ok := DecodeFooter(footerBuf)
	if !ok {
		f.Close()
		return nil, status.Corruptionf("sst %s: bad footer magic", path)
	}

	idxRaw := make([]byte, footer.IndexHandle.Size)
	if _, err := f.ReadAt(idxRaw, int64(footer.IndexHandle.Offset)); err != nil {
		f.Close()
		return nil, status.Wrap(err, "read sst index block")
	}
	idxIt, st := newBlockIterator(idxRaw)
	if st != nil {
		f.Close()
		return nil, st
	}

	r := &Reader{f: f, path: path, Number: number, indexEntries: idxIt.entries}

	if footer.MetaIndexHandle.Size > 0 {
		filterRaw := make([]byte, footer.MetaIndexHandle.Size)
		if _, err := f.ReadAt(filterRaw, int64(footer.MetaIndexHandle.Offset)); err != nil {
			f.Close()
			return nil, status.Wrap(err, "read sst filter block")
		}
		r.filter = bloom.Decode(filterRaw)
	}
	return r, nil
}

// MayContain consults the bloom filter (if any); a reader without a filter
// always answers true (must read the data to know).
func (r *Reader) MayContain(userKey []byte) bool {
	if r.filter == nil {
		return true
	}
	return r.filter.MayContain(userKey)
}

// readBlock loads and decodes the data block at hdl, consulting the
// attached block cache first and populating it on miss. Returns a fresh
// iterator cursor over the (possibly shared, cached) decoded block.
func (r *Reader) readBlock(hdl BlockHandle) (*blockIterator, *status.Status) {
	key := CacheKey{FileNumber: r.Number, BlockOffset: hdl.Offset}
	if r.blockCache != nil {
		if v, ok := r.blockCache.Get(key); ok {
			return v.(*decodedBlock).iterator(), nil
		}
	}

	raw := make([]byte, hdl.Size)
	r.mu.Lock()
	_, err := r.f.ReadAt(raw, int64(hdl.Offset))
	r.mu.Unlock()
	if err != nil {
		return nil, status.Wrap(err, "read sst data block")
	}
	d, st := newDecodedBlock(raw)
	if st != nil {
		return nil, st
	}
	if r.blockCache != nil {
		r.blockCache.Insert(key, d)
	}
	return d.iterator(), nil
}

// Get looks up userKey, returning the entry whose internal key has that
// user key and the highest sequence number stored in this file (since
// every SST holds at most one entry per user key after dedup — see
// DESIGN.md). found=false means no entry exists in this file at all.
func (r *Reader) Get(userKey []byte) (value []byte, isTombstone bool, found bool, st *status.Status) {
	if !r.MayContain(userKey) {
		return nil, false, false, nil
	}
	hdl, ok := r.blockContaining(userKey)
	if !ok {
		return nil, false, false, nil
	}
	blk, st := r.readBlock(hdl)
	if st != nil {
		return nil, false, false, st
	}
	seek := ikey.SeekKey(userKey)
	blk.Seek(seek)
	if !blk.Valid() {
		return nil, false, false, nil
	}
	gotUser, _, vt, dst := ikey.Decode(blk.Key())
	if dst != nil || !bytes.Equal(gotUser, userKey) {
		return nil, false, false, nil
	}
	if vt == ikey.TypeDeletion {
		return nil, true, true, nil
	}
	return blk.Value(), false, true, nil
}

// blockContaining finds the data block whose index separator is the first
// one >= the seek key for userKey.
func (r *Reader) blockContaining(userKey []byte) (BlockHandle, bool) {
	seek := ikey.SeekKey(userKey)
	lo, hi := 0, len(r.indexEntries)
	for lo < hi {
		mid := (lo + hi) / 2
		if ikey.Compare(ikey.Key(r.indexEntries[mid].key), seek) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(r.indexEntries) {
		return BlockHandle{}, false
	}
	hdl, ok := DecodeBlockHandle(r.indexEntries[lo].value)
	return hdl, ok
}

// Iterator walks every entry in the file in ascending internal-key order.
type Iterator struct {
	r        *Reader
	blockIdx int
	cur      *blockIterator
	st       *status.Status
}

// NewIterator returns an Iterator positioned before the first entry.
func (r *Reader) NewIterator() *Iterator {
	return &Iterator{r: r, blockIdx: -1}
}

func (it *Iterator) SeekToFirst() {
	it.blockIdx = 0
	it.loadCurrentBlock()
	if it.cur != nil {
		it.cur.SeekToFirst()
	}
}

func (it *Iterator) loadCurrentBlock() {
	if it.blockIdx < 0 || it.blockIdx >= len(it.r.indexEntries) {
		it.cur = nil
		return
	}
	hdl, ok := DecodeBlockHandle(it.r.indexEntries[it.blockIdx].value)
	if !ok {
		it.cur = nil
		it.st = status.Corruptionf("bad index entry in sst %s", it.r.path)
		return
	}
	blk, st := it.r.readBlock(hdl)
	if st != nil {
		it.cur = nil
		it.st = st
		return
	}
	it.cur = blk
}

func (it *Iterator) Valid() bool {
	return it.cur != nil && it.cur.Valid()
}

func (it *Iterator) Next() {
	if it.cur == nil {
		return
	}
	it.cur.Next()
	for !it.cur.Valid() {
		it.blockIdx++
		it.loadCurrentBlock()
		if it.cur == nil {
			return
		}
		it.cur.SeekToFirst()
	}
}

func (it *Iterator) Key() ikey.Key { return it.cur.Key() }
func (it *Iterator) Value() []byte { return it.cur.Value() }
func (it *Iterator) Err() *status.Status { return it.st }

// Seek positions the iterator at the first entry with internal key >= target.
func (it *Iterator) Seek(target ikey.Key) {
	lo, hi := 0, len(it.r.indexEntries)
	for lo < hi {
		mid := (lo + hi) / 2
		if ikey.Compare(ikey.Key(it.r.indexEntries[mid].key), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.blockIdx = lo
	it.loadCurrentBlock()
	if it.cur != nil {
		it.cur.Seek(target)
		for !it.cur.Valid() {
			it.blockIdx++
			it.loadCurrentBlock()
			if it.cur == nil {
				return
			}
			it.cur.SeekToFirst()
		}
	}
}

// Close closes the underlying file handle.
func (r *Reader) Close() *status.Status {
	if err := r.f.Close(); err != nil {
		return status.Wrap(err, "close sst %s", r.path)
	}
	return nil
}
