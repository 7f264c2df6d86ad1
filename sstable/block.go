package sstable

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/status"
)

// blockBuilder accumulates entries for one data (or index) block with key
// prefix compression, restart points every restartInterval entries, and a
// trailing checksum — spec.md §4.3.
//
// Entry wire format: shared_len | non_shared_len | value_len | key_suffix |
// value, all three lengths varint-encoded. Keys MUST be added in strictly
// increasing order (enforced by Add).
type blockBuilder struct {
	buf             []byte
	restarts        []uint32
	counter         int
	restartInterval int
	lastKey         []byte
	finished        bool
}

func newBlockBuilder(restartInterval int) *blockBuilder {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &blockBuilder{restartInterval: restartInterval, restarts: []uint32{0}}
}

// Add appends one key/value pair. key must sort strictly after the
// previous key added; violating that is InvalidArgument per spec.md §4.3.
func (b *blockBuilder) Add(key, value []byte) *status.Status {
	if b.finished {
		return status.InvalidArgumentf("block already finished")
	}
	if b.lastKey != nil && ikey.Compare(ikey.Key(key), ikey.Key(b.lastKey)) <= 0 {
		return status.InvalidArgumentf("block keys must be added in strictly increasing order")
	}

	shared := 0
	if b.counter < b.restartInterval {
		minLen := len(b.lastKey)
		if len(key) < minLen {
			minLen = len(key)
		}
		for shared < minLen && b.lastKey[shared] == key[shared] {
			shared++
		}
	} else {
		b.restarts = append(b.restarts, uint32(len(b.buf)))
		b.counter = 0
	}

	nonShared := len(key) - shared
	b.buf = PutUvarint(b.buf, uint64(shared))
	b.buf = PutUvarint(b.buf, uint64(nonShared))
	b.buf = PutUvarint(b.buf, uint64(len(value)))
	b.buf = append(b.buf, key[shared:]...)
	b.buf = append(b.buf, value...)

	b.lastKey = append(b.lastKey[:0], key...)
	b.counter++
	return nil
}

func (b *blockBuilder) Empty() bool { return len(b.buf) == 0 }

// Finish appends the restart array, num_restarts, compression type, and
// CRC32, compressing the body per spec.md §4.3 (only if it actually
// shrinks).
func (b *blockBuilder) Finish(ct CompressionType) []byte {
	if b.finished {
		return b.buf
	}
	b.finished = true

	body := make([]byte, len(b.buf))
	copy(body, b.buf)
	for _, r := range b.restarts {
		var rb [4]byte
		binary.LittleEndian.PutUint32(rb[:], r)
		body = append(body, rb[:]...)
	}
	var nb [4]byte
	binary.LittleEndian.PutUint32(nb[:], uint32(len(b.restarts)))
	body = append(body, nb[:]...)

	compressed, usedCT := compress(ct, body)

	out := make([]byte, 0, len(compressed)+5)
	out = append(out, compressed...)
	out = append(out, byte(usedCT))

	crc := crc32.ChecksumIEEE(out)
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc)
	out = append(out, crcBuf[:]...)
	return out
}

// blockEntry is one decoded (key, value) pair from a data block.
type blockEntry struct {
	key   []byte
	value []byte
}

// decodeBlock splits raw on-disk block bytes (as written by Finish) into
// its decompressed body plus the parsed restart offsets.
func decodeBlock(raw []byte) ([]byte, []uint32, *status.Status) {
	if len(raw) < 5 {
		return nil, nil, status.Corruptionf("block too short: %d bytes", len(raw))
	}
	crcGot := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	withoutCRC := raw[:len(raw)-4]
	if crc32.ChecksumIEEE(withoutCRC) != crcGot {
		return nil, nil, status.Corruptionf("block checksum mismatch")
	}
	ct := CompressionType(withoutCRC[len(withoutCRC)-1])
	compressedBody := withoutCRC[:len(withoutCRC)-1]

	body, st := decompress(ct, compressedBody)
	if st != nil {
		return nil, nil, st
	}
	if len(body) < 4 {
		return nil, nil, status.Corruptionf("block body too short for restart count")
	}
	numRestarts := binary.LittleEndian.Uint32(body[len(body)-4:])
	restartsStart := len(body) - 4 - int(numRestarts)*4
	if restartsStart < 0 {
		return nil, nil, status.Corruptionf("block restart array out of range")
	}
	restarts := make([]uint32, numRestarts)
	for i := range restarts {
		restarts[i] = binary.LittleEndian.Uint32(body[restartsStart+i*4:])
	}
	return body[:restartsStart], restarts, nil
}

// decodedBlock holds one data block's fully-decoded, immutable entries.
// It is safe to share across goroutines and across cached accesses —
// only blockIterator (a thin per-access cursor over it) carries mutable
// position state.
type decodedBlock struct {
	entries []blockEntry
}

func newDecodedBlock(raw []byte) (*decodedBlock, *status.Status) {
	body, _, st := decodeBlock(raw)
	if st != nil {
		return nil, st
	}
	d := &decodedBlock{}
	if st := d.decodeAll(body); st != nil {
		return nil, st
	}
	return d, nil
}

func (d *decodedBlock) decodeAll(data []byte) *status.Status {
	var lastKey []byte
	off := 0
	for off < len(data) {
		shared, n1 := binary.Uvarint(data[off:])
		if n1 <= 0 {
			return status.Corruptionf("bad shared-length varint in block")
		}
		off += n1
		nonShared, n2 := binary.Uvarint(data[off:])
		if n2 <= 0 {
			return status.Corruptionf("bad non-shared-length varint in block")
		}
		off += n2
		valLen, n3 := binary.Uvarint(data[off:])
		if n3 <= 0 {
			return status.Corruptionf("bad value-length varint in block")
		}
		off += n3

		if off+int(nonShared)+int(valLen) > len(data) {
			return status.Corruptionf("block entry runs past block body")
		}
		suffix := data[off : off+int(nonShared)]
		off += int(nonShared)
		value := data[off : off+int(valLen)]
		off += int(valLen)

		key := make([]byte, int(shared)+int(nonShared))
		copy(key, lastKey[:shared])
		copy(key[shared:], suffix)

		d.entries = append(d.entries, blockEntry{key: key, value: value})
		lastKey = key
	}
	return nil
}

// iterator returns a fresh cursor over this block's entries. Safe to call
// concurrently from multiple goroutines sharing the same decodedBlock.
func (d *decodedBlock) iterator() *blockIterator {
	return &blockIterator{entries: d.entries, idx: -1}
}

// blockIterator walks the entries of one decoded data block in order,
// reconstructing full keys from their shared-prefix-compressed form.
type blockIterator struct {
	entries []blockEntry
	idx     int
}

func newBlockIterator(raw []byte) (*blockIterator, *status.Status) {
	d, st := newDecodedBlock(raw)
	if st != nil {
		return nil, st
	}
	return d.iterator(), nil
}

func (it *blockIterator) SeekToFirst() { it.idx = 0 }
func (it *blockIterator) Valid() bool  { return it.idx >= 0 && it.idx < len(it.entries) }
func (it *blockIterator) Next()        { it.idx++ }
func (it *blockIterator) Key() []byte  { return it.entries[it.idx].key }
func (it *blockIterator) Value() []byte { return it.entries[it.idx].value }

// Seek positions the iterator at the first entry with key >= target.
func (it *blockIterator) Seek(target []byte) {
	lo, hi := 0, len(it.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if ikey.Compare(ikey.Key(it.entries[mid].key), ikey.Key(target)) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.idx = lo
}
