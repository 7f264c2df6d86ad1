// Package wal implements the engine's write-ahead log: a block-framed,
// checksummed append-only record log used both for the live wal.log and,
// reusing the same physical format, for the manifest (see the version
// package).
package wal

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ChinmayNoob/lsm-go/status"
)

// BlockSize is the physical block size records are framed into; any
// trailing space in a block smaller than HeaderSize is zero-padded.
const BlockSize = 32 * 1024

// HeaderSize is the size, in bytes, of a physical record header:
// checksum(4) + length(2) + type(1).
const HeaderSize = 7

// RecordType tags a physical record as a whole logical record or one
// fragment of a logical record spanning multiple blocks.
type RecordType uint8

const (
	recordFull RecordType = iota + 1
	recordFirst
	recordMiddle
	recordLast
)

// OpType distinguishes the two mutations a WAL record for the engine proper
// can carry (as opposed to the manifest, whose payloads are VersionEdits).
type OpType uint8

const (
	OpPut    OpType = 1
	OpDelete OpType = 2
)

func checksum(t RecordType, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte{byte(t)})
	h.Write(data)
	return h.Sum32()
}

// Writer appends length-framed, checksummed records to an append-only file,
// fragmenting any record too large to fit in the remainder of the current
// 32 KiB block.
type Writer struct {
	f           *os.File
	blockOffset int
	log         zerolog.Logger
}

// Open opens (creating if necessary) path for appending WAL records.
func Open(path string, logger zerolog.Logger) (*Writer, *status.Status) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, status.Wrap(err, "open wal %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, status.Wrap(err, "stat wal %s", path)
	}
	return &Writer{
		f:           f,
		blockOffset: int(info.Size() % BlockSize),
		log:         logger.With().Str("component", "wal").Logger(),
	}, nil
}

// AddRecord appends one logical record, splitting it into FULL/FIRST/
// MIDDLE/LAST physical records as needed to respect block boundaries.
func (w *Writer) AddRecord(data []byte) *status.Status {
	left := len(data)
	ptr := 0
	begin := true

	for begin || left > 0 {
		leftover := BlockSize - w.blockOffset
		if leftover < HeaderSize {
			if leftover > 0 {
				pad := make([]byte, leftover)
				if _, err := w.f.Write(pad); err != nil {
					return status.Wrap(err, "write wal padding")
				}
			}
			w.blockOffset = 0
		}

		avail := BlockSize - w.blockOffset - HeaderSize
		fragLen := left
		if avail < fragLen {
			fragLen = avail
		}

		var rt RecordType
		switch {
		case begin && fragLen == left:
			rt = recordFull
		case begin:
			rt = recordFirst
		case fragLen == left:
			rt = recordLast
		default:
			rt = recordMiddle
		}

		if st := w.emitPhysical(rt, data[ptr:ptr+fragLen]); st != nil {
			return st
		}

		ptr += fragLen
		left -= fragLen
		begin = false
	}
	return nil
}

func (w *Writer) emitPhysical(rt RecordType, data []byte) *status.Status {
	if len(data) > 0xFFFF {
		return status.InvalidArgumentf("wal record fragment too large: %d bytes", len(data))
	}
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], checksum(rt, data))
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(data)))
	header[6] = byte(rt)

	if _, err := w.f.Write(header[:]); err != nil {
		return status.Wrap(err, "write wal header")
	}
	if len(data) > 0 {
		if _, err := w.f.Write(data); err != nil {
			return status.Wrap(err, "write wal data")
		}
	}
	w.blockOffset += HeaderSize + len(data)
	return nil
}

// Sync flushes the WAL file to stable storage.
func (w *Writer) Sync() *status.Status {
	if err := w.f.Sync(); err != nil {
		return status.Wrap(err, "sync wal")
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() *status.Status {
	if err := w.f.Close(); err != nil {
		return status.Wrap(err, "close wal")
	}
	return nil
}

// Reader replays physical records from a WAL file, reassembling fragmented
// logical records and verifying each physical record's checksum.
type Reader struct {
	f      *os.File
	offset int64
}

// OpenReader opens path for sequential record replay.
func OpenReader(path string) (*Reader, *status.Status) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Wrap(err, "open wal %s for read", path)
	}
	return &Reader{f: f}, nil
}

// ReadRecord returns the next logical record, or (nil, nil) at a clean EOF.
// A truncated trailing record — the crash-recovery case spec.md §4.1 and
// §5 call for — is reported as Corruption rather than silently dropped,
// and the caller (engine replay) is expected to treat that as "recovered
// the committed prefix" and stop.
func (r *Reader) ReadRecord() ([]byte, *status.Status) {
	var buf []byte
	inFragment := false

	for {
		rt, frag, st := r.readPhysical()
		if st != nil {
			return nil, st
		}
		if rt == 0 {
			if inFragment {
				return nil, status.Corruptionf("incomplete record at end of wal")
			}
			return nil, nil
		}

		switch rt {
		case recordFull:
			if inFragment {
				return nil, status.Corruptionf("unexpected FULL record mid-fragment")
			}
			return frag, nil
		case recordFirst:
			if inFragment {
				return nil, status.Corruptionf("unexpected FIRST record mid-fragment")
			}
			buf = append([]byte(nil), frag...)
			inFragment = true
		case recordMiddle:
			if !inFragment {
				return nil, status.Corruptionf("unexpected MIDDLE record without FIRST")
			}
			buf = append(buf, frag...)
		case recordLast:
			if !inFragment {
				return nil, status.Corruptionf("unexpected LAST record without FIRST")
			}
			buf = append(buf, frag...)
			return buf, nil
		}
	}
}

// readPhysical returns rt == 0 at a clean EOF.
func (r *Reader) readPhysical() (RecordType, []byte, *status.Status) {
	for {
		blockOffset := int(r.offset % BlockSize)
		if BlockSize-blockOffset < HeaderSize {
			skip := int64(BlockSize - blockOffset)
			r.offset += skip
			if _, err := r.f.Seek(r.offset, io.SeekStart); err != nil {
				return 0, nil, status.Wrap(err, "seek wal")
			}
			continue
		}

		var header [HeaderSize]byte
		if _, err := io.ReadFull(r.f, header[:]); err != nil {
			if err == io.EOF {
				return 0, nil, nil
			}
			if err == io.ErrUnexpectedEOF {
				return 0, nil, status.Corruptionf("truncated wal record header at offset %d", r.offset)
			}
			return 0, nil, status.Wrap(err, "read wal header")
		}

		crc := binary.LittleEndian.Uint32(header[0:4])
		length := binary.LittleEndian.Uint16(header[4:6])
		rt := RecordType(header[6])
		if rt < recordFull || rt > recordLast {
			return 0, nil, status.Corruptionf("invalid wal record type %d", header[6])
		}

		data := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r.f, data); err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return 0, nil, status.Corruptionf("truncated wal record data at offset %d", r.offset)
				}
				return 0, nil, status.Wrap(err, "read wal record data")
			}
		}
		r.offset += int64(HeaderSize) + int64(length)

		if checksum(rt, data) != crc {
			return 0, nil, status.Corruptionf("wal checksum mismatch at offset %d", r.offset)
		}
		return rt, data, nil
	}
}

// Close closes the underlying file.
func (r *Reader) Close() *status.Status {
	if err := r.f.Close(); err != nil {
		return status.Wrap(err, "close wal reader")
	}
	return nil
}

// EncodeMutation encodes one Put/Delete op into the payload format stored
// in a WAL record, per spec.md §4.1: op_type(1) | cf_id(u32 LE) |
// sequence(u64 LE) | key_len(u16 LE) | key | [value_len(u16 LE) | value].
func EncodeMutation(op OpType, cfID uint32, seq uint64, key, value []byte) ([]byte, *status.Status) {
	if len(key) > 0xFFFF {
		return nil, status.InvalidArgumentf("key too large for wal record: %d bytes", len(key))
	}
	size := 1 + 4 + 8 + 2 + len(key)
	if op == OpPut {
		if len(value) > 0xFFFF {
			return nil, status.InvalidArgumentf("value too large for wal record: %d bytes", len(value))
		}
		size += 2 + len(value)
	}
	buf := make([]byte, size)
	off := 0
	buf[off] = byte(op)
	off++
	binary.LittleEndian.PutUint32(buf[off:], cfID)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], seq)
	off += 8
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(key)))
	off += 2
	off += copy(buf[off:], key)
	if op == OpPut {
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(value)))
		off += 2
		copy(buf[off:], value)
	}
	return buf, nil
}

// Mutation is one decoded WAL payload.
type Mutation struct {
	Op    OpType
	CFID  uint32
	Seq   uint64
	Key   []byte
	Value []byte
}

// DecodeMutation is the inverse of EncodeMutation. A malformed payload
// (bad lengths, unknown op byte) is Corruption per spec.md §4.1's "fatal on
// replay" list.
func DecodeMutation(payload []byte) (*Mutation, *status.Status) {
	if len(payload) < 1+4+8+2 {
		return nil, status.Corruptionf("wal mutation record too short")
	}
	off := 0
	op := OpType(payload[off])
	off++
	if op != OpPut && op != OpDelete {
		return nil, status.Corruptionf("unknown wal op byte %d", payload[0])
	}
	cfID := binary.LittleEndian.Uint32(payload[off:])
	off += 4
	seq := binary.LittleEndian.Uint64(payload[off:])
	off += 8
	keyLen := int(binary.LittleEndian.Uint16(payload[off:]))
	off += 2
	if len(payload) < off+keyLen {
		return nil, status.Corruptionf("wal mutation key length out of range")
	}
	key := payload[off : off+keyLen]
	off += keyLen

	m := &Mutation{Op: op, CFID: cfID, Seq: seq, Key: key}
	if op == OpPut {
		if len(payload) < off+2 {
			return nil, status.Corruptionf("wal mutation missing value length")
		}
		valLen := int(binary.LittleEndian.Uint16(payload[off:]))
		off += 2
		if len(payload) < off+valLen {
			return nil, status.Corruptionf("wal mutation value length out of range")
		}
		m.Value = payload[off : off+valLen]
	}
	return m, nil
}
