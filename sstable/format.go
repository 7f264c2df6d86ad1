package sstable

import "encoding/binary"

// CompressionType identifies the codec a data block was (or should be)
// compressed with. Supported per spec.md §4.3: None, Snappy, LZ4.
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
	CompressionLZ4    CompressionType = 2
)

// FooterSize is the fixed on-disk footer size (spec.md §4.3/§6).
const FooterSize = 48

// Magic is the little-endian magic number at offset 40 of the footer.
const Magic uint64 = 0x88e3f3fb2af1ecd7

// DefaultBlockSize is the target uncompressed size of one data block.
const DefaultBlockSize = 4 * 1024

// DefaultRestartInterval is the number of entries between block restart
// points for prefix compression.
const DefaultRestartInterval = 16

// BlockHandle locates a block within the file.
type BlockHandle struct {
	Offset uint64
	Size   uint64
}

// Encode writes the handle's 16-byte little-endian wire form.
func (h BlockHandle) Encode() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], h.Offset)
	binary.LittleEndian.PutUint64(buf[8:16], h.Size)
	return buf
}

// DecodeBlockHandle parses a 16-byte block handle.
func DecodeBlockHandle(data []byte) (BlockHandle, bool) {
	if len(data) < 16 {
		return BlockHandle{}, false
	}
	return BlockHandle{
		Offset: binary.LittleEndian.Uint64(data[0:8]),
		Size:   binary.LittleEndian.Uint64(data[8:16]),
	}, true
}

// Footer is the fixed 48-byte trailer of an SST file (spec.md §4.3):
// meta_index_handle(16) | index_handle(16) | reserved(24) | magic(8).
type Footer struct {
	MetaIndexHandle BlockHandle
	IndexHandle     BlockHandle
}

// Encode produces the 48-byte on-disk footer.
func (f Footer) Encode() [FooterSize]byte {
	var buf [FooterSize]byte
	copy(buf[0:16], f.MetaIndexHandle.Encode())
	copy(buf[16:32], f.IndexHandle.Encode())
	binary.LittleEndian.PutUint64(buf[40:48], Magic)
	return buf
}

// DecodeFooter validates the magic number and parses both handles.
// A magic mismatch is the version-gate the spec requires: reject rather
// than try to be permissive (spec.md §9).
func DecodeFooter(data []byte) (Footer, bool) {
	if len(data) != FooterSize {
		return Footer{}, false
	}
	if binary.LittleEndian.Uint64(data[40:48]) != Magic {
		return Footer{}, false
	}
	metaH, ok := DecodeBlockHandle(data[0:16])
	if !ok {
		return Footer{}, false
	}
	idxH, ok := DecodeBlockHandle(data[16:32])
	if !ok {
		return Footer{}, false
	}
	return Footer{MetaIndexHandle: metaH, IndexHandle: idxH}, true
}

// PutUvarint appends a varint-encoded v to buf and returns the result.
func PutUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}
