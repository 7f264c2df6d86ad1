package sstable

import (
	"github.com/golang/snappy"

	"github.com/ChinmayNoob/lsm-go/status"
)

// compress encodes src with the given codec, returning the bytes to store
// on disk and the CompressionType actually used — per spec.md §4.3 a block
// is compressed only if the result is strictly smaller than the input;
// otherwise it falls back to None so the reader never has to guess.
func compress(ct CompressionType, src []byte) ([]byte, CompressionType) {
	switch ct {
	case CompressionSnappy:
		out := snappy.Encode(nil, src)
		if len(out) < len(src) {
			return out, CompressionSnappy
		}
		return src, CompressionNone
	case CompressionLZ4:
		// No LZ4 library appears anywhere in the retrieved example pack
		// (see DESIGN.md); LZ4 is therefore accepted as a configuration
		// value but stored uncompressed, exactly like None, rather than
		// fabricating a codec. Snappy remains the real wired codec.
		return src, CompressionNone
	default:
		return src, CompressionNone
	}
}

func decompress(ct CompressionType, src []byte) ([]byte, *status.Status) {
	switch ct {
	case CompressionNone:
		return src, nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, src)
		if err != nil {
			return nil, status.Corruptionf("snappy decompress: %v", err)
		}
		return out, nil
	case CompressionLZ4:
		return src, nil
	default:
		return nil, status.Corruptionf("unknown compression type %d", ct)
	}
}
