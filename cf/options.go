// Package cf implements column-family set management: the handle/
// descriptor/options types a caller uses to address a column family, the
// per-CF runtime state (active + immutable memtable, its own VersionSet),
// and the Set that owns the map of live column families for one DB.
package cf

import "github.com/ChinmayNoob/lsm-go/sstable"

// DefaultColumnFamilyName is the name of the column family every DB
// always has, even if the caller never creates one explicitly.
const DefaultColumnFamilyName = "default"

// Options configures one column family's write-buffer size, on-disk
// compression, and bloom/cache tuning, overriding the DB-wide defaults.
type Options struct {
	WriteBufferSize  uint64
	Compression      sstable.CompressionType
	FilterBitsPerKey int // 0 disables the bloom filter block
	BlockCacheSize   int // number of blocks, not bytes
	TableCacheSize   int // number of open SST file handles
}

// DefaultOptions mirrors the reference implementation's per-CF defaults:
// 4MB write buffer, Snappy, a 10-bit-per-key filter (~1% false positive
// rate), and a 1000-block cache.
func DefaultOptions() Options {
	return Options{
		WriteBufferSize:  4 * 1024 * 1024,
		Compression:      sstable.CompressionSnappy,
		FilterBitsPerKey: 10,
		BlockCacheSize:   1000,
		TableCacheSize:   64,
	}
}

// WriterOptions translates these CF options into the sstable package's
// writer configuration.
func (o Options) WriterOptions() sstable.WriterOptions {
	return sstable.WriterOptions{
		BlockSize:       sstable.DefaultBlockSize,
		RestartInterval: sstable.DefaultRestartInterval,
		Compression:     o.Compression,
		BitsPerKey:      o.FilterBitsPerKey,
	}
}

// Descriptor names a column family and the options it should be created
// or opened with, used when opening a DB with multiple column families.
type Descriptor struct {
	Name    string
	Options Options
}

// NewDescriptor builds a Descriptor.
func NewDescriptor(name string, opts Options) Descriptor {
	return Descriptor{Name: name, Options: opts}
}
