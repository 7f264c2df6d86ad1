package cache

import "github.com/ChinmayNoob/lsm-go/sstable"

// sstableBlockCache adapts an *LRU to sstable.BlockCache without sstable
// needing to import this package.
type sstableBlockCache struct{ lru *LRU }

// NewSSTableBlockCache wraps lru so it can be attached to an
// sstable.Reader via Reader.SetBlockCache.
func NewSSTableBlockCache(lru *LRU) sstable.BlockCache {
	return sstableBlockCache{lru: lru}
}

func (a sstableBlockCache) Get(key sstable.CacheKey) (interface{}, bool) {
	return a.lru.Get(Key{FileNumber: key.FileNumber, BlockOffset: key.BlockOffset})
}

func (a sstableBlockCache) Insert(key sstable.CacheKey, value interface{}) {
	a.lru.Insert(Key{FileNumber: key.FileNumber, BlockOffset: key.BlockOffset}, value)
}
