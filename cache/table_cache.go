package cache

import (
	"fmt"
	"sync"
)

// TableCache holds arbitrary closeable handles keyed by file number, so a
// hot point lookup doesn't pay to re-open and re-parse a file's footer and
// index on every call. It is deliberately generic over what a "handle" is
// (an *sstable.Reader in practice) so this package stays free of a
// dependency on sstable; the caller supplies Open/Close.
//
// Evicted handles are closed once no table-cache entry (and no in-flight
// caller, tracked by refcount) still points at them — spec.md §4.4's
// "shared handles ... inner mutex" contract.
type TableCache struct {
	open  func(fileNumber uint64) (interface{}, error)
	close func(interface{}) error

	lru   *LRU
	mu    sync.Mutex
	inUse map[uint64]*refCountedHandle
}

type refCountedHandle struct {
	handle interface{}
	refs   int
	closed bool
}

// NewTableCache creates a table cache holding at most capacity open
// handles, opened on demand via open and released via close.
func NewTableCache(capacity int, open func(uint64) (interface{}, error), close func(interface{}) error) *TableCache {
	tc := &TableCache{open: open, close: close, lru: New(capacity), inUse: make(map[uint64]*refCountedHandle)}
	tc.lru.OnEvict(func(k Key, v interface{}) {
		tc.release(k.FileNumber, v)
	})
	return tc
}

// Get returns the handle for fileNumber, opening it on a cache miss.
// Callers must call Release when done with the returned handle.
func (tc *TableCache) Get(fileNumber uint64) (interface{}, error) {
	if v, ok := tc.lru.Get(Key{FileNumber: fileNumber}); ok {
		return tc.acquire(fileNumber, v), nil
	}

	h, err := tc.open(fileNumber)
	if err != nil {
		return nil, err
	}
	tc.lru.Insert(Key{FileNumber: fileNumber}, h)
	return tc.acquire(fileNumber, h), nil
}

func (tc *TableCache) acquire(fileNumber uint64, h interface{}) interface{} {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rc, ok := tc.inUse[fileNumber]
	if !ok {
		rc = &refCountedHandle{handle: h}
		tc.inUse[fileNumber] = rc
	}
	rc.refs++
	return rc.handle
}

// Release drops a reference acquired by Get. Once a handle has been
// evicted from the LRU and its refcount reaches zero, it is closed.
func (tc *TableCache) Release(fileNumber uint64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rc, ok := tc.inUse[fileNumber]
	if !ok {
		return
	}
	rc.refs--
	if rc.refs <= 0 {
		delete(tc.inUse, fileNumber)
		if rc.closed {
			tc.close(rc.handle)
		}
	}
}

// release marks fileNumber's handle as evicted; it is closed immediately
// if no caller currently holds a reference, or deferred to the last
// Release otherwise.
func (tc *TableCache) release(fileNumber uint64, h interface{}) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rc, ok := tc.inUse[fileNumber]
	if !ok {
		tc.close(h)
		return
	}
	if rc.refs <= 0 {
		delete(tc.inUse, fileNumber)
		tc.close(rc.handle)
		return
	}
	rc.closed = true
}

// Evict removes fileNumber from the cache, e.g. after it is deleted from
// every live Version.
func (tc *TableCache) Evict(fileNumber uint64) {
	tc.lru.Remove(Key{FileNumber: fileNumber})
}

// Stats reports cumulative hit/miss counters for monitoring.
func (tc *TableCache) Stats() Stats { return tc.lru.Stats() }

func (tc *TableCache) String() string {
	s := tc.lru.Stats()
	return fmt.Sprintf("table_cache{entries=%d/%d hits=%d misses=%d}", s.Entries, s.Capacity, s.Hits, s.Misses)
}
