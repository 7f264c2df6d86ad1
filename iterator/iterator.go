// Package iterator implements the merging iterator that gives the DB
// facade a single ordered view across a column family's active memtable,
// its immutable memtable, and every level's SSTs (spec.md §4.4).
package iterator

import (
	"bytes"
	"container/heap"

	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/status"
)

// Source is the narrow interface every iterable data source (a
// memtable.Iterator or an sstable.Iterator) already satisfies, letting
// MergingIterator stay decoupled from both concrete packages.
type Source interface {
	SeekToFirst()
	Seek(target ikey.Key)
	Valid() bool
	Next()
	Key() ikey.Key
	Value() []byte
	Err() *status.Status
}

type heapEntry struct {
	key ikey.Key
	idx int
}

// minHeap orders by key ascending; among equal keys, the source with the
// lower index (higher priority — newer data) sorts first, matching the
// reference implementation's HeapEntry ordering.
type minHeap []heapEntry

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	c := ikey.Compare(h[i].key, h[j].key)
	if c != 0 {
		return c < 0
	}
	return h[i].idx < h[j].idx
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(heapEntry)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// MergingIterator combines multiple sorted Sources, ordered newest-first
// (sources[0] has the highest priority — typically the active memtable),
// into one ascending view that shadows older versions of a user key and
// skips deletion tombstones entirely.
type MergingIterator struct {
	sources []Source
	h       minHeap

	curKey   ikey.Key
	curValue []byte
	valid    bool
	err      *status.Status
}

// New builds a MergingIterator over sources (priority order: index 0
// wins ties). The iterator starts invalid; call SeekToFirst or Seek.
func New(sources []Source) *MergingIterator {
	return &MergingIterator{sources: sources}
}

func (m *MergingIterator) SeekToFirst() {
	for _, s := range m.sources {
		s.SeekToFirst()
		m.noteErr(s)
	}
	m.rebuildHeap()
	m.updateCurrent()
}

func (m *MergingIterator) Seek(target ikey.Key) {
	for _, s := range m.sources {
		s.Seek(target)
		m.noteErr(s)
	}
	m.rebuildHeap()
	m.updateCurrent()
}

func (m *MergingIterator) rebuildHeap() {
	m.h = m.h[:0]
	for idx, s := range m.sources {
		if s.Valid() {
			m.h = append(m.h, heapEntry{key: s.Key(), idx: idx})
		}
	}
	heap.Init(&m.h)
}

// advancePast moves sources[idx] forward until its key's user key differs
// from userKey or it runs out, pushing it back onto the heap if still
// valid. This collapses every older version of userKey held by one
// source into a single skip, matching spec.md's "only the freshest
// version per user key is visible" rule.
func (m *MergingIterator) advancePast(idx int, userKey []byte) {
	s := m.sources[idx]
	for {
		s.Next()
		m.noteErr(s)
		if !s.Valid() {
			return
		}
		if !bytes.Equal(ikey.UserKey(s.Key()), userKey) {
			heap.Push(&m.h, heapEntry{key: s.Key(), idx: idx})
			return
		}
	}
}

// updateCurrent sets curKey/curValue from the heap's minimum entry,
// skipping over deletion tombstones (and every older/duplicate version of
// the same user key across all sources) until it finds a live value or
// exhausts the heap.
func (m *MergingIterator) updateCurrent() {
	for m.h.Len() > 0 {
		top := m.h[0]
		userKey, _, vt, st := ikey.Decode(top.key)
		if st != nil {
			m.err = st
			m.valid = false
			return
		}

		if vt == ikey.TypeDeletion {
			m.skipUserKey(userKey)
			continue
		}

		m.curKey = top.key
		m.curValue = m.sources[top.idx].Value()
		m.valid = true
		return
	}
	m.valid = false
}

// skipUserKey removes every heap entry sharing userKey (the tombstone's
// entry plus any shadowed duplicates) and advances each of those sources
// past that user key.
func (m *MergingIterator) skipUserKey(userKey []byte) {
	var idxs []int
	for _, e := range m.h {
		if bytes.Equal(ikey.UserKey(e.key), userKey) {
			idxs = append(idxs, e.idx)
		}
	}

	rest := m.h[:0]
	for _, e := range m.h {
		if !bytes.Equal(ikey.UserKey(e.key), userKey) {
			rest = append(rest, e)
		}
	}
	m.h = rest
	heap.Init(&m.h)

	for _, idx := range idxs {
		m.advancePast(idx, userKey)
	}
}

func (m *MergingIterator) Next() {
	if !m.valid {
		return
	}
	top := heap.Pop(&m.h).(heapEntry)
	userKey := ikey.UserKey(top.key)
	m.advancePast(top.idx, userKey)
	m.skipUserKey(userKey)
	m.updateCurrent()
}

func (m *MergingIterator) Valid() bool       { return m.valid }
func (m *MergingIterator) Key() ikey.Key     { return m.curKey }
func (m *MergingIterator) Value() []byte     { return m.curValue }
func (m *MergingIterator) Err() *status.Status { return m.err }

func (m *MergingIterator) noteErr(s Source) {
	if m.err == nil {
		m.err = s.Err()
	}
}
