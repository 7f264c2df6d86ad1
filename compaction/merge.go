package compaction

import (
	"bytes"
	"container/heap"

	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
)

// sourceIter pairs one SST's iterator with its position in the reader
// list. The heap orders entries by full internal key (ikey.Compare), so
// among entries sharing a user key the highest sequence number comes
// first, within a file and across files alike; sourceIdx (lower first)
// only breaks ties between byte-identical internal keys.
type sourceIter struct {
	it        *sstable.Iterator
	sourceIdx int
}

type mergeHeap []*sourceIter

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	c := ikey.Compare(h[i].it.Key(), h[j].it.Key())
	if c != 0 {
		return c < 0
	}
	return h[i].sourceIdx < h[j].sourceIdx
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(*sourceIter)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// mergedEntry is one deduplicated, possibly-tombstone output record.
type mergedEntry struct {
	key   ikey.Key
	value []byte
}

// mergeIterators performs a k-way merge across readers, emitting one
// entry per distinct user key — the highest-sequence version, tombstone
// or not; the order of readers only matters for byte-identical internal
// keys, where readers[0] wins.
// Dropping a tombstone entirely (rather than emitting it) is left to the
// caller, which knows whether this merge targets the bottommost level.
func mergeIterators(readers []*sstable.Reader) ([]mergedEntry, *status.Status) {
	h := &mergeHeap{}
	heap.Init(h)
	for idx, r := range readers {
		it := r.NewIterator()
		it.SeekToFirst()
		if it.Err() != nil {
			return nil, it.Err()
		}
		if it.Valid() {
			heap.Push(h, &sourceIter{it: it, sourceIdx: idx})
		}
	}

	var out []mergedEntry
	var lastUserKey []byte
	haveLast := false

	for h.Len() > 0 {
		top := heap.Pop(h).(*sourceIter)
		userKey := ikey.UserKey(top.it.Key())

		if !haveLast || !bytes.Equal(lastUserKey, userKey) {
			out = append(out, mergedEntry{
				key:   append(ikey.Key(nil), top.it.Key()...),
				value: append([]byte(nil), top.it.Value()...),
			})
			haveLast = true
			lastUserKey = append([]byte(nil), userKey...)
		}

		top.it.Next()
		if top.it.Err() != nil {
			return nil, top.it.Err()
		}
		if top.it.Valid() {
			heap.Push(h, top)
		}
	}
	return out, nil
}
