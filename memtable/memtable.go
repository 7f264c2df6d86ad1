// Package memtable implements the engine's in-memory sorted table: a
// concurrent ordered map from encoded internal key to value bytes,
// permitting many concurrent inserts and many concurrent reads (spec.md
// §4.2).
package memtable

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/ChinmayNoob/lsm-go/ikey"
)

// Memtable is a concurrent sorted map of internal-key-encoded entries. It
// never replaces an entry in place: Add/Delete always insert a fresh
// internal key carrying a new sequence number, relying on the internal-key
// ordering trick (ikey package) to make the freshest version sort first.
type Memtable struct {
	mu            sync.RWMutex
	table         *skipList
	approximate   atomic.Uint64
}

// New constructs an empty Memtable.
func New() *Memtable {
	return &Memtable{table: newSkipList()}
}

// Add inserts a fresh (seq, key, value) entry. It never overwrites an
// existing entry for key — see spec.md §4.2's "always inserts a fresh
// entry; does not in-place replace".
func (m *Memtable) Add(seq uint64, key, value []byte) {
	ik := ikey.Encode(key, seq, ikey.TypeValue)
	m.mu.Lock()
	m.table.Insert(ik, cloneBytes(value))
	m.mu.Unlock()
	m.approximate.Add(uint64(len(ik) + len(value)))
}

// Delete inserts a deletion tombstone for key at seq.
func (m *Memtable) Delete(seq uint64, key []byte) {
	ik := ikey.Encode(key, seq, ikey.TypeDeletion)
	m.mu.Lock()
	m.table.Insert(ik, nil)
	m.mu.Unlock()
	m.approximate.Add(uint64(len(ik)))
}

// Get implements spec.md §4.2's three-way lookup: (true, value, false) for
// a live hit, (true, nil, true) for a tombstone hit (caller must stop and
// report not-found without consulting older sources), and (false, nil,
// false) when no entry for key exists in this memtable at all.
func (m *Memtable) Get(key []byte) (found bool, value []byte, tombstone bool) {
	seek := ikey.SeekKey(key)

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.table.seekGE(seek)
	if n == nil {
		return false, nil, false
	}
	userKey, _, vt, st := ikey.Decode(n.key)
	if st != nil || !bytes.Equal(userKey, key) {
		return false, nil, false
	}
	if vt == ikey.TypeDeletion {
		return true, nil, true
	}
	return true, n.value, false
}

// ApproximateMemoryUsage monotonically tracks bytes of encoded keys plus
// values added so far, used to decide when to rotate to an immutable
// memtable (write_buffer_size).
func (m *Memtable) ApproximateMemoryUsage() uint64 {
	return m.approximate.Load()
}

// IsEmpty reports whether no entry has ever been inserted into the memtable.
func (m *Memtable) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.Len() == 0
}

// Iter returns the live (non-tombstone, non-shadowed) entries in ascending
// user-key order.
func (m *Memtable) Iter() []Record {
	return m.collect(false)
}

// CollectEntries returns all first-per-user-key entries in ascending
// user-key order, retaining tombstones, for flushing to an SST (spec.md
// §4.2's `collect_entries`).
func (m *Memtable) CollectEntries() []Record {
	return m.collect(true)
}

func (m *Memtable) collect(includeTombstones bool) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	var lastUserKey []byte
	haveLast := false

	for n := m.table.first(); n != nil; n = n.forward[0] {
		userKey, seq, vt, st := ikey.Decode(n.key)
		if st != nil {
			continue
		}
		if haveLast && bytes.Equal(lastUserKey, userKey) {
			continue
		}
		haveLast = true
		lastUserKey = userKey

		isTomb := vt == ikey.TypeDeletion
		if !includeTombstones && isTomb {
			continue
		}
		out = append(out, Record{
			Key:       cloneBytes(userKey),
			Value:     cloneBytes(n.value),
			Tombstone: isTomb,
			Seq:       seq,
		})
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
