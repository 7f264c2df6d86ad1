// Package txn implements the write-batch, snapshot, and transaction layer
// sitting on top of the DB facade: atomic multi-key writes, consistent
// point-in-time reads, and both optimistic and pessimistic transactions.
package txn

import "sync"

// Snapshot is a point-in-time token identified by the MVCC sequence
// number in effect when it was taken. No read path takes a Snapshot:
// Get, GetCF and iterators always read the latest data.
//
// Unlike the reference implementation's Arc<SnapshotMarker>, which relies
// on Rust's Drop to notice when the last clone goes away, Go has no
// destructor hook: a Snapshot here is a plain value, and the Registry it
// came from must be told explicitly via Release when the caller is done,
// so that OldestSequence stops counting it.
type Snapshot struct {
	id       uint64
	sequence uint64
}

// Sequence returns the snapshot's sequence number.
func (s Snapshot) Sequence() uint64 { return s.sequence }

// Registry tracks every live Snapshot for one DB and reports, through
// OldestSequence, the oldest sequence number any of them is pinned at.
// Compaction does not consult it: it keeps only the newest version of each
// user key regardless of live snapshots. This is the Go stand-in for
// the reference implementation's ad hoc "could notify DB to release
// snapshot here" comment in SnapshotMarker::drop.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	active map[uint64]uint64 // snapshot id -> sequence
}

// NewRegistry returns an empty snapshot registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[uint64]uint64)}
}

// Acquire registers a new snapshot pinned at sequence and returns it. The
// caller must eventually call Release with the returned value.
func (r *Registry) Acquire(sequence uint64) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.active[id] = sequence
	return Snapshot{id: id, sequence: sequence}
}

// Release unregisters a snapshot. Releasing an already-released or
// zero-value Snapshot is a no-op.
func (r *Registry) Release(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, s.id)
}

// OldestSequence returns the lowest sequence number among all active
// snapshots and true, or (0, false) if no snapshot is currently held.
func (r *Registry) OldestSequence() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.active) == 0 {
		return 0, false
	}
	oldest, first := uint64(0), true
	for _, seq := range r.active {
		if first || seq < oldest {
			oldest = seq
			first = false
		}
	}
	return oldest, true
}

// Count returns the number of currently active snapshots.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
