package txn

import (
	"bytes"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
)

type trackedValue struct {
	found bool
	value []byte
}

// OptimisticTransaction detects write-write conflicts at commit time
// instead of holding locks for the transaction's lifetime: every key read
// through the transaction is remembered at its first-observed value, and
// Commit refuses to apply if any of those values has since changed.
//
// This differs from the reference implementation's check_conflicts, which
// re-reads the current value and compares it against a "snapshot_value"
// that is, in fact, the very same just-read value — the comparison can
// never fail, silently disabling conflict detection. Here the value
// observed when the key was first tracked is retained separately so the
// comparison at commit time is against the true snapshot-time value.
type OptimisticTransaction struct {
	db       DB
	snapshot Snapshot
	batch    *WriteBatch
	handles  map[uint32]cf.Handle
	tracked  map[uint32]map[string]trackedValue
}

// NewOptimisticTransaction starts a transaction against db. snapshot is
// kept only for Snapshot(); reads and conflict tracking use db's current
// data.
func NewOptimisticTransaction(db DB, snapshot Snapshot) *OptimisticTransaction {
	return &OptimisticTransaction{
		db:       db,
		snapshot: snapshot,
		batch:    NewWriteBatch(),
		handles:  make(map[uint32]cf.Handle),
		tracked:  make(map[uint32]map[string]trackedValue),
	}
}

// Put stages a Put against handle's column family.
func (t *OptimisticTransaction) Put(handle cf.Handle, key, value []byte) *status.Status {
	if st := t.trackKey(handle, key); st != nil {
		return st
	}
	t.batch.Put(handle.ID(), key, value)
	return nil
}

// Delete stages a Delete against handle's column family.
func (t *OptimisticTransaction) Delete(handle cf.Handle, key []byte) *status.Status {
	if st := t.trackKey(handle, key); st != nil {
		return st
	}
	t.batch.Delete(handle.ID(), key)
	return nil
}

// Get reads key, checking the transaction's own uncommitted writes
// before falling back to the database (read-your-writes).
func (t *OptimisticTransaction) Get(handle cf.Handle, key []byte) ([]byte, bool, *status.Status) {
	if st := t.trackKey(handle, key); st != nil {
		return nil, false, st
	}
	if op, ok := t.batch.GetForUpdate(handle.ID(), key); ok {
		switch op.Kind {
		case OpPut:
			return op.Value, true, nil
		case OpDelete:
			return nil, false, nil
		}
	}
	return t.db.GetCF(handle, key)
}

// trackKey records handle so Commit can resolve cfID -> Handle, and
// remembers key's value the first time it is touched by this
// transaction, for conflict detection at commit.
func (t *OptimisticTransaction) trackKey(handle cf.Handle, key []byte) *status.Status {
	cfID := handle.ID()
	t.handles[cfID] = handle

	keys, ok := t.tracked[cfID]
	if !ok {
		keys = make(map[string]trackedValue)
		t.tracked[cfID] = keys
	}
	ks := string(key)
	if _, seen := keys[ks]; seen {
		return nil
	}

	value, found, st := t.db.GetCF(handle, key)
	if st != nil {
		return st
	}
	tv := trackedValue{found: found}
	if found {
		tv.value = append([]byte(nil), value...)
	}
	keys[ks] = tv
	return nil
}

// checkConflicts re-reads every key this transaction observed (other
// than ones it is itself about to overwrite) and fails with a Busy
// status if any value has changed since it was first tracked.
func (t *OptimisticTransaction) checkConflicts() *status.Status {
	for cfID, keys := range t.tracked {
		handle := t.handles[cfID]
		for key, snapshotVal := range keys {
			if t.batch.ContainsKey(cfID, []byte(key)) {
				continue
			}
			current, found, st := t.db.GetCF(handle, []byte(key))
			if st != nil {
				return st
			}
			if found != snapshotVal.found || !bytes.Equal(current, snapshotVal.value) {
				return status.Busyf("transaction conflict on key %q", key)
			}
		}
	}
	return nil
}

// Commit checks for conflicts and, if none are found, applies every
// staged operation to the database.
func (t *OptimisticTransaction) Commit() *status.Status {
	if st := t.checkConflicts(); st != nil {
		return st
	}
	return Apply(t.db, t.lookupHandle, t.batch)
}

// Rollback discards the transaction's staged writes without applying
// them.
func (t *OptimisticTransaction) Rollback() {
	t.batch.Clear()
}

// Snapshot returns the transaction's read snapshot.
func (t *OptimisticTransaction) Snapshot() Snapshot { return t.snapshot }

// WriteBatch returns the transaction's staged operations.
func (t *OptimisticTransaction) WriteBatch() *WriteBatch { return t.batch }

func (t *OptimisticTransaction) lookupHandle(cfID uint32) (cf.Handle, bool) {
	h, ok := t.handles[cfID]
	return h, ok
}
