package txn

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
)

// DefaultLockTimeout bounds how long a Transaction blocks waiting to
// acquire a conflicting lock before failing with a Busy status.
const DefaultLockTimeout = 5 * time.Second

// TransactionDB layers pessimistic, lock-based transactions over a DB.
// Unlike OptimisticTransaction, conflicts are prevented up front by
// holding locks for the transaction's lifetime rather than detected at
// commit time.
type TransactionDB struct {
	db          DB
	lockManager *LockManager
	nextTxnID   atomic.Uint64
}

// NewTransactionDB wraps db with pessimistic transaction support.
func NewTransactionDB(db DB) *TransactionDB {
	return &TransactionDB{db: db, lockManager: NewLockManager()}
}

// Begin starts a new Transaction, snapshotted at db's current sequence.
func (t *TransactionDB) Begin() *Transaction {
	id := t.nextTxnID.Add(1) - 1
	snapshot := Snapshot{id: id, sequence: t.db.CurrentSequence()}
	return &Transaction{
		id:          id,
		db:          t.db,
		lockManager: t.lockManager,
		snapshot:    snapshot,
		batch:       NewWriteBatch(),
		handles:     make(map[uint32]cf.Handle),
		locked:      make(map[uint32]map[string]LockType),
	}
}

// DB returns the underlying database.
func (t *TransactionDB) DB() DB { return t.db }

// Transaction is a pessimistic, lock-holding unit of work: every key it
// touches is locked (read lock for get_for_update, write lock for
// put/delete) until Commit or Rollback releases it.
type Transaction struct {
	id          uint64
	db          DB
	lockManager *LockManager
	snapshot    Snapshot
	batch       *WriteBatch

	mu      sync.Mutex
	handles map[uint32]cf.Handle
	locked  map[uint32]map[string]LockType
	done    bool
}

// GetForUpdate acquires a read lock on (handle, key) and returns its
// current value, checking the transaction's own staged writes first.
func (t *Transaction) GetForUpdate(handle cf.Handle, key []byte) ([]byte, bool, *status.Status) {
	if st := t.acquireLock(handle, key, LockRead); st != nil {
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

// Put stages a Put against handle's column family, first acquiring a
// write lock on key.
func (t *Transaction) Put(handle cf.Handle, key, value []byte) *status.Status {
	if st := t.acquireLock(handle, key, LockWrite); st != nil {
		return st
	}
	t.batch.Put(handle.ID(), key, value)
	return nil
}

// Delete stages a Delete against handle's column family, first acquiring
// a write lock on key.
func (t *Transaction) Delete(handle cf.Handle, key []byte) *status.Status {
	if st := t.acquireLock(handle, key, LockWrite); st != nil {
		return st
	}
	t.batch.Delete(handle.ID(), key)
	return nil
}

func (t *Transaction) acquireLock(handle cf.Handle, key []byte, lockType LockType) *status.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfID := handle.ID()
	t.handles[cfID] = handle

	cfLocks, ok := t.locked[cfID]
	if !ok {
		cfLocks = make(map[string]LockType)
		t.locked[cfID] = cfLocks
	}
	ks := string(key)
	if existing, held := cfLocks[ks]; held {
		if existing == LockRead && lockType == LockWrite {
			if st := t.lockManager.Upgrade(cfID, key, t.id, DefaultLockTimeout); st != nil {
				return st
			}
			cfLocks[ks] = LockWrite
		}
		return nil
	}

	if st := t.lockManager.Acquire(cfID, key, lockType, t.id, DefaultLockTimeout); st != nil {
		return st
	}
	cfLocks[ks] = lockType
	return nil
}

// Commit applies every staged operation to the database and releases all
// locks held by the transaction.
func (t *Transaction) Commit() *status.Status {
	defer t.releaseAll()
	return Apply(t.db, t.lookupHandle, t.batch)
}

// Rollback discards staged writes and releases all locks without
// touching the database.
func (t *Transaction) Rollback() {
	t.releaseAll()
}

func (t *Transaction) releaseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	for cfID, cfLocks := range t.locked {
		for key := range cfLocks {
			t.lockManager.ReleaseKey(cfID, []byte(key), t.id)
		}
	}
	t.done = true
}

// Snapshot returns the transaction's read snapshot.
func (t *Transaction) Snapshot() Snapshot { return t.snapshot }

func (t *Transaction) lookupHandle(cfID uint32) (cf.Handle, bool) {
	h, ok := t.handles[cfID]
	return h, ok
}
