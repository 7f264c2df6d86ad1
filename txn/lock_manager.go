package txn

import (
	"sync"
	"time"

	"github.com/ChinmayNoob/lsm-go/status"
)

// LockType distinguishes a pessimistic transaction's shared read locks
// from its exclusive write locks.
type LockType int

const (
	LockRead LockType = iota
	LockWrite
)

type lockEntry struct {
	lockType LockType
	txnID    uint64
}

// LockManager grants and releases per-key read/write locks for
// pessimistic Transactions. Read locks are mutually compatible; a write
// lock excludes every other lock on the same key. Unlike the reference
// implementation's busy-polling loop (lock a mutex, check, sleep 10ms,
// repeat), this uses a sync.Cond so waiters block until a release
// actually happens instead of spinning.
type LockManager struct {
	mu    sync.Mutex
	cond  *sync.Cond
	locks map[uint32]map[string][]lockEntry // cf_id -> key -> holders
}

// NewLockManager returns an empty lock manager.
func NewLockManager() *LockManager {
	lm := &LockManager{locks: make(map[uint32]map[string][]lockEntry)}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

// Acquire blocks until lockType can be granted to txnID on (cfID, key),
// or returns a Busy status once timeout elapses.
func (lm *LockManager) Acquire(cfID uint32, key []byte, lockType LockType, txnID uint64, timeout time.Duration) *status.Status {
	deadline := time.Now().Add(timeout)
	ks := string(key)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	for {
		keyLocks := lm.locks[cfID][ks]
		if canAcquireLocked(keyLocks, lockType, txnID) {
			lm.addLockLocked(cfID, ks, lockEntry{lockType: lockType, txnID: txnID})
			return nil
		}
		if time.Now().After(deadline) {
			return status.Busyf("lock timeout for key %q", key)
		}
		lm.waitUntilLocked(deadline)
	}
}

// Upgrade blocks until txnID's existing read lock on (cfID, key) can be
// upgraded to a write lock (i.e. txnID is the sole holder), or returns a
// Busy status once timeout elapses.
func (lm *LockManager) Upgrade(cfID uint32, key []byte, txnID uint64, timeout time.Duration) *status.Status {
	deadline := time.Now().Add(timeout)
	ks := string(key)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	for {
		keyLocks := lm.locks[cfID][ks]
		if len(keyLocks) == 1 && keyLocks[0].txnID == txnID {
			keyLocks[0].lockType = LockWrite
			return nil
		}
		if time.Now().After(deadline) {
			return status.Busyf("lock upgrade timeout for key %q", key)
		}
		lm.waitUntilLocked(deadline)
	}
}

// ReleaseKey drops txnID's lock on (cfID, key).
func (lm *LockManager) ReleaseKey(cfID uint32, key []byte, txnID uint64) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(cfID, string(key), txnID)
	lm.cond.Broadcast()
}

func (lm *LockManager) releaseLocked(cfID uint32, key string, txnID uint64) {
	cfLocks, ok := lm.locks[cfID]
	if !ok {
		return
	}
	keyLocks := cfLocks[key]
	kept := keyLocks[:0]
	for _, e := range keyLocks {
		if e.txnID != txnID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(cfLocks, key)
	} else {
		cfLocks[key] = kept
	}
}

func (lm *LockManager) addLockLocked(cfID uint32, key string, e lockEntry) {
	cfLocks, ok := lm.locks[cfID]
	if !ok {
		cfLocks = make(map[string][]lockEntry)
		lm.locks[cfID] = cfLocks
	}
	cfLocks[key] = append(cfLocks[key], e)
}

// waitUntilLocked waits on lm.cond, but never past deadline. Caller must
// hold lm.mu; Wait releases and reacquires it internally.
func (lm *LockManager) waitUntilLocked(deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		lm.mu.Lock()
		lm.cond.Broadcast()
		lm.mu.Unlock()
	})
	defer timer.Stop()
	lm.cond.Wait()
}

func canAcquireLocked(keyLocks []lockEntry, lockType LockType, txnID uint64) bool {
	if len(keyLocks) == 0 {
		return true
	}
	for _, e := range keyLocks {
		if e.txnID == txnID {
			return true
		}
	}
	if lockType != LockRead {
		return false
	}
	for _, e := range keyLocks {
		if e.lockType != LockRead {
			return false
		}
	}
	return true
}
