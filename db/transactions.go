package db

import (
	"github.com/ChinmayNoob/lsm-go/txn"
)

// GetSnapshot captures a read view fixed at the current sequence number
// (via the default column family, per CurrentSequence's documented
// simplification). Every acquired Snapshot must eventually be passed to
// ReleaseSnapshot so the registry's oldest-live-sequence bookkeeping
// stays accurate.
func (d *DB) GetSnapshot() txn.Snapshot {
	return d.snapshots.Acquire(d.CurrentSequence())
}

// ReleaseSnapshot releases a Snapshot acquired via GetSnapshot.
func (d *DB) ReleaseSnapshot(snap txn.Snapshot) {
	d.snapshots.Release(snap)
}

// OldestSnapshotSequence reports the lowest sequence number any live
// snapshot still needs visible, or (0, false) if none are outstanding.
// A future compaction pass can use this to avoid dropping a value a
// snapshot reader still depends on.
func (d *DB) OldestSnapshotSequence() (uint64, bool) {
	return d.snapshots.OldestSequence()
}

// NewOptimisticTransaction begins an optimistic transaction reading from
// a fresh snapshot of the current state.
func (d *DB) NewOptimisticTransaction() *txn.OptimisticTransaction {
	return txn.NewOptimisticTransaction(d, d.GetSnapshot())
}

// transactionDB lazily builds the pessimistic-locking TransactionDB
// wrapper around d, shared across every BeginTransaction call so locks
// taken by one transaction are visible to the next.
func (d *DB) transactionDB() *txn.TransactionDB {
	d.txnOnce.Do(func() {
		d.txnDB = txn.NewTransactionDB(d)
	})
	return d.txnDB
}

// BeginTransaction starts a pessimistic transaction: GetForUpdate takes a
// row lock enforced against concurrent writers until Commit or Rollback.
func (d *DB) BeginTransaction() *txn.Transaction {
	return d.transactionDB().Begin()
}
