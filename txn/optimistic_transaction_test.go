package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptimisticTransactionBasic(t *testing.T) {
	db := newFakeDB()
	txn := NewOptimisticTransaction(db, Snapshot{sequence: db.CurrentSequence()})

	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key1"), []byte("value1")))
	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key2"), []byte("value2")))

	value, found, st := txn.Get(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, "value1", string(value))

	require.Nil(t, txn.Commit())

	value, found, st = db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, "value1", string(value))
}

func TestOptimisticTransactionRollback(t *testing.T) {
	db := newFakeDB()
	txn := NewOptimisticTransaction(db, Snapshot{sequence: db.CurrentSequence()})

	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key1"), []byte("value1")))
	txn.Rollback()

	_, found, st := db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.False(t, found)
}

func TestOptimisticTransactionDelete(t *testing.T) {
	db := newFakeDB()
	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("value1")))

	txn := NewOptimisticTransaction(db, Snapshot{sequence: db.CurrentSequence()})
	require.Nil(t, txn.Delete(db.DefaultHandle(), []byte("key1")))

	_, found, st := txn.Get(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.False(t, found)

	require.Nil(t, txn.Commit())

	_, found, st = db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.False(t, found)
}

func TestOptimisticTransactionConflictDetected(t *testing.T) {
	db := newFakeDB()
	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("initial")))

	txn := NewOptimisticTransaction(db, Snapshot{sequence: db.CurrentSequence()})
	// Track key1 by reading it through the transaction.
	_, _, st := txn.Get(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)

	// Another writer changes it concurrently, outside the transaction.
	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("changed")))

	txn.Put(db.DefaultHandle(), []byte("key2"), []byte("unrelated"))

	st = txn.Commit()
	require.NotNil(t, st)
	require.True(t, st.IsBusy())
}

func TestOptimisticTransactionNoConflictWhenUnrelatedKeyChanges(t *testing.T) {
	db := newFakeDB()
	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("initial")))

	txn := NewOptimisticTransaction(db, Snapshot{sequence: db.CurrentSequence()})
	txn.Put(db.DefaultHandle(), []byte("key2"), []byte("value2"))

	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("changed-by-someone-else")))

	require.Nil(t, txn.Commit())
}
