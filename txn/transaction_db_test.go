package txn

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransactionBasic(t *testing.T) {
	db := newFakeDB()
	txnDB := NewTransactionDB(db)

	txn := txnDB.Begin()
	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key1"), []byte("value1")))
	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key2"), []byte("value2")))
	require.Nil(t, txn.Commit())

	value, found, st := db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, "value1", string(value))
}

func TestTransactionRollback(t *testing.T) {
	db := newFakeDB()
	txnDB := NewTransactionDB(db)

	txn := txnDB.Begin()
	require.Nil(t, txn.Put(db.DefaultHandle(), []byte("key1"), []byte("value1")))
	txn.Rollback()

	_, found, _ := db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.False(t, found)
}

func TestTransactionWriteLockExcludesConcurrentWriter(t *testing.T) {
	db := newFakeDB()
	txnDB := NewTransactionDB(db)

	txn1 := txnDB.Begin()
	require.Nil(t, txn1.Put(db.DefaultHandle(), []byte("key1"), []byte("value1")))

	txn2 := txnDB.Begin()

	var st2 error
	done := make(chan struct{})
	go func() {
		defer close(done)
		st2 = txn2.Put(db.DefaultHandle(), []byte("key1"), []byte("value2"))
	}()

	// txn2 should block behind txn1's write lock until it commits.
	select {
	case <-done:
		t.Fatal("txn2 acquired the lock before txn1 released it")
	case <-time.After(50 * time.Millisecond):
	}

	require.Nil(t, txn1.Commit())
	<-done
	require.Nil(t, st2)
	require.Nil(t, txn2.Commit())

	value, _, _ := db.GetCF(db.DefaultHandle(), []byte("key1"))
	require.Equal(t, "value2", string(value))
}

func TestTransactionReadLocksAreCompatible(t *testing.T) {
	db := newFakeDB()
	require.Nil(t, db.PutCF(db.DefaultHandle(), []byte("key1"), []byte("value1")))
	txnDB := NewTransactionDB(db)

	txn1 := txnDB.Begin()
	_, _, st := txn1.GetForUpdate(db.DefaultHandle(), []byte("key1"))
	require.Nil(t, st)

	var wg sync.WaitGroup
	wg.Add(1)
	var st2 error
	go func() {
		defer wg.Done()
		txn2 := txnDB.Begin()
		_, _, getErr := txn2.GetForUpdate(db.DefaultHandle(), []byte("key1"))
		st2 = getErr
		txn2.Rollback()
	}()
	wg.Wait()

	require.Nil(t, st2)
	txn1.Rollback()
}
