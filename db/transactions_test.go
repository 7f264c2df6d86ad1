package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotIsolatesFromLaterWrites(t *testing.T) {
	d := openTestDB(t)
	require.Nil(t, d.Put([]byte("k"), []byte("v1")))

	snap := d.GetSnapshot()
	defer d.ReleaseSnapshot(snap)

	require.Nil(t, d.Put([]byte("k"), []byte("v2")))

	oldest, ok := d.OldestSnapshotSequence()
	require.True(t, ok)
	require.Equal(t, snap.Sequence(), oldest)
}

func TestOldestSnapshotSequenceWithNoneOutstanding(t *testing.T) {
	d := openTestDB(t)
	_, ok := d.OldestSnapshotSequence()
	require.False(t, ok)
}

func TestOptimisticTransactionCommitsWithoutConflict(t *testing.T) {
	d := openTestDB(t)
	require.Nil(t, d.Put([]byte("balance"), []byte("100")))

	tx := d.NewOptimisticTransaction()
	_, found, st := tx.Get(d.DefaultHandle(), []byte("balance"))
	require.Nil(t, st)
	require.True(t, found)

	require.Nil(t, tx.Put(d.DefaultHandle(), []byte("balance"), []byte("90")))
	require.Nil(t, tx.Commit())

	value, found, st := d.Get([]byte("balance"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, []byte("90"), value)
}

func TestPessimisticTransactionLifecycle(t *testing.T) {
	d := openTestDB(t)
	require.Nil(t, d.Put([]byte("k"), []byte("v")))

	tx := d.BeginTransaction()
	require.Nil(t, tx.Put(d.DefaultHandle(), []byte("k"), []byte("v2")))
	require.Nil(t, tx.Commit())

	value, found, st := d.Get([]byte("k"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, []byte("v2"), value)
}
