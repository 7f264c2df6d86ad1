package iterator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/memtable"
)

func TestMergingIteratorTwoMemtablesNonOverlapping(t *testing.T) {
	mt1 := memtable.New()
	mt1.Add(1, []byte("key1"), []byte("value1"))
	mt1.Add(2, []byte("key3"), []byte("value3"))

	mt2 := memtable.New()
	mt2.Add(1, []byte("key2"), []byte("value2"))
	mt2.Add(2, []byte("key4"), []byte("value4"))

	m := New([]Source{mt1.NewIterator(), mt2.NewIterator()})
	m.SeekToFirst()

	var keys []string
	for m.Valid() {
		keys = append(keys, string(ikey.UserKey(m.Key())))
		m.Next()
	}
	require.Equal(t, []string{"key1", "key2", "key3", "key4"}, keys)
}

func TestMergingIteratorPriorityShadowsOlderValue(t *testing.T) {
	mt1 := memtable.New()
	mt1.Add(2, []byte("key1"), []byte("value1_new"))

	mt2 := memtable.New()
	mt2.Add(1, []byte("key1"), []byte("value1_old"))

	m := New([]Source{mt1.NewIterator(), mt2.NewIterator()})
	m.SeekToFirst()

	require.True(t, m.Valid())
	require.Equal(t, "key1", string(ikey.UserKey(m.Key())))
	require.Equal(t, "value1_new", string(m.Value()))

	m.Next()
	require.False(t, m.Valid())
}

func TestMergingIteratorSeek(t *testing.T) {
	mt1 := memtable.New()
	mt1.Add(1, []byte("key1"), []byte("value1"))
	mt1.Add(2, []byte("key5"), []byte("value5"))

	mt2 := memtable.New()
	mt2.Add(1, []byte("key3"), []byte("value3"))
	mt2.Add(2, []byte("key7"), []byte("value7"))

	m := New([]Source{mt1.NewIterator(), mt2.NewIterator()})

	m.Seek(ikey.SeekKey([]byte("key3")))
	require.True(t, m.Valid())
	require.Equal(t, "key3", string(ikey.UserKey(m.Key())))

	m.Seek(ikey.SeekKey([]byte("key4")))
	require.True(t, m.Valid())
	require.Equal(t, "key5", string(ikey.UserKey(m.Key())))
}

func TestMergingIteratorSkipsDeletionTombstone(t *testing.T) {
	mt1 := memtable.New()
	mt1.Add(1, []byte("key1"), []byte("value1"))
	mt1.Delete(2, []byte("key1"))
	mt1.Add(1, []byte("key2"), []byte("value2"))

	m := New([]Source{mt1.NewIterator()})
	m.SeekToFirst()

	var keys []string
	for m.Valid() {
		keys = append(keys, string(ikey.UserKey(m.Key())))
		m.Next()
	}
	require.Equal(t, []string{"key2"}, keys)
}

func TestMergingIteratorTombstoneShadowsOlderSourceValue(t *testing.T) {
	mt1 := memtable.New()
	mt1.Delete(2, []byte("key1"))

	mt2 := memtable.New()
	mt2.Add(1, []byte("key1"), []byte("old"))

	m := New([]Source{mt1.NewIterator(), mt2.NewIterator()})
	m.SeekToFirst()
	require.False(t, m.Valid())
}

func TestMergingIteratorEmpty(t *testing.T) {
	mt1 := memtable.New()
	m := New([]Source{mt1.NewIterator()})
	m.SeekToFirst()
	require.False(t, m.Valid())
	require.Nil(t, m.Err())
}
