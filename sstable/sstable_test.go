package sstable

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/ikey"
)

func buildTestTable(t *testing.T, dir string, n int, opts WriterOptions) (*Reader, []string) {
	t.Helper()
	path := filepath.Join(dir, "000001.sst")
	w, st := NewWriter(path, opts)
	require.Nil(t, st)

	var keys []string
	for i := 0; i < n; i++ {
		userKey := []byte(fmt.Sprintf("key-%05d", i))
		keys = append(keys, string(userKey))
		ik := ikey.Encode(userKey, uint64(i+1), ikey.TypeValue)
		require.Nil(t, w.Add(ik, []byte(fmt.Sprintf("value-%d", i))))
	}
	_, _, _, st = w.Finish()
	require.Nil(t, st)

	r, st := Open(path, 1)
	require.Nil(t, st)
	return r, keys
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultWriterOptions()
	opts.BlockSize = 256 // force multiple data blocks
	r, keys := buildTestTable(t, dir, 500, opts)
	defer r.Close()

	for i, k := range keys {
		value, tomb, found, st := r.Get([]byte(k))
		require.Nil(t, st)
		require.True(t, found)
		require.False(t, tomb)
		require.Equal(t, fmt.Sprintf("value-%d", i), string(value))
	}
}

func TestReaderGetMissing(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultWriterOptions()
	r, _ := buildTestTable(t, dir, 50, opts)
	defer r.Close()

	_, _, found, st := r.Get([]byte("nonexistent-key"))
	require.Nil(t, st)
	require.False(t, found)
}

func TestReaderRespectsBloomFilter(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultWriterOptions()
	opts.BitsPerKey = 10
	r, keys := buildTestTable(t, dir, 200, opts)
	defer r.Close()

	require.True(t, r.MayContain([]byte(keys[0])))
	missed := 0
	for i := 0; i < 1000; i++ {
		if !r.MayContain([]byte(fmt.Sprintf("absent-%d", i))) {
			missed++
		}
	}
	require.Greater(t, missed, 900)
}

func TestReaderHandlesDeletionTombstone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "000002.sst")
	w, st := NewWriter(path, DefaultWriterOptions())
	require.Nil(t, st)

	require.Nil(t, w.Add(ikey.Encode([]byte("alive"), 1, ikey.TypeValue), []byte("v1")))
	require.Nil(t, w.Add(ikey.Encode([]byte("dead"), 2, ikey.TypeDeletion), nil))
	_, _, _, st = w.Finish()
	require.Nil(t, st)

	r, st := Open(path, 2)
	require.Nil(t, st)
	defer r.Close()

	_, tomb, found, st := r.Get([]byte("dead"))
	require.Nil(t, st)
	require.True(t, found)
	require.True(t, tomb)
}

func TestIteratorWalksInOrder(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultWriterOptions()
	opts.BlockSize = 128
	r, keys := buildTestTable(t, dir, 100, opts)
	defer r.Close()

	it := r.NewIterator()
	it.SeekToFirst()
	i := 0
	for it.Valid() {
		userKey, seq, vt, st := ikey.Decode(it.Key())
		require.Nil(t, st)
		require.Equal(t, keys[i], string(userKey))
		require.Equal(t, uint64(i+1), seq)
		require.Equal(t, ikey.TypeValue, vt)
		it.Next()
		i++
	}
	require.Equal(t, len(keys), i)
	require.Nil(t, it.Err())
}

func TestIteratorSeek(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultWriterOptions()
	opts.BlockSize = 128
	r, keys := buildTestTable(t, dir, 100, opts)
	defer r.Close()

	it := r.NewIterator()
	target := ikey.SeekKey([]byte(keys[50]))
	it.Seek(target)
	require.True(t, it.Valid())
	userKey, _, _, st := ikey.Decode(it.Key())
	require.Nil(t, st)
	require.Equal(t, keys[50], string(userKey))
}

func TestFilenameFormat(t *testing.T) {
	require.Equal(t, "000042.sst", FormatFilename(42))
}
