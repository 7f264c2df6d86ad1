package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func truncateFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.Truncate(path, int64(size)))
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, st := Open(path, zerolog.Nop())
	require.Nil(t, st)

	for _, rec := range []string{"record1", "record2", "record3"} {
		require.Nil(t, w.AddRecord([]byte(rec)))
	}
	require.Nil(t, w.Sync())
	require.Nil(t, w.Close())

	r, st := OpenReader(path)
	require.Nil(t, st)
	defer r.Close()

	for _, want := range []string{"record1", "record2", "record3"} {
		got, st := r.ReadRecord()
		require.Nil(t, st)
		require.Equal(t, want, string(got))
	}
	got, st := r.ReadRecord()
	require.Nil(t, st)
	require.Nil(t, got)
}

func TestWriterFragmentsLargeRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, st := Open(path, zerolog.Nop())
	require.Nil(t, st)

	large := make([]byte, BlockSize*2+100)
	for i := range large {
		large[i] = byte('A' + i%26)
	}
	require.Nil(t, w.AddRecord(large))
	require.Nil(t, w.Close())

	r, st := OpenReader(path)
	require.Nil(t, st)
	defer r.Close()

	got, st := r.ReadRecord()
	require.Nil(t, st)
	require.Equal(t, large, got)
}

func TestMutationEncodeDecode(t *testing.T) {
	payload, st := EncodeMutation(OpPut, 3, 42, []byte("key"), []byte("value"))
	require.Nil(t, st)

	m, st := DecodeMutation(payload)
	require.Nil(t, st)
	require.Equal(t, OpPut, m.Op)
	require.EqualValues(t, 3, m.CFID)
	require.EqualValues(t, 42, m.Seq)
	require.Equal(t, []byte("key"), m.Key)
	require.Equal(t, []byte("value"), m.Value)
}

func TestMutationDeleteHasNoValue(t *testing.T) {
	payload, st := EncodeMutation(OpDelete, 0, 7, []byte("k"), nil)
	require.Nil(t, st)

	m, st := DecodeMutation(payload)
	require.Nil(t, st)
	require.Equal(t, OpDelete, m.Op)
	require.Empty(t, m.Value)
}

func TestDecodeMutationRejectsUnknownOp(t *testing.T) {
	payload, st := EncodeMutation(OpPut, 0, 1, []byte("k"), []byte("v"))
	require.Nil(t, st)
	payload[0] = 0xFF

	_, st = DecodeMutation(payload)
	require.NotNil(t, st)
	require.True(t, st.IsCorruption())
}

func TestCrashTruncatedTailReportsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, st := Open(path, zerolog.Nop())
	require.Nil(t, st)
	require.Nil(t, w.AddRecord([]byte("whole-record")))
	require.Nil(t, w.AddRecord([]byte("truncated-record")))
	require.Nil(t, w.Close())

	// Truncate the file mid-second-record to simulate a crash.
	truncateFile(t, path, HeaderSize+len("whole-record")+3)

	r, st := OpenReader(path)
	require.Nil(t, st)
	defer r.Close()

	got, st := r.ReadRecord()
	require.Nil(t, st)
	require.Equal(t, "whole-record", string(got))

	_, st = r.ReadRecord()
	require.NotNil(t, st)
	require.True(t, st.IsCorruption())
}
