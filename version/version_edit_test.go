package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionEditEncodeDecode(t *testing.T) {
	edit := &VersionEdit{}
	edit.SetComparator("bytewise")
	edit.SetLogNumber(10)
	edit.SetNextFileNumber(100)
	edit.SetLastSequence(1000)
	edit.AddFile(0, FileMetaData{Number: 1, FileSize: 4096, Smallest: []byte("key1"), Largest: []byte("key9")})
	edit.DeleteFile(1, 5)

	encoded := edit.Encode()
	decoded, st := DecodeVersionEdit(encoded)
	require.Nil(t, st)

	require.Equal(t, "bytewise", decoded.Comparator)
	require.Equal(t, uint64(10), decoded.LogNumber)
	require.Equal(t, uint64(100), decoded.NextFileNumber)
	require.Equal(t, uint64(1000), decoded.LastSequence)
	require.Len(t, decoded.NewFiles(), 1)
	require.Equal(t, 0, decoded.NewFiles()[0].Level)
	require.Equal(t, uint64(1), decoded.NewFiles()[0].Meta.Number)
	require.Len(t, decoded.DeletedFiles(), 1)
	require.Equal(t, DeletedFileRef{Level: 1, File: 5}, decoded.DeletedFiles()[0])
}

func TestVersionEditColumnFamilyOperations(t *testing.T) {
	edit := &VersionEdit{}
	edit.CreateColumnFamily(1, "users")
	edit.CreateColumnFamily(2, "posts")
	edit.DropColumnFamily(1)

	encoded := edit.Encode()
	decoded, st := DecodeVersionEdit(encoded)
	require.Nil(t, st)

	cfs := decoded.CreatedColumnFamilies()
	require.Equal(t, "users", cfs[1])
	require.Equal(t, "posts", cfs[2])
	require.Equal(t, []uint32{1}, decoded.DroppedColumnFamilies())
}

func TestVersionEditMixedOperations(t *testing.T) {
	edit := &VersionEdit{}
	edit.SetComparator("bytewise")
	edit.CreateColumnFamily(1, "metadata")
	edit.AddFile(0, FileMetaData{Number: 10, FileSize: 2048, Smallest: []byte("a"), Largest: []byte("z")})
	edit.DropColumnFamily(2)
	edit.SetLastSequence(5000)

	encoded := edit.Encode()
	decoded, st := DecodeVersionEdit(encoded)
	require.Nil(t, st)

	require.Equal(t, "bytewise", decoded.Comparator)
	require.Equal(t, uint64(5000), decoded.LastSequence)
	require.Len(t, decoded.NewFiles(), 1)
	require.Equal(t, []uint32{2}, decoded.DroppedColumnFamilies())
}

func TestDecodeVersionEditRejectsUnknownTag(t *testing.T) {
	_, st := DecodeVersionEdit([]byte{99})
	require.NotNil(t, st)
	require.True(t, st.IsCorruption())
}
