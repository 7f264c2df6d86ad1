package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionNewIsEmpty(t *testing.T) {
	v := NewVersion()
	require.Equal(t, 0, v.NumFiles())
}

func TestVersionAddFile(t *testing.T) {
	v := NewVersion()
	v.AddFile(0, FileMetaData{Number: 1, FileSize: 1024, Smallest: []byte("a"), Largest: []byte("z")})
	require.Equal(t, 1, v.NumFiles())
	require.Equal(t, 1, v.NumLevelFiles(0))
}

func TestVersionAddFileKeepsLevel1SortedBySmallest(t *testing.T) {
	v := NewVersion()
	v.AddFile(1, FileMetaData{Number: 3, Smallest: []byte("m")})
	v.AddFile(1, FileMetaData{Number: 1, Smallest: []byte("a")})
	v.AddFile(1, FileMetaData{Number: 2, Smallest: []byte("g")})

	files := v.Files(1)
	require.Equal(t, []byte("a"), files[0].Smallest)
	require.Equal(t, []byte("g"), files[1].Smallest)
	require.Equal(t, []byte("m"), files[2].Smallest)
}

func TestVersionRemoveFile(t *testing.T) {
	v := NewVersion()
	v.AddFile(0, FileMetaData{Number: 1, Smallest: []byte("a"), Largest: []byte("z")})
	require.Equal(t, 1, v.NumFiles())

	v.RemoveFile(0, 1)
	require.Equal(t, 0, v.NumFiles())
}

func TestVersionOverlappingLevel0Files(t *testing.T) {
	v := NewVersion()
	v.AddFile(0, FileMetaData{Number: 1, Smallest: []byte("a"), Largest: []byte("m")})
	v.AddFile(0, FileMetaData{Number: 2, Smallest: []byte("k"), Largest: []byte("z")})

	overlapping := v.OverlappingLevel0Files([]byte("j"), []byte("p"))
	require.Len(t, overlapping, 2)
}

func TestVersionOverlappingFilesLevel1Disjoint(t *testing.T) {
	v := NewVersion()
	v.AddFile(1, FileMetaData{Number: 1, Smallest: []byte("a"), Largest: []byte("c")})
	v.AddFile(1, FileMetaData{Number: 2, Smallest: []byte("d"), Largest: []byte("f")})
	v.AddFile(1, FileMetaData{Number: 3, Smallest: []byte("g"), Largest: []byte("i")})

	overlapping := v.OverlappingFiles(1, []byte("e"), []byte("h"))
	require.Len(t, overlapping, 2)
	require.Equal(t, uint64(2), overlapping[0].Number)
	require.Equal(t, uint64(3), overlapping[1].Number)
}

func TestVersionPickCompactionLevel(t *testing.T) {
	v := NewVersion()
	for i := uint64(0); i < 4; i++ {
		v.AddFile(0, FileMetaData{Number: i, FileSize: 1024, Smallest: []byte("a"), Largest: []byte("z")})
	}
	require.Equal(t, 0, v.PickCompactionLevel())
}

func TestVersionPickCompactionLevelNoneWhenUnderLimits(t *testing.T) {
	v := NewVersion()
	v.AddFile(0, FileMetaData{Number: 1, FileSize: 1024, Smallest: []byte("a"), Largest: []byte("z")})
	require.Equal(t, -1, v.PickCompactionLevel())
}

func TestVersionClonePreservesDataAndIsIndependent(t *testing.T) {
	v := NewVersion()
	v.AddFile(0, FileMetaData{Number: 1, Smallest: []byte("a"), Largest: []byte("z")})

	clone := v.Clone()
	clone.AddFile(0, FileMetaData{Number: 2, Smallest: []byte("b"), Largest: []byte("y")})

	require.Equal(t, 1, v.NumFiles())
	require.Equal(t, 2, clone.NumFiles())
}
