package compaction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/version"
)

func TestKeyRangeContainsAndOverlaps(t *testing.T) {
	kr := KeyRange{Smallest: []byte("d"), Largest: []byte("m")}
	require.True(t, kr.Contains([]byte("f")))
	require.False(t, kr.Contains([]byte("z")))
	require.True(t, kr.Overlaps(KeyRange{Smallest: []byte("a"), Largest: []byte("e")}))
	require.False(t, kr.Overlaps(KeyRange{Smallest: []byte("n"), Largest: []byte("z")}))
}

func TestPlanReturnsWholeRangeWhenTooSmall(t *testing.T) {
	planner := NewPlanner(DefaultSubcompactionConfig())
	levelFiles := []version.FileMetaData{
		{Number: 1, FileSize: 100, Smallest: []byte("a"), Largest: []byte("m")},
	}
	subs := planner.Plan(levelFiles, nil)
	require.Len(t, subs, 1)
	require.Equal(t, levelFiles, subs[0].LevelFiles)
}

func TestPlanReturnsNilForEmptyInput(t *testing.T) {
	planner := NewPlanner(DefaultSubcompactionConfig())
	require.Nil(t, planner.Plan(nil, nil))
}

func TestPlanSplitsLargeInputIntoMultipleRanges(t *testing.T) {
	cfg := SubcompactionConfig{MinFileSize: 1, TargetSubcompactions: 4, EnableParallel: true}
	planner := NewPlanner(cfg)

	var levelFiles []version.FileMetaData
	keys := []string{"a", "c", "e", "g", "i", "k", "m", "o", "q", "s"}
	for i, k := range keys {
		levelFiles = append(levelFiles, version.FileMetaData{
			Number:   uint64(i),
			FileSize: 1 << 20,
			Smallest: []byte(k),
			Largest:  []byte(k),
		})
	}

	subs := planner.Plan(levelFiles, nil)
	require.Greater(t, len(subs), 1)

	var total int
	for _, s := range subs {
		total += len(s.LevelFiles)
	}
	require.GreaterOrEqual(t, total, len(levelFiles))
}

func TestSubcompactionInputSize(t *testing.T) {
	sub := Subcompaction{
		LevelFiles:     []version.FileMetaData{{FileSize: 100}, {FileSize: 200}},
		NextLevelFiles: []version.FileMetaData{{FileSize: 50}},
	}
	require.Equal(t, uint64(350), sub.InputSize())
}

func TestGetOverlappingFilesFiltersByRange(t *testing.T) {
	files := []version.FileMetaData{
		{Number: 1, Smallest: []byte("a"), Largest: []byte("c")},
		{Number: 2, Smallest: []byte("d"), Largest: []byte("f")},
		{Number: 3, Smallest: []byte("g"), Largest: []byte("i")},
	}
	out := getOverlappingFiles(files, KeyRange{Smallest: []byte("b"), Largest: []byte("e")})
	require.Len(t, out, 2)
}
