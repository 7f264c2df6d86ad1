package compaction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/version"
)

func TestPickerTargetSizeForLevel(t *testing.T) {
	p := NewPicker()
	require.Equal(t, uint64(0), p.TargetSizeForLevel(0))
	require.Equal(t, DefaultBaseLevelSize, p.TargetSizeForLevel(1))
	require.Equal(t, DefaultBaseLevelSize*DefaultLevelMultiplier, p.TargetSizeForLevel(2))
	require.Equal(t, DefaultBaseLevelSize*DefaultLevelMultiplier*DefaultLevelMultiplier, p.TargetSizeForLevel(3))
}

func TestPickerScoresLevel0ByFileCount(t *testing.T) {
	p := NewPicker()
	v := version.NewVersion()
	for i := uint64(0); i < 4; i++ {
		v.AddFile(0, version.FileMetaData{Number: i, Smallest: []byte("a"), Largest: []byte("z")})
	}
	require.InDelta(t, 1.0, p.ScoreForLevel(v, 0), 0.001)
}

func TestPickerScoresLevelNByByteSize(t *testing.T) {
	p := NewPicker()
	v := version.NewVersion()
	v.AddFile(1, version.FileMetaData{Number: 1, FileSize: DefaultBaseLevelSize * 2, Smallest: []byte("a"), Largest: []byte("z")})
	require.InDelta(t, 2.0, p.ScoreForLevel(v, 1), 0.001)
}

func TestPickCompactionReturnsWorstLevel(t *testing.T) {
	p := NewPicker()
	v := version.NewVersion()
	for i := uint64(0); i < 4; i++ {
		v.AddFile(0, version.FileMetaData{Number: i, Smallest: []byte("a"), Largest: []byte("z")})
	}
	v.AddFile(1, version.FileMetaData{Number: 10, FileSize: DefaultBaseLevelSize * 5, Smallest: []byte("a"), Largest: []byte("z")})

	level, score := p.PickCompaction(v)
	require.Equal(t, 1, level)
	require.Greater(t, score, 1.0)
}

func TestPickCompactionNoneWhenUnderLimits(t *testing.T) {
	p := NewPicker()
	v := version.NewVersion()
	v.AddFile(0, version.FileMetaData{Number: 1, Smallest: []byte("a"), Largest: []byte("z")})

	level, score := p.PickCompaction(v)
	require.Equal(t, -1, level)
	require.Equal(t, 0.0, score)
}

func TestAllScoresCoversEveryLevel(t *testing.T) {
	p := NewPicker()
	v := version.NewVersion()
	scores := p.AllScores(v)
	require.Len(t, scores, version.NumLevels)
}
