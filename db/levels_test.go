package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/version"
)

func TestLevelScoresReportsOneEntryPerLevel(t *testing.T) {
	d := openTestDB(t)

	scores, st := d.LevelScores(d.DefaultHandle())
	require.Nil(t, st)
	require.Len(t, scores, version.NumLevels)
	for _, s := range scores {
		require.GreaterOrEqual(t, s, 0.0)
	}
}

func TestLevelScoresUnknownColumnFamily(t *testing.T) {
	d := openTestDB(t)
	bogus := cf.NewHandle(9999, "missing")

	_, st := d.LevelScores(bogus)
	require.NotNil(t, st)
}
