package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/cf"
)

func resetFlags(t *testing.T) {
	dirFlag = t.TempDir()
	syncFlag = true
	verboseFlag = false
	cfFlag = cf.DefaultColumnFamilyName
}

func TestPutThenGetRoundtrip(t *testing.T) {
	resetFlags(t)

	require.NoError(t, putCmd().RunE(nil, []string{"hello", "world"}))

	d, err := openDB()
	require.NoError(t, err)
	defer d.Close()

	handle, err := handleOf(d)
	require.NoError(t, err)
	value, found, st := d.GetCF(handle, []byte("hello"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, []byte("world"), value)
}

func TestDeleteRemovesKey(t *testing.T) {
	resetFlags(t)

	require.NoError(t, putCmd().RunE(nil, []string{"k", "v"}))
	require.NoError(t, deleteCmd().RunE(nil, []string{"k"}))

	d, err := openDB()
	require.NoError(t, err)
	defer d.Close()

	handle, err := handleOf(d)
	require.NoError(t, err)
	_, found, st := d.GetCF(handle, []byte("k"))
	require.Nil(t, st)
	require.False(t, found)
}

func TestHandleOfUnknownColumnFamilyErrors(t *testing.T) {
	resetFlags(t)
	cfFlag = "does-not-exist"

	d, err := openDB()
	require.NoError(t, err)
	defer d.Close()

	_, err = handleOf(d)
	require.Error(t, err)
}

func TestStatsCommandRuns(t *testing.T) {
	resetFlags(t)
	require.NoError(t, putCmd().RunE(nil, []string{"a", "1"}))
	require.NoError(t, statsCmd().RunE(nil, nil))
}

func TestCompactCommandReportsScores(t *testing.T) {
	resetFlags(t)
	require.NoError(t, putCmd().RunE(nil, []string{"a", "1"}))
	require.NoError(t, compactCmd().RunE(nil, nil))
}
