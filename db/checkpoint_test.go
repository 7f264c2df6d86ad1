package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckpointCopiesLiveState(t *testing.T) {
	opts := DefaultOptions()
	opts.Dir = t.TempDir()
	opts.DefaultCFOptions.WriteBufferSize = 64
	d, st := Open(opts)
	require.Nil(t, st)
	defer d.Close()

	for i := 0; i < 20; i++ {
		require.Nil(t, d.Put([]byte{byte('a' + i)}, []byte("value-long-enough-to-trigger-a-flush")))
	}

	dest := filepath.Join(t.TempDir(), "checkpoint")
	require.Nil(t, d.Checkpoint(dest))

	require.DirExists(t, filepath.Join(dest, "cf-default"))
	require.FileExists(t, filepath.Join(dest, "cf-default", "MANIFEST"))
	require.FileExists(t, filepath.Join(dest, walFilename))
}

func TestCheckpointWithoutPriorWritesStillSucceeds(t *testing.T) {
	d := openTestDB(t)
	dest := filepath.Join(t.TempDir(), "checkpoint")
	require.Nil(t, d.Checkpoint(dest))
	require.FileExists(t, filepath.Join(dest, "cf-default", "MANIFEST"))
}
