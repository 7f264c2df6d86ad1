package cf

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDataCreation(t *testing.T) {
	dir := t.TempDir()
	d, st := NewData(1, "test_cf", DefaultOptions(), dir, zerolog.Nop())
	require.Nil(t, st)
	defer d.Close()

	require.Equal(t, uint32(1), d.ID())
	require.Equal(t, "test_cf", d.Name())
	require.Equal(t, uint64(0), d.CurrentSequence())
	require.False(t, d.ShouldFlush())
}

func TestDataSequenceAllocation(t *testing.T) {
	dir := t.TempDir()
	d, st := NewData(1, "test_cf", DefaultOptions(), dir, zerolog.Nop())
	require.Nil(t, st)
	defer d.Close()

	require.Equal(t, uint64(1), d.NextSequence())
	require.Equal(t, uint64(2), d.NextSequence())
	require.Equal(t, uint64(3), d.NextSequence())
	require.Equal(t, uint64(3), d.CurrentSequence())
}

func TestDataMakeImmutable(t *testing.T) {
	dir := t.TempDir()
	d, st := NewData(1, "test_cf", DefaultOptions(), dir, zerolog.Nop())
	require.Nil(t, st)
	defer d.Close()

	require.True(t, d.MakeImmutable())
	require.NotNil(t, d.Imm())

	require.False(t, d.MakeImmutable())

	d.ClearImmutable()
	require.Nil(t, d.Imm())
	require.True(t, d.MakeImmutable())
}

func TestDataShouldFlushAfterWrites(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.WriteBufferSize = 16
	d, st := NewData(1, "test_cf", opts, dir, zerolog.Nop())
	require.Nil(t, st)
	defer d.Close()

	require.False(t, d.ShouldFlush())
	d.Mem().Add(d.NextSequence(), []byte("key"), []byte("a fairly long value to exceed the buffer"))
	require.True(t, d.ShouldFlush())
}
