package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayNoob/lsm-go/cf"
)

func TestCreateAndUseColumnFamily(t *testing.T) {
	d := openTestDB(t)

	handle, st := d.CreateColumnFamily("events", cf.DefaultOptions())
	require.Nil(t, st)

	require.Nil(t, d.PutCF(handle, []byte("k"), []byte("v")))
	value, found, st := d.GetCF(handle, []byte("k"))
	require.Nil(t, st)
	require.True(t, found)
	require.Equal(t, []byte("v"), value)

	// default column family is unaffected
	_, found, st = d.Get([]byte("k"))
	require.Nil(t, st)
	require.False(t, found)
}

func TestCreateColumnFamilyDuplicateNameFails(t *testing.T) {
	d := openTestDB(t)
	_, st := d.CreateColumnFamily("events", cf.DefaultOptions())
	require.Nil(t, st)

	_, st = d.CreateColumnFamily("events", cf.DefaultOptions())
	require.NotNil(t, st)
}

func TestDropColumnFamily(t *testing.T) {
	d := openTestDB(t)
	handle, st := d.CreateColumnFamily("temp", cf.DefaultOptions())
	require.Nil(t, st)

	require.Nil(t, d.DropColumnFamily(handle))

	_, found := d.GetColumnFamily("temp")
	require.False(t, found)
}

func TestDropDefaultColumnFamilyFails(t *testing.T) {
	d := openTestDB(t)
	st := d.DropColumnFamily(d.DefaultHandle())
	require.NotNil(t, st)
}

func TestListColumnFamilies(t *testing.T) {
	d := openTestDB(t)
	_, st := d.CreateColumnFamily("a", cf.DefaultOptions())
	require.Nil(t, st)
	_, st = d.CreateColumnFamily("b", cf.DefaultOptions())
	require.Nil(t, st)

	handles := d.ListColumnFamilies()
	names := make(map[string]bool)
	for _, h := range handles {
		names[h.Name()] = true
	}
	require.True(t, names["default"])
	require.True(t, names["a"])
	require.True(t, names["b"])
}
