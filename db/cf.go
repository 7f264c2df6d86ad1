package db

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
)

// CreateColumnFamily adds a new column family with its own memtable and
// SST version history, rooted at its own subdirectory under the DB's
// directory.
func (d *DB) CreateColumnFamily(name string, opts cf.Options) (cf.Handle, *status.Status) {
	if d.closed.Load() {
		return cf.Handle{}, status.ShutdownInProgressf("db is closed")
	}
	return d.cfs.CreateCF(name, opts)
}

// DropColumnFamily removes a column family and releases its resources.
// Dropping the default column family is refused.
func (d *DB) DropColumnFamily(handle cf.Handle) *status.Status {
	d.runtimeMu.Lock()
	delete(d.runtimes, handle.ID())
	d.runtimeMu.Unlock()
	return d.cfs.DropCF(handle)
}

// ListColumnFamilies returns a handle for every live column family.
func (d *DB) ListColumnFamilies() []cf.Handle {
	return d.cfs.ListColumnFamilies()
}

// GetColumnFamily resolves a column family by name.
func (d *DB) GetColumnFamily(name string) (cf.Handle, bool) {
	data, ok := d.cfs.GetCFByName(name)
	if !ok {
		return cf.Handle{}, false
	}
	return data.Handle(), true
}
