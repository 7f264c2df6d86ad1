package db

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/txn"
)

// Write applies every operation in batch in order, stopping at the first
// error. Operations against different column families are not applied
// atomically with respect to each other — each PutCF/DeleteCF commits
// (and durably appends to the WAL) independently, matching how the rest
// of the engine treats cross-CF consistency (see cf.Data's per-CF
// sequence counters).
func (d *DB) Write(batch *txn.WriteBatch) *status.Status {
	return txn.Apply(d, d.handleForCF, batch)
}

func (d *DB) handleForCF(cfID uint32) (cf.Handle, bool) {
	data, ok := d.cfs.GetCF(cf.NewHandle(cfID, ""))
	if !ok {
		return cf.Handle{}, false
	}
	return data.Handle(), true
}
