package txn

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
)

// DB is the slice of the DB facade that the txn package depends on. It is
// declared here, not imported from a db package, so that txn (which the
// DB facade itself embeds transactions from) never creates an import
// cycle with it — the reference implementation's transaction types hold
// an Arc<DB> directly because Rust's module system has no such cycle
// concern; Go's does.
type DB interface {
	PutCF(handle cf.Handle, key, value []byte) *status.Status
	DeleteCF(handle cf.Handle, key []byte) *status.Status
	GetCF(handle cf.Handle, key []byte) (value []byte, found bool, st *status.Status)
	DefaultHandle() cf.Handle
	CurrentSequence() uint64
}

// Apply writes every operation in the batch to db, in order. It stops and
// returns the first error encountered.
func Apply(db DB, handleOf func(cfID uint32) (cf.Handle, bool), batch *WriteBatch) *status.Status {
	for _, op := range batch.Ops() {
		handle, ok := handleOf(op.CFID)
		if !ok {
			return status.InvalidArgumentf("column family %d not found", op.CFID)
		}
		switch op.Kind {
		case OpPut:
			if st := db.PutCF(handle, op.Key, op.Value); st != nil {
				return st
			}
		case OpDelete:
			if st := db.DeleteCF(handle, op.Key); st != nil {
				return st
			}
		}
	}
	return nil
}
