package db

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/memtable"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/version"
	"github.com/ChinmayNoob/lsm-go/wal"
)

// Put writes key/value to the default column family.
func (d *DB) Put(key, value []byte) *status.Status {
	return d.PutCF(d.DefaultHandle(), key, value)
}

// Delete removes key from the default column family.
func (d *DB) Delete(key []byte) *status.Status {
	return d.DeleteCF(d.DefaultHandle(), key)
}

// Get reads key from the default column family.
func (d *DB) Get(key []byte) ([]byte, bool, *status.Status) {
	return d.GetCF(d.DefaultHandle(), key)
}

// PutCF writes key/value to the named column family, appending to the
// shared WAL before applying to the active memtable, then triggers a
// flush if the memtable has grown past its write-buffer size.
func (d *DB) PutCF(handle cf.Handle, key, value []byte) *status.Status {
	if len(key) == 0 {
		return status.InvalidArgumentf("db: empty key")
	}
	if d.closed.Load() {
		return status.ShutdownInProgressf("db is closed")
	}
	cfData, ok := d.cfs.GetCF(handle)
	if !ok {
		return status.NotFoundf("column family %q not found", handle.Name())
	}

	seq := cfData.NextSequence()
	if st := d.appendWAL(wal.OpPut, handle.ID(), seq, key, value); st != nil {
		return st
	}
	cfData.WriteToActive(func(mem *memtable.Memtable) { mem.Add(seq, key, value) })
	d.stat.RecordWrite(len(key), len(value))

	return d.maybeFlush(cfData)
}

// DeleteCF inserts a deletion tombstone for key in the named column
// family.
func (d *DB) DeleteCF(handle cf.Handle, key []byte) *status.Status {
	if len(key) == 0 {
		return status.InvalidArgumentf("db: empty key")
	}
	if d.closed.Load() {
		return status.ShutdownInProgressf("db is closed")
	}
	cfData, ok := d.cfs.GetCF(handle)
	if !ok {
		return status.NotFoundf("column family %q not found", handle.Name())
	}

	seq := cfData.NextSequence()
	if st := d.appendWAL(wal.OpDelete, handle.ID(), seq, key, nil); st != nil {
		return st
	}
	cfData.WriteToActive(func(mem *memtable.Memtable) { mem.Delete(seq, key) })
	d.stat.RecordDelete(len(key))

	return d.maybeFlush(cfData)
}

func (d *DB) appendWAL(op wal.OpType, cfID uint32, seq uint64, key, value []byte) *status.Status {
	payload, st := wal.EncodeMutation(op, cfID, seq, key, value)
	if st != nil {
		return st
	}
	d.walMu.Lock()
	defer d.walMu.Unlock()
	if st := d.wal.AddRecord(payload); st != nil {
		return st
	}
	d.stat.WALWrites.Add(1)
	d.stat.WALBytes.Add(uint64(len(payload)))
	if d.opts.SyncOnWrite {
		if st := d.wal.Sync(); st != nil {
			return st
		}
		d.stat.WALSyncs.Add(1)
	}
	return nil
}

// GetCF implements spec.md's layered lookup: active memtable, then
// immutable memtable (if a flush is in flight), then each level's SSTs
// from newest to oldest, stopping at the first hit (live value or
// tombstone).
func (d *DB) GetCF(handle cf.Handle, key []byte) ([]byte, bool, *status.Status) {
	if len(key) == 0 {
		return nil, false, status.InvalidArgumentf("db: empty key")
	}
	cfData, ok := d.cfs.GetCF(handle)
	if !ok {
		return nil, false, status.NotFoundf("column family %q not found", handle.Name())
	}

	if found, value, tomb := cfData.Mem().Get(key); found {
		d.stat.MemtableHits.Add(1)
		return d.finishGet(value, tomb)
	}
	if imm := cfData.Imm(); imm != nil {
		if found, value, tomb := imm.Get(key); found {
			d.stat.MemtableHits.Add(1)
			return d.finishGet(value, tomb)
		}
	}
	d.stat.MemtableMisses.Add(1)

	rt := d.runtimeFor(cfData)
	v := cfData.VersionSet().Current()

	for level := 0; level < version.NumLevels; level++ {
		candidates := levelCandidates(v, level, key)
		for i := len(candidates) - 1; i >= 0; i-- {
			value, isTomb, found, st := d.getFromFile(rt, candidates[i].Number, key)
			if st != nil {
				return nil, false, st
			}
			if found {
				return d.finishGet(value, isTomb)
			}
		}
	}
	d.stat.RecordRead(false, 0)
	return nil, false, nil
}

// levelCandidates returns the files at level that might hold key, in the
// order they should be consulted (first element checked last): level 0
// files overlap so every matching one must be tried, newest-appended
// first; level 1+ is disjoint so there is at most one candidate.
func levelCandidates(v *version.Version, level int, key []byte) []version.FileMetaData {
	if level == 0 {
		return v.OverlappingLevel0Files(key, key)
	}
	return v.OverlappingFiles(level, key, key)
}

func (d *DB) finishGet(value []byte, tombstone bool) ([]byte, bool, *status.Status) {
	if tombstone {
		d.stat.RecordRead(false, 0)
		return nil, false, nil
	}
	d.stat.RecordRead(true, len(value))
	return value, true, nil
}

// getFromFile opens fileNumber (through the per-CF table cache) and
// looks up key in it.
func (d *DB) getFromFile(rt *cfRuntime, fileNumber uint64, key []byte) (value []byte, isTombstone, found bool, st *status.Status) {
	h, err := rt.tableCache.Get(fileNumber)
	if err != nil {
		return nil, false, false, status.FromError(err)
	}
	defer rt.tableCache.Release(fileNumber)

	r := h.(*sstable.Reader)
	d.stat.SSTableReads.Add(1)
	if r.MayContain(key) {
		d.stat.BloomFilterChecked.Add(1)
	}
	return r.Get(key)
}
