package db

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/iterator"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/version"
)

// Iterator walks a column family's live, deduplicated, tombstone-free
// entries in ascending key order. Callers must call Close when done so
// the SST readers it opened through the table cache are released.
type Iterator struct {
	*iterator.MergingIterator
	closers []func()
}

// Close releases every SST reader this iterator acquired.
func (it *Iterator) Close() {
	for _, c := range it.closers {
		c()
	}
}

// NewIter returns an Iterator over the default column family.
func (d *DB) NewIter() (*Iterator, *status.Status) {
	return d.NewIterCF(d.DefaultHandle())
}

// NewIterCF returns an Iterator over handle's column family: its active
// memtable, its immutable memtable (if a flush is in flight), and every
// level's live SSTs, newest first so the merging iterator's tie-break
// (lower source index wins) prefers fresher data.
func (d *DB) NewIterCF(handle cf.Handle) (*Iterator, *status.Status) {
	cfData, ok := d.cfs.GetCF(handle)
	if !ok {
		return nil, status.NotFoundf("column family %q not found", handle.Name())
	}

	var sources []iterator.Source
	var closers []func()

	sources = append(sources, cfData.Mem().NewIterator())
	if imm := cfData.Imm(); imm != nil {
		sources = append(sources, imm.NewIterator())
	}

	rt := d.runtimeFor(cfData)
	v := cfData.VersionSet().Current()

	level0 := v.Files(0)
	for i := len(level0) - 1; i >= 0; i-- {
		src, closer, st := d.openIterSource(rt, level0[i].Number)
		if st != nil {
			for _, c := range closers {
				c()
			}
			return nil, st
		}
		sources = append(sources, src)
		closers = append(closers, closer)
	}

	for level := 1; level < version.NumLevels; level++ {
		for _, f := range v.Files(level) {
			src, closer, st := d.openIterSource(rt, f.Number)
			if st != nil {
				for _, c := range closers {
					c()
				}
				return nil, st
			}
			sources = append(sources, src)
			closers = append(closers, closer)
		}
	}

	mi := iterator.New(sources)
	return &Iterator{MergingIterator: mi, closers: closers}, nil
}

func (d *DB) openIterSource(rt *cfRuntime, fileNumber uint64) (iterator.Source, func(), *status.Status) {
	h, err := rt.tableCache.Get(fileNumber)
	if err != nil {
		return nil, nil, status.FromError(err)
	}
	r := h.(*sstable.Reader)
	closer := func() { rt.tableCache.Release(fileNumber) }
	return r.NewIterator(), closer, nil
}
