package db

import (
	"path/filepath"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/version"
)

// maybeFlush rotates cfData's memtable to an SST when it has grown past
// its write-buffer size, then gives the column family's compaction
// executor a chance to run.
func (d *DB) maybeFlush(cfData *cf.Data) *status.Status {
	if cfData.ShouldFlush() {
		if st := d.flushCF(cfData); st != nil {
			return st
		}
	}
	rt := d.runtimeFor(cfData)
	if ran, st := rt.executor.MaybeCompact(); st != nil {
		return st
	} else if ran {
		d.stat.NumCompactions.Add(1)
	}
	return nil
}

// flushCF freezes the active memtable, writes it out as a new level-0
// SST, and installs it via a VersionEdit. A no-op if a flush is already
// in progress (MakeImmutable reports false).
func (d *DB) flushCF(cfData *cf.Data) *status.Status {
	if !cfData.MakeImmutable() {
		return nil
	}

	imm := cfData.Imm()
	entries := imm.CollectEntries()
	if len(entries) == 0 {
		cfData.ClearImmutable()
		return nil
	}

	fileNumber := cfData.VersionSet().NewFileNumber()
	path := filepath.Join(cfData.Dir(), sstable.FormatFilename(fileNumber))
	w, st := sstable.NewWriter(path, cfData.Options().WriterOptions())
	if st != nil {
		return st
	}

	for _, e := range entries {
		vt := ikey.TypeValue
		if e.Tombstone {
			vt = ikey.TypeDeletion
		}
		if st := w.Add(ikey.Encode(e.Key, e.Seq, vt), e.Value); st != nil {
			return st
		}
	}

	smallest, largest, fileSize, st := w.Finish()
	if st != nil {
		return st
	}

	edit := &version.VersionEdit{}
	edit.AddFile(0, version.FileMetaData{
		Number:   fileNumber,
		FileSize: fileSize,
		Smallest: smallest,
		Largest:  largest,
	})
	if st := cfData.VersionSet().LogAndApply(edit); st != nil {
		return st
	}

	cfData.ClearImmutable()
	d.stat.NumFlushes.Add(1)
	d.log.Debug().Str("cf", cfData.Name()).Uint64("file", fileNumber).Int("entries", len(entries)).Msg("flushed memtable")
	return nil
}
