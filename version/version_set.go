package version

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/wal"
)

const manifestFilename = "MANIFEST"

// VersionSet owns the chain of Versions for one column family: the
// current live Version, the MANIFEST (a WAL of VersionEdits) that
// persists every change, and that column family's own file-number/
// sequence-number counters (spec.md §4.5).
type VersionSet struct {
	dbPath string
	log    zerolog.Logger

	mu      sync.RWMutex
	current *Version

	nextFileNumber atomic.Uint64
	lastSequence   atomic.Uint64

	manifestMu sync.Mutex
	manifest   *wal.Writer
}

// NewVersionSet creates a VersionSet rooted at dbPath. Call OpenOrCreate
// before using it.
func NewVersionSet(dbPath string, logger zerolog.Logger) *VersionSet {
	vs := &VersionSet{dbPath: dbPath, log: logger, current: NewVersion()}
	vs.nextFileNumber.Store(1)
	return vs
}

// OpenOrCreate recovers from an existing MANIFEST, or writes a fresh one
// if none exists yet.
func (vs *VersionSet) OpenOrCreate() *status.Status {
	path := filepath.Join(vs.dbPath, manifestFilename)
	if _, err := os.Stat(path); err == nil {
		return vs.recoverFromManifest(path)
	}
	return vs.createNewManifest(path)
}

func (vs *VersionSet) recoverFromManifest(path string) *status.Status {
	reader, st := wal.OpenReader(path)
	if st != nil {
		return st
	}
	defer reader.Close()

	v := NewVersion()
	var nextFileNum uint64 = 1
	var lastSeq uint64

	for {
		record, st := reader.ReadRecord()
		if st != nil {
			return st
		}
		if record == nil {
			break
		}
		if len(record) == 0 {
			continue
		}
		edit, st := DecodeVersionEdit(record)
		if st != nil {
			return st
		}

		for _, nf := range edit.NewFiles() {
			v.AddFile(nf.Level, nf.Meta)
		}
		for _, df := range edit.DeletedFiles() {
			v.RemoveFile(df.Level, df.File)
		}
		if edit.HasNextFileNumber && edit.NextFileNumber > nextFileNum {
			nextFileNum = edit.NextFileNumber
		}
		if edit.HasLastSequence && edit.LastSequence > lastSeq {
			lastSeq = edit.LastSequence
		}
	}

	vs.mu.Lock()
	vs.current = v
	vs.mu.Unlock()
	vs.nextFileNumber.Store(nextFileNum)
	vs.lastSequence.Store(lastSeq)

	writer, st := wal.Open(path, vs.log)
	if st != nil {
		return st
	}
	vs.manifestMu.Lock()
	vs.manifest = writer
	vs.manifestMu.Unlock()
	return nil
}

func (vs *VersionSet) createNewManifest(path string) *status.Status {
	writer, st := wal.Open(path, vs.log)
	if st != nil {
		return st
	}
	vs.manifestMu.Lock()
	vs.manifest = writer
	vs.manifestMu.Unlock()

	edit := &VersionEdit{}
	edit.SetComparator("bytewise")
	edit.SetNextFileNumber(1)
	edit.SetLastSequence(0)
	return vs.LogAndApply(edit)
}

// LogAndApply durably appends edit to the MANIFEST and installs the
// Version that results from applying it on top of the current one.
func (vs *VersionSet) LogAndApply(edit *VersionEdit) *status.Status {
	if !edit.HasNextFileNumber {
		edit.SetNextFileNumber(vs.nextFileNumber.Load())
	}
	if !edit.HasLastSequence {
		edit.SetLastSequence(vs.lastSequence.Load())
	}

	vs.mu.RLock()
	newVersion := vs.current.Clone()
	vs.mu.RUnlock()

	for _, df := range edit.DeletedFiles() {
		newVersion.RemoveFile(df.Level, df.File)
	}
	for _, nf := range edit.NewFiles() {
		newVersion.AddFile(nf.Level, nf.Meta)
	}

	encoded := edit.Encode()
	vs.manifestMu.Lock()
	var st *status.Status
	if vs.manifest != nil {
		if st = vs.manifest.AddRecord(encoded); st == nil {
			st = vs.manifest.Sync()
		}
	}
	vs.manifestMu.Unlock()
	if st != nil {
		return st
	}

	vs.mu.Lock()
	vs.current = newVersion
	vs.mu.Unlock()

	if edit.HasNextFileNumber {
		vs.nextFileNumber.Store(edit.NextFileNumber)
	}
	if edit.HasLastSequence {
		vs.lastSequence.Store(edit.LastSequence)
	}
	return nil
}

// Current returns the live Version. Callers must treat it as immutable;
// LogAndApply installs a new Version rather than mutating this one.
func (vs *VersionSet) Current() *Version {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.current
}

// NewFileNumber allocates and returns the next unique file number.
func (vs *VersionSet) NewFileNumber() uint64 {
	return vs.nextFileNumber.Add(1) - 1
}

// LastSequence returns the in-memory last-sequence counter, which
// SetLastSequence may have advanced past what the MANIFEST records.
func (vs *VersionSet) LastSequence() uint64 { return vs.lastSequence.Load() }

// SetLastSequence advances the last-sequence counter in memory; callers
// still need LogAndApply (or an explicit manifest edit) to persist it.
func (vs *VersionSet) SetLastSequence(seq uint64) { vs.lastSequence.Store(seq) }

// Close flushes and closes the MANIFEST writer.
func (vs *VersionSet) Close() *status.Status {
	vs.manifestMu.Lock()
	defer vs.manifestMu.Unlock()
	if vs.manifest == nil {
		return nil
	}
	return vs.manifest.Close()
}
