package compaction

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/version"
)

// Executor runs the compactions a Picker/Planner select: it opens the
// input SSTs, merges each Subcompaction independently (in parallel, via
// errgroup, when the planner produced more than one), writes fresh output
// SSTs, and installs the resulting VersionEdit.
type Executor struct {
	sstDir     string
	vs         *version.VersionSet
	picker     *Picker
	planner    *Planner
	writerOpts sstable.WriterOptions
	log        zerolog.Logger
}

// NewExecutor builds an Executor rooted at sstDir, applying edits to vs.
func NewExecutor(sstDir string, vs *version.VersionSet, picker *Picker, planner *Planner, writerOpts sstable.WriterOptions, logger zerolog.Logger) *Executor {
	return &Executor{sstDir: sstDir, vs: vs, picker: picker, planner: planner, writerOpts: writerOpts, log: logger}
}

// MaybeCompact picks the worst-scoring level, if any needs it, and runs
// one compaction round. It is a no-op (returns false, nil) when nothing
// is due.
func (e *Executor) MaybeCompact() (ran bool, st *status.Status) {
	v := e.vs.Current()
	level, score := e.picker.PickCompaction(v)
	if level < 0 {
		return false, nil
	}
	e.log.Debug().Int("level", level).Float64("score", score).Msg("compaction due")
	return true, e.compactLevel(v, level)
}

// compactLevel merges level's files with the next level's overlapping
// files, writing the result into the next level.
func (e *Executor) compactLevel(v *version.Version, level int) *status.Status {
	levelFiles := v.Files(level)
	if len(levelFiles) == 0 {
		return nil
	}
	smallest, largest := keyRangeOf(levelFiles)
	nextLevel := level + 1
	nextLevelFiles := v.OverlappingFiles(nextLevel, smallest, largest)

	subs := e.planner.Plan(levelFiles, nextLevelFiles)
	if len(subs) == 0 {
		return nil
	}

	dropTombstones := nextLevel == version.NumLevels-1

	results := make([]*version.FileMetaData, len(subs))
	var mu sync.Mutex
	g := new(errgroup.Group)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			meta, st := e.executeSubcompaction(sub, nextLevel, dropTombstones)
			if st != nil {
				return st
			}
			mu.Lock()
			results[i] = meta
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if st, ok := err.(*status.Status); ok {
			return st
		}
		return status.Wrap(err, "subcompaction")
	}

	edit := &version.VersionEdit{}
	for _, f := range levelFiles {
		edit.DeleteFile(level, f.Number)
	}
	for _, f := range nextLevelFiles {
		edit.DeleteFile(nextLevel, f.Number)
	}
	for _, meta := range results {
		if meta == nil {
			continue
		}
		edit.AddFile(nextLevel, *meta)
	}
	if st := e.vs.LogAndApply(edit); st != nil {
		return st
	}

	for _, f := range levelFiles {
		_ = os.Remove(filepath.Join(e.sstDir, sstable.FormatFilename(f.Number)))
	}
	for _, f := range nextLevelFiles {
		_ = os.Remove(filepath.Join(e.sstDir, sstable.FormatFilename(f.Number)))
	}
	return nil
}

// executeSubcompaction merges sub's input files — level files, then
// next-level files; the merge keeps each user key's highest-sequence
// entry whatever the source order — into a single new SST at nextLevel. A file that
// straddles two adjacent subcompaction ranges is part of both subs'
// input lists (see getOverlappingFiles), so the merged output is
// filtered down to sub.Range before writing — otherwise two parallel
// subcompactions would each emit the boundary file's off-range entries,
// producing overlapping/duplicate keys at nextLevel.
func (e *Executor) executeSubcompaction(sub Subcompaction, nextLevel int, dropTombstones bool) (*version.FileMetaData, *status.Status) {
	readers := make([]*sstable.Reader, 0, len(sub.LevelFiles)+len(sub.NextLevelFiles))
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()

	for _, f := range sub.LevelFiles {
		r, st := sstable.Open(filepath.Join(e.sstDir, sstable.FormatFilename(f.Number)), f.Number)
		if st != nil {
			return nil, st
		}
		readers = append(readers, r)
	}
	for _, f := range sub.NextLevelFiles {
		r, st := sstable.Open(filepath.Join(e.sstDir, sstable.FormatFilename(f.Number)), f.Number)
		if st != nil {
			return nil, st
		}
		readers = append(readers, r)
	}

	merged, st := mergeIterators(readers)
	if st != nil {
		return nil, st
	}
	if len(merged) == 0 {
		return nil, nil
	}

	outNumber := e.vs.NewFileNumber()
	outPath := filepath.Join(e.sstDir, sstable.FormatFilename(outNumber))
	w, st := sstable.NewWriter(outPath, e.writerOpts)
	if st != nil {
		return nil, st
	}

	wrote := false
	for _, entry := range merged {
		if !sub.Range.Contains(ikey.UserKey(entry.key)) {
			continue
		}
		if dropTombstones && ikey.IsDeletion(entry.key) {
			continue
		}
		if st := w.Add(entry.key, entry.value); st != nil {
			return nil, st
		}
		wrote = true
	}
	if !wrote {
		_ = os.Remove(outPath)
		return nil, nil
	}

	smallest, largest, fileSize, st := w.Finish()
	if st != nil {
		return nil, st
	}
	e.log.Debug().Uint64("file", outNumber).Int("level", nextLevel).Int("entries", w.NumEntries()).Msg("compaction output")

	return &version.FileMetaData{
		Number:   outNumber,
		FileSize: fileSize,
		Smallest: smallest,
		Largest:  largest,
	}, nil
}

func keyRangeOf(files []version.FileMetaData) (smallest, largest []byte) {
	for i, f := range files {
		if i == 0 || lessBytes(f.Smallest, smallest) {
			smallest = f.Smallest
		}
		if i == 0 || lessBytes(largest, f.Largest) {
			largest = f.Largest
		}
	}
	return smallest, largest
}

func lessBytes(a, b []byte) bool {
	return string(a) < string(b)
}
