package compaction

import (
	"bytes"
	"sort"

	"github.com/ChinmayNoob/lsm-go/version"
)

// KeyRange is an inclusive [Smallest, Largest] user-key bound.
type KeyRange struct {
	Smallest []byte
	Largest  []byte
}

// Contains reports whether key falls within the range.
func (kr KeyRange) Contains(key []byte) bool {
	return bytes.Compare(key, kr.Smallest) >= 0 && bytes.Compare(key, kr.Largest) <= 0
}

// Overlaps reports whether kr and other share any key.
func (kr KeyRange) Overlaps(other KeyRange) bool {
	return bytes.Compare(kr.Smallest, other.Largest) <= 0 && bytes.Compare(other.Smallest, kr.Largest) <= 0
}

// SubcompactionConfig tunes when and how a compaction's input files are
// split into independently-mergeable ranges so they can run in parallel.
type SubcompactionConfig struct {
	MinFileSize          uint64
	TargetSubcompactions int
	EnableParallel       bool
}

// DefaultSubcompactionConfig mirrors the original engine's tuning: don't
// bother splitting unless the input is at least 10MB, and otherwise aim
// for 4 parallel ranges.
func DefaultSubcompactionConfig() SubcompactionConfig {
	return SubcompactionConfig{
		MinFileSize:          10 * 1024 * 1024,
		TargetSubcompactions: 4,
		EnableParallel:       true,
	}
}

// ShouldUseSubcompaction reports whether totalSize warrants splitting.
func (c SubcompactionConfig) ShouldUseSubcompaction(totalSize uint64) bool {
	return c.EnableParallel && totalSize >= c.MinFileSize
}

// Subcompaction is one independently-mergeable slice of a level
// compaction: the files from the source level and the next level whose
// key ranges intersect Range.
type Subcompaction struct {
	Range          KeyRange
	LevelFiles     []version.FileMetaData
	NextLevelFiles []version.FileMetaData
}

// InputSize sums the file sizes of every input to this subcompaction.
func (s Subcompaction) InputSize() uint64 {
	var total uint64
	for _, f := range s.LevelFiles {
		total += f.FileSize
	}
	for _, f := range s.NextLevelFiles {
		total += f.FileSize
	}
	return total
}

// Planner splits a level compaction's input files into Subcompactions
// that can be merged independently and in parallel, grounded on the
// original engine's subcompaction planner.
type Planner struct {
	cfg SubcompactionConfig
}

// NewPlanner builds a Planner with cfg.
func NewPlanner(cfg SubcompactionConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan splits levelFiles/nextLevelFiles into Subcompactions. It returns a
// single Subcompaction spanning every input file when the total size is
// too small to bother splitting, or when splitting the key space yields
// fewer than two ranges.
func (p *Planner) Plan(levelFiles, nextLevelFiles []version.FileMetaData) []Subcompaction {
	var total uint64
	for _, f := range levelFiles {
		total += f.FileSize
	}
	for _, f := range nextLevelFiles {
		total += f.FileSize
	}

	whole := func() []Subcompaction {
		if len(levelFiles) == 0 && len(nextLevelFiles) == 0 {
			return nil
		}
		return []Subcompaction{{
			Range:          wholeRange(levelFiles, nextLevelFiles),
			LevelFiles:     levelFiles,
			NextLevelFiles: nextLevelFiles,
		}}
	}

	if !p.cfg.ShouldUseSubcompaction(total) {
		return whole()
	}

	ranges := p.splitKeyRanges(levelFiles, nextLevelFiles)
	if len(ranges) <= 1 {
		return whole()
	}

	subs := make([]Subcompaction, 0, len(ranges))
	for _, r := range ranges {
		subs = append(subs, Subcompaction{
			Range:          r,
			LevelFiles:     getOverlappingFiles(levelFiles, r),
			NextLevelFiles: getOverlappingFiles(nextLevelFiles, r),
		})
	}
	return subs
}

func wholeRange(levelFiles, nextLevelFiles []version.FileMetaData) KeyRange {
	var smallest, largest []byte
	consider := func(f version.FileMetaData) {
		if smallest == nil || bytes.Compare(f.Smallest, smallest) < 0 {
			smallest = f.Smallest
		}
		if largest == nil || bytes.Compare(f.Largest, largest) > 0 {
			largest = f.Largest
		}
	}
	for _, f := range levelFiles {
		consider(f)
	}
	for _, f := range nextLevelFiles {
		consider(f)
	}
	return KeyRange{Smallest: smallest, Largest: largest}
}

// splitKeyRanges collects every input file's smallest and largest key as
// a boundary, sorts and dedups them, then strides through the boundary
// list in roughly equal chunks to build non-overlapping KeyRanges, aiming
// for cfg.TargetSubcompactions ranges.
func (p *Planner) splitKeyRanges(levelFiles, nextLevelFiles []version.FileMetaData) []KeyRange {
	var boundaries [][]byte
	for _, f := range levelFiles {
		boundaries = append(boundaries, f.Smallest, f.Largest)
	}
	for _, f := range nextLevelFiles {
		boundaries = append(boundaries, f.Smallest, f.Largest)
	}
	if len(boundaries) == 0 {
		return nil
	}

	sort.Slice(boundaries, func(i, j int) bool { return bytes.Compare(boundaries[i], boundaries[j]) < 0 })
	deduped := boundaries[:1]
	for _, b := range boundaries[1:] {
		if !bytes.Equal(b, deduped[len(deduped)-1]) {
			deduped = append(deduped, b)
		}
	}

	target := p.cfg.TargetSubcompactions
	if target < 1 {
		target = 1
	}
	step := len(deduped) / target
	if step < 2 {
		step = 2
	}

	var ranges []KeyRange
	for i := 0; i < len(deduped); i += step {
		end := i + step - 1
		if end >= len(deduped) {
			end = len(deduped) - 1
		}
		ranges = append(ranges, KeyRange{Smallest: deduped[i], Largest: deduped[end]})
		if end == len(deduped)-1 {
			break
		}
	}
	return ranges
}

func getOverlappingFiles(files []version.FileMetaData, r KeyRange) []version.FileMetaData {
	var out []version.FileMetaData
	for _, f := range files {
		if r.Overlaps(KeyRange{Smallest: f.Smallest, Largest: f.Largest}) {
			out = append(out, f)
		}
	}
	return out
}
