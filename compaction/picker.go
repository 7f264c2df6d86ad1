// Package compaction selects which level needs compacting, splits its
// input files into independently-mergeable key ranges, and executes each
// range as an SST-to-SST merge (spec.md §4.5/§4.6).
package compaction

import "github.com/ChinmayNoob/lsm-go/version"

// Picker scores every level by how far it has grown past its target size
// (or, for level 0, past its file-count trigger) and recommends the
// single worst-scoring level to compact next. Ported from the original
// engine's byte-size compaction picker rather than the teacher's
// merge-everything compactor.
type Picker struct {
	baseLevelSize     uint64
	levelMultiplier   uint64
	level0FileTrigger int
}

// DefaultBaseLevelSize is level 1's target size in bytes; level L's
// target is baseLevelSize * levelMultiplier^(L-1).
const DefaultBaseLevelSize uint64 = 10 * 1024 * 1024

// DefaultLevelMultiplier is the per-level size growth factor.
const DefaultLevelMultiplier uint64 = 10

// DefaultLevel0FileTrigger is the level-0 file count that scores 1.0.
const DefaultLevel0FileTrigger int = 4

// NewPicker builds a Picker with the engine's default tuning.
func NewPicker() *Picker {
	return &Picker{
		baseLevelSize:     DefaultBaseLevelSize,
		levelMultiplier:   DefaultLevelMultiplier,
		level0FileTrigger: DefaultLevel0FileTrigger,
	}
}

// TargetSizeForLevel returns the byte-size budget for level, or 0 for
// level 0 (which is scored by file count instead).
func (p *Picker) TargetSizeForLevel(level int) uint64 {
	if level <= 0 {
		return 0
	}
	target := p.baseLevelSize
	for i := 1; i < level; i++ {
		target *= p.levelMultiplier
	}
	return target
}

// ScoreForLevel returns how far over its trigger/target the level is:
// 1.0 means exactly at the trigger, >1.0 means compaction is due.
func (p *Picker) ScoreForLevel(v *version.Version, level int) float64 {
	if level == 0 {
		return float64(v.NumLevelFiles(0)) / float64(p.level0FileTrigger)
	}
	target := p.TargetSizeForLevel(level)
	if target == 0 {
		return 0
	}
	return float64(v.LevelSizeBytes(level)) / float64(target)
}

// AllScores returns the score for every level 0..NumLevels-1, useful for
// metrics and diagnostics.
func (p *Picker) AllScores(v *version.Version) []float64 {
	scores := make([]float64, version.NumLevels)
	for l := 0; l < version.NumLevels; l++ {
		scores[l] = p.ScoreForLevel(v, l)
	}
	return scores
}

// PickCompaction returns the level with the highest score, provided that
// score exceeds 1.0; it returns (-1, 0) when nothing needs compacting.
func (p *Picker) PickCompaction(v *version.Version) (level int, score float64) {
	best := -1
	bestScore := 1.0
	for l := 0; l < version.NumLevels-1; l++ {
		s := p.ScoreForLevel(v, l)
		if s > bestScore {
			bestScore = s
			best = l
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}
