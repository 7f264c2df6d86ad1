package db

import (
	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/compaction"
	"github.com/ChinmayNoob/lsm-go/status"
)

// LevelScores reports the compaction picker's current score for every
// level of handle's column family — >1.0 means that level is due for
// compaction. Useful for diagnostics and metrics without waiting for a
// write to trigger MaybeCompact.
func (d *DB) LevelScores(handle cf.Handle) ([]float64, *status.Status) {
	cfData, ok := d.cfs.GetCF(handle)
	if !ok {
		return nil, status.NotFoundf("column family %q not found", handle.Name())
	}
	picker := compaction.NewPicker()
	return picker.AllScores(cfData.VersionSet().Current()), nil
}
