package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/sstable"
	"github.com/ChinmayNoob/lsm-go/status"
	"github.com/ChinmayNoob/lsm-go/version"
)

// Checkpoint copies the DB's on-disk state — every column family's SSTs
// as listed by its current Version, its MANIFEST, and the shared WAL —
// into destDir, without blocking writes. Compaction removes its input
// files as soon as it installs the new Version, so a compaction that runs
// during the copy can remove a listed SST; Checkpoint then returns an
// error for that file.
func (d *DB) Checkpoint(destDir string) *status.Status {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return status.Wrap(err, "create checkpoint dir %s", destDir)
	}

	var failure *status.Status
	d.cfs.Each(func(data *cf.Data) {
		if failure != nil {
			return
		}
		cfDestDir := filepath.Join(destDir, "cf-"+data.Name())
		if err := os.MkdirAll(cfDestDir, 0o755); err != nil {
			failure = status.Wrap(err, "create checkpoint cf dir %s", cfDestDir)
			return
		}

		v := data.VersionSet().Current()
		for level := 0; level < version.NumLevels; level++ {
			for _, f := range v.Files(level) {
				name := sstable.FormatFilename(f.Number)
				if err := copyFileChecked(filepath.Join(data.Dir(), name), filepath.Join(cfDestDir, name)); err != nil {
					failure = status.Wrap(err, "checkpoint sst %s/%s", data.Name(), name)
					return
				}
			}
		}

		if err := copyFileChecked(filepath.Join(data.Dir(), "MANIFEST"), filepath.Join(cfDestDir, "MANIFEST")); err != nil {
			failure = status.Wrap(err, "checkpoint manifest for %s", data.Name())
		}
	})
	if failure != nil {
		return failure
	}

	walSrc := filepath.Join(d.opts.Dir, walFilename)
	if _, err := os.Stat(walSrc); err == nil {
		if err := copyFileChecked(walSrc, filepath.Join(destDir, walFilename)); err != nil {
			return status.Wrap(err, "checkpoint wal")
		}
	}
	return nil
}

// copyFileChecked copies src to dst and verifies the copy with an
// xxhash digest of both, catching silent truncation/corruption rather
// than trusting the write syscall's return value alone.
func copyFileChecked(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	written, err := os.ReadFile(dst)
	if err != nil {
		return err
	}
	if xxhash.Sum64(data) != xxhash.Sum64(written) {
		return fmt.Errorf("checkpoint: copy of %s did not verify", src)
	}
	return nil
}
