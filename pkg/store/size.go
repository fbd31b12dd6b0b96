package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Hubmakerlabs/localstr/pkg/units"
)

// DirSize returns the bytes allocated on disk by the regular files under path.
//
// Engines preallocate sparse files (memory mapped logs and tables), so the
// allocated block count is used where the platform reports it rather than the
// apparent length. A missing directory has size zero.
func DirSize(path string) (total int64, err error) {
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// files can vanish during compaction
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		var fi os.FileInfo
		if fi, err = d.Info(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += allocated(fi)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	return
}

// DirSizeMB is DirSize in MiB. Errors are logged and read as zero.
func DirSizeMB(path string) float64 {
	if path == "" {
		return 0
	}
	n, err := DirSize(path)
	if chk.E(err) {
		return 0
	}
	return float64(n) / units.Mebibyte
}
