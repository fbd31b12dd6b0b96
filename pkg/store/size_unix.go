//go:build unix

package store

import (
	"os"
	"syscall"
)

// allocated is the space actually backing fi, which for a sparse file is
// smaller than its length.
func allocated(fi os.FileInfo) int64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		blocks := int64(st.Blocks) * 512
		if blocks < fi.Size() {
			return blocks
		}
	}
	return fi.Size()
}
