//go:build !unix

package store

import "os"

func allocated(fi os.FileInfo) int64 { return fi.Size() }
