package store

import (
	"os"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
)

var log, chk = slog.New(os.Stderr)
