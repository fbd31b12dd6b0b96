package badger

import (
	"fmt"
	"strings"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
)

// logger forwards badger's internal messages to slog.
type logger struct {
	Level int
	Label string
}

func (l logger) Errorf(s string, i ...interface{}) {
	if l.Level >= slog.Error {
		log.E.Ln(l.format(s, i...))
	}
}

func (l logger) Warningf(s string, i ...interface{}) {
	if l.Level >= slog.Warn {
		log.W.Ln(l.format(s, i...))
	}
}

func (l logger) Infof(s string, i ...interface{}) {
	if l.Level >= slog.Info {
		log.I.Ln(l.format(s, i...))
	}
}

func (l logger) Debugf(s string, i ...interface{}) {
	if l.Level >= slog.Debug {
		log.D.Ln(l.format(s, i...))
	}
}

func (l logger) format(s string, i ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(l.Label+": "+s, i...))
}
