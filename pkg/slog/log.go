// Package slog is a leveled terminal logger with code locations, colored level
// tags and a set of error check shortcuts.
//
// Each package declares its own printers:
//
//	var log, chk = slog.New(os.Stderr)
//
// and then logs with log.I.Ln(...), log.D.F(...) and checks errors inline with
// `if err = f(); chk.E(err) { ... }`.
package slog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gookit/color"
)

const (
	Off = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

// EnvVar selects the starting log level, same names as SetLogLevelString.
const EnvVar = "LOCALSTR_LOG"

type (
	// Ln prints lists of interfaces with spaces in between
	Ln func(a ...interface{})
	// F prints like fmt.Printf surrounded by log details
	F func(format string, a ...interface{})
	// S prints a spew.Sdump for an interface slice
	S func(a ...interface{})
	// C accepts a function so that the extra computation can be avoided if it
	// is not being viewed
	C func(closure func() string)
	// Chk is a shortcut for printing if there is an error, or returning true
	Chk func(e error) bool
	// Err is a pass-through function that uses fmt.Errorf to construct an
	// error and returns the error after printing it to the log
	Err func(format string, a ...interface{}) error

	// LevelPrinter is the set of printing primitives for one level.
	LevelPrinter struct {
		Ln
		F
		S
		C
		Chk
		Err
	}

	LevelSpec struct {
		ID        int
		Name      string
		Colorizer func(a ...interface{}) string
	}
)

var (
	currentLevel atomic.Int32
	writerMx     sync.Mutex
	// LevelSpecs specifies the id, string name and color-printing function
	LevelSpecs = []LevelSpec{
		{Off, "   ", color.Bit24(0, 0, 0, false).Sprint},
		{Fatal, "FTL", color.Bit24(128, 0, 0, false).Sprint},
		{Error, "ERR", color.Bit24(255, 0, 0, false).Sprint},
		{Warn, "WRN", color.Bit24(0, 255, 0, false).Sprint},
		{Info, "INF", color.Bit24(255, 255, 0, false).Sprint},
		{Debug, "DBG", color.Bit24(0, 125, 255, false).Sprint},
		{Trace, "TRC", color.Bit24(125, 0, 255, false).Sprint},
	}
	levelNames = map[string]int{
		"off":   Off,
		"fatal": Fatal,
		"error": Error,
		"warn":  Warn,
		"info":  Info,
		"debug": Debug,
		"trace": Trace,
	}
)

func init() {
	currentLevel.Store(Info)
	if v := os.Getenv(EnvVar); v != "" {
		SetLogLevelString(v)
	}
}

// Log is a set of log printers for the various Level items.
type Log struct {
	F, E, W, I, D, T LevelPrinter
}

// Check is the set of error check shortcuts matching Log.
type Check struct {
	F, E, W, I, D, T Chk
}

func New(writer io.Writer) (l *Log, c *Check) {
	l = &Log{
		F: GetPrinter(Fatal, writer),
		E: GetPrinter(Error, writer),
		W: GetPrinter(Warn, writer),
		I: GetPrinter(Info, writer),
		D: GetPrinter(Debug, writer),
		T: GetPrinter(Trace, writer),
	}
	c = &Check{
		F: l.F.Chk,
		E: l.E.Chk,
		W: l.W.Chk,
		I: l.I.Chk,
		D: l.D.Chk,
		T: l.T.Chk,
	}
	return
}

func GetStd() (ll *Log) {
	ll, _ = New(os.Stderr)
	return
}

// SetLogLevel sets the most verbose level that will be printed.
func SetLogLevel(l int) {
	if l < Off {
		l = Off
	}
	if l > Trace {
		l = Trace
	}
	currentLevel.Store(int32(l))
}

// SetLogLevelString sets the level by name. Names may be truncated down to one
// character as the first letters are unique. Unknown names select Info.
func SetLogLevelString(s string) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1", "true", "on":
		SetLogLevel(Debug)
		return
	case "0", "false":
		SetLogLevel(Off)
		return
	}
	for name, lvl := range levelNames {
		if s != "" && strings.HasPrefix(name, s) {
			SetLogLevel(lvl)
			return
		}
	}
	SetLogLevel(Info)
}

func GetLogLevel() (l int) { return int(currentLevel.Load()) }

func enabled(l int32) bool { return l <= currentLevel.Load() }

func JoinStrings(a ...any) (s string) {
	for i := range a {
		s += fmt.Sprint(a[i])
		if i < len(a)-1 {
			s += " "
		}
	}
	return
}

func write(writer io.Writer, l int32, txt string) {
	writerMx.Lock()
	defer writerMx.Unlock()
	fmt.Fprintf(writer,
		"%s %s %s %s\n",
		time.Now().Format("15:04:05.000"),
		LevelSpecs[l].Colorizer(LevelSpecs[l].Name),
		txt,
		GetLoc(3),
	)
}

func GetPrinter(l int32, writer io.Writer) LevelPrinter {
	return LevelPrinter{
		Ln: func(a ...interface{}) {
			if enabled(l) {
				write(writer, l, JoinStrings(a...))
			}
		},
		F: func(format string, a ...interface{}) {
			if enabled(l) {
				write(writer, l, fmt.Sprintf(format, a...))
			}
		},
		S: func(a ...interface{}) {
			if enabled(l) {
				write(writer, l, spew.Sdump(a...))
			}
		},
		C: func(closure func() string) {
			if enabled(l) {
				write(writer, l, closure())
			}
		},
		Chk: func(e error) bool {
			if e != nil {
				if enabled(l) {
					write(writer, l, e.Error())
				}
				return true
			}
			return false
		},
		Err: func(format string, a ...interface{}) error {
			err := fmt.Errorf(format, a...)
			if enabled(l) {
				write(writer, l, err.Error())
			}
			return err
		},
	}
}

// GetLoc returns the file:line of the caller skip frames up.
func GetLoc(skip int) (output string) {
	_, file, line, _ := runtime.Caller(skip)
	output = color.Bit24(0, 128, 255, false).Sprint(
		file, ":", line,
	)
	return
}
