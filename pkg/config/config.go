// Package config is the settings of a localstr cache, loadable from the
// command line and from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/go-playground/validator/v10"
)

var log, chk = slog.New(os.Stderr)

// ErrConfigInvalid is wrapped around every validation failure.
var ErrConfigInvalid = errors.New("invalid configuration")

const (
	BackendBadger     = "badger"
	BackendEventstore = "eventstore"
)

var validate = validator.New()

type C struct {
	// Backend selects the record store engine.
	Backend string `arg:"-b,--backend" json:"backend" validate:"oneof=badger eventstore" help:"event store backend [badger,eventstore]"`
	// DBPath is the store directory. Empty means the user cache directory.
	DBPath string `arg:"-d,--dbpath" json:"db_path" help:"directory of the event store (default <user cache dir>/localstr)"`
	// MaxSizeMB is the size cap the governor keeps the store under, in
	// mebibytes.
	MaxSizeMB int `arg:"-m,--maxsize" json:"max_size_mb" validate:"gt=0" help:"size cap of the event store in megabytes"`
	// EnableFTS is advisory, content search is a substring match in both
	// backends.
	EnableFTS bool `arg:"--fts" json:"enable_fts" help:"enable full text search"`
	// QueueSize is the capacity of the ingestion ring, the oldest queued
	// event is evicted when it is full.
	QueueSize int `arg:"-q,--queuesize" json:"queue_size" validate:"gt=0" help:"capacity of the ingestion queue"`
	// PruneInterval is the time between governor passes.
	PruneInterval time.Duration `arg:"--pruneinterval" json:"prune_interval" validate:"gt=0" help:"time between size governor passes"`
	// PruneDelay is the wait before the first governor pass after start.
	PruneDelay time.Duration `arg:"--prunedelay" json:"prune_delay" validate:"gte=0" help:"wait before the first size governor pass"`
	LogLevel   string        `arg:"--loglevel" json:"log_level" validate:"omitempty,oneof=off fatal error warn info debug trace" help:"set log level [off,fatal,error,warn,info,debug,trace] (can also use LOCALSTR_LOG environment variable)"`
}

func GetDefaultConfig() *C {
	return &C{
		Backend:       BackendBadger,
		MaxSizeMB:     4096,
		QueueSize:     2000,
		PruneInterval: 6 * time.Hour,
		PruneDelay:    30 * time.Second,
		LogLevel:      "info",
	}
}

// Validate checks every field, failures are returned wrapping
// ErrConfigInvalid.
func (c *C) Validate() (err error) {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrConfigInvalid)
	}
	if err = validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrConfigInvalid,
				ve[0].Field(), ve[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return
}

func (c *C) Save(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot save nil config")
		log.E.Ln(err)
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(c, "", "    "); chk.E(err) {
		return
	}
	if err = os.WriteFile(filename, b, 0600); chk.E(err) {
		return
	}
	return
}

func (c *C) Load(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot load into nil config")
		chk.E(err)
		return
	}
	var b []byte
	if b, err = os.ReadFile(filename); chk.E(err) {
		return
	}
	if err = json.Unmarshal(b, c); chk.E(err) {
		return
	}
	return
}
