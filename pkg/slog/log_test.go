package slog_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, chk := slog.New(&buf)
	defer slog.SetLogLevel(slog.GetLogLevel())
	slog.SetLogLevel(slog.Warn)
	log.I.Ln("hidden info")
	log.D.F("hidden %s", "debug")
	log.W.Ln("shown warning")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("printed below level:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown warning") {
		t.Fatalf("warning not printed:\n%s", buf.String())
	}
	// checks report errors regardless of whether they are printed
	if !chk.D(errors.New("dummy")) {
		t.Fatal("chk.D returned false for a non-nil error")
	}
	if chk.E(nil) {
		t.Fatal("chk.E returned true for nil")
	}
	if err := log.T.Err("format %d", 5); err == nil || err.Error() != "format 5" {
		t.Fatalf("unexpected error from Err: %v", err)
	}
}

func TestSetLogLevelString(t *testing.T) {
	defer slog.SetLogLevel(slog.GetLogLevel())
	for in, want := range map[string]int{
		"trace": slog.Trace,
		"d":     slog.Debug,
		"WARN":  slog.Warn,
		"off":   slog.Off,
		"1":     slog.Debug,
		"bogus": slog.Info,
	} {
		slog.SetLogLevelString(in)
		if got := slog.GetLogLevel(); got != want {
			t.Errorf("%q: got level %d expected %d", in, got, want)
		}
	}
}
