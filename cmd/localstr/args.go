package main

import (
	"github.com/Hubmakerlabs/localstr/pkg/config"
)

type InitCfgCmd struct{}

type StatsCmd struct{}

type ImportCmd struct {
	FromFile  []string `arg:"-f,--fromfile,separate" help:"read from files instead of stdin (can use flag repeatedly for multiple files)"`
	CheckSig  bool     `arg:"--checksig" help:"also verify event signatures"`
	BatchSize int      `arg:"--batch" default:"500" help:"number of events written per batch"`
}

type ExportCmd struct {
	ToFile string `arg:"-f,--tofile" help:"write to file instead of stdout"`
	Kinds  []int  `arg:"-k,--kind,separate" help:"only export these kinds (can use flag repeatedly)"`
}

type PruneCmd struct{}

type WipeCmd struct {
	Yes bool `arg:"-y,--yes" help:"confirm deleting every stored event"`
}

type Args struct {
	InitCfg *InitCfgCmd `arg:"subcommand:initcfg" help:"write the configuration to the config file"`
	Stats   *StatsCmd   `arg:"subcommand:stats" help:"print store size and event counts per bucket"`
	Import  *ImportCmd  `arg:"subcommand:import" help:"import events from line structured JSON"`
	Export  *ExportCmd  `arg:"subcommand:export" help:"export events as line structured JSON"`
	Prune   *PruneCmd   `arg:"subcommand:prune" help:"run one size governor pass"`
	Wipe    *WipeCmd    `arg:"subcommand:wipe" help:"delete every stored event"`
	// ConfigFile is loaded before the flags are applied over it.
	ConfigFile string `arg:"-c,--config" help:"JSON configuration file"`
	config.C
}

func (Args) Description() string {
	return "localstr manages a capacity governed local nostr event cache"
}
