package main

import (
	"context"
	"errors"
	"os"

	"github.com/Hubmakerlabs/localstr/pkg/config"
	"github.com/Hubmakerlabs/localstr/pkg/ingest"
	"github.com/Hubmakerlabs/localstr/pkg/interrupt"
	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/alexflint/go-arg"
)

var log, chk = slog.New(os.Stderr)

func main() {
	args := Args{C: *config.GetDefaultConfig()}
	p := arg.MustParse(&args)
	if args.ConfigFile != "" {
		cfg := config.GetDefaultConfig()
		if err := cfg.Load(args.ConfigFile); err != nil &&
			!(errors.Is(err, os.ErrNotExist) && args.InitCfg != nil) {
			p.Fail(err.Error())
		}
		// flags given on the command line win over the file
		args.C = *cfg
		arg.MustParse(&args)
	}
	if args.LogLevel != "" {
		slog.SetLogLevelString(args.LogLevel)
	}
	log.T.S(args)
	if err := args.C.Validate(); err != nil {
		p.Fail(err.Error())
	}
	if p.Subcommand() == nil {
		p.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	if args.InitCfg != nil {
		if args.ConfigFile == "" {
			p.Fail("initcfg needs --config")
		}
		if chk.E(args.C.Save(args.ConfigFile)) {
			os.Exit(1)
		}
		log.I.Ln("configuration written to", args.ConfigFile)
		return
	}
	if err := run(&args); err != nil {
		log.E.Ln(err)
		os.Exit(1)
	}
}

func run(args *Args) (err error) {
	c, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt.AddHandler(cancel)
	var st store.I
	if st, err = ingest.NewStore(args.Backend); err != nil {
		return
	}
	path := ingest.ResolvePath(&args.C, "")
	if err = st.Open(path); err != nil {
		return
	}
	defer func() { chk.E(st.Close()) }()
	switch {
	case args.Stats != nil:
		err = Stats(c, st, args.MaxSizeMB, os.Stdout)
	case args.Import != nil:
		err = Import(c, st, args.Import)
	case args.Export != nil:
		err = Export(c, st, args.Export)
	case args.Prune != nil:
		err = Prune(c, st, args.MaxSizeMB, os.Stdout)
	case args.Wipe != nil:
		if !args.Wipe.Yes {
			return errors.New("wipe needs --yes")
		}
		if err = st.Wipe(); err == nil {
			log.I.Ln("wiped", path)
		}
	}
	if interrupt.Requested() {
		log.W.Ln("interrupted")
	}
	return
}
