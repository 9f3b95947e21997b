// Command tally runs ledger operations from the shell.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/gcsuploader"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/google/subcommands"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if log, err = logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid logging configuration")
	}
	ctx := logger.WithContext(context.Background(), log)

	e := &env{
		out:    os.Stdout,
		bucket: cfg.GCSBucket,
		open: func(ctx context.Context) (*app.Ledger, error) {
			return app.Open(ctx, cfg)
		},
		newUploader: func(ctx context.Context) (uploader, error) {
			u, err := gcsuploader.New(ctx)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
	}
	defer e.close()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(e) {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	status := commander.Execute(ctx)
	e.close()
	os.Exit(int(status))
}
