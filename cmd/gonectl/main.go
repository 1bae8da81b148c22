package main

import (
	"context"
	"fmt"
	"os"

	"go_gone/internal/bootstrap"
	"go_gone/internal/logging"

	"github.com/urfave/cli/v3"
)

// Version is set during build using ldflags
var Version = "dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "gonectl",
		Version: Version,
		Usage:   "Manage 410 Gone patterns",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to INI configuration file (default: environment)",
				Aliases: []string{"c"},
				Sources: cli.EnvVars("GONE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			addCmd,
			listCmd,
			deleteCmd,
			bulkDeleteCmd,
			importCmd,
			checkCmd,
			convert404Cmd,
			userCmd,
		},
	}
}

// withApp opens the wired core for one command and closes it afterwards
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *bootstrap.App) error) error {
	return openApp(ctx, cmd, false, fn)
}

// withWriteApp is withApp for commands that flush the match cache
func withWriteApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *bootstrap.App) error) error {
	return openApp(ctx, cmd, true, fn)
}

func openApp(ctx context.Context, cmd *cli.Command, write bool, fn func(context.Context, *bootstrap.App) error) error {
	cfg, err := bootstrap.LoadConfig(cmd.Root().String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if write {
		if err := bootstrap.RequireSharedCache(cfg); err != nil {
			return err
		}
	}

	// Keep stdout for command output.
	logger := logging.NewWithOutput(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	app, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}
