package main

import (
	"context"
	"os"

	"github.com/desertthunder/lipl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lipl",
		Usage:   "Store lyrics and playlists in files or a database and serve them over HTTP",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}
