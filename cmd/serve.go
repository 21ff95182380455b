package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/lipl/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until SIGINT or SIGTERM. The server stops the repository on shutdown.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host, port := r.config.Server.Host, r.config.Server.Port
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	repo, err := r.openRepository(ctx, r.source(cmd, "source"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(repo, host, port, r.logger)
	r.logger.Info("serving", "repo", repo, "addr", srv.Addr())
	return srv.Run(ctx)
}
