package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lipl/internal/services"
	"github.com/desertthunder/lipl/internal/tasks"
	"github.com/desertthunder/lipl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Upload resets the server at --prefix to the lyric files in --dir and one playlist holding them.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Upload

	prefix := cfg.Prefix
	if cmd.IsSet("prefix") {
		prefix = cmd.String("prefix")
	}
	concurrency := cfg.Concurrency
	if cmd.IsSet("concurrency") {
		concurrency = cmd.Int("concurrency")
	}
	perSecond := cfg.RateLimit
	if cmd.IsSet("rate") {
		perSecond = cmd.Float("rate")
	}

	client := services.NewClient(prefix, r.httpClient, services.NewRateLimiter(perSecond, concurrency))
	engine := tasks.NewEngine(concurrency, r.logger)

	useJSON := cmd.Bool("json")
	var printer *ui.ProgressPrinter
	if !useJSON {
		printer = ui.NewProgressPrinter(r.output, r.painter, 100)
	}

	r.logger.Info("uploading", "dir", cmd.String("dir"), "prefix", prefix)
	result, err := engine.Upload(ctx, updates(printer), client, cmd.String("dir"), cmd.String("playlist"))
	if printer != nil {
		printer.Close()
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(result, true)
	}
	return r.writePlainln("%s %d lyrics into playlist %q (%s)",
		r.painter.OK("Uploaded"), len(result.Lyrics), result.Playlist.Title, result.Playlist.ID)
}
