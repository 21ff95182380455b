package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lipl/internal/formatter"
	"github.com/desertthunder/lipl/internal/tasks"
	"github.com/desertthunder/lipl/internal/ui"
	"github.com/urfave/cli/v3"
)

// DBList prints the contents of a repository in the --format format.
func (r *Runner) DBList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.openRepository(ctx, r.source(cmd, "source"))
	if err != nil {
		return err
	}
	defer r.stopRepository(ctx, repo)

	dump, err := formatter.ReadDump(ctx, repo)
	if err != nil {
		return err
	}

	return formatter.WriteDump(r.output, dump, format)
}

// DBCopy copies everything from --source into --target.
func (r *Runner) DBCopy(ctx context.Context, cmd *cli.Command) error {
	sourceName, targetName := r.source(cmd, "source"), cmd.String("target")
	if sourceName == targetName {
		return fmt.Errorf("source and target are both %s", sourceName)
	}

	src, err := r.openRepository(ctx, sourceName)
	if err != nil {
		return err
	}
	defer r.stopRepository(ctx, src)

	dst, err := r.openRepository(ctx, targetName)
	if err != nil {
		return err
	}
	defer r.stopRepository(ctx, dst)

	useJSON := cmd.Bool("json")
	engine := tasks.NewEngine(cmd.Int("concurrency"), r.logger)

	var printer *ui.ProgressPrinter
	if !useJSON {
		printer = ui.NewProgressPrinter(r.output, r.painter, 100)
	}

	result, err := engine.Copy(ctx, updates(printer), src, dst)
	if printer != nil {
		printer.Close()
	}
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(result, true)
	}
	return r.writePlainln("%s %d lyrics and %d playlists to %s",
		r.painter.OK("Copied"), result.Lyrics, result.Playlists, targetName)
}

// updates is the channel of printer, or nil without one
func updates(printer *ui.ProgressPrinter) chan<- tasks.ProgressUpdate {
	if printer == nil {
		return nil
	}
	return printer.Updates()
}
