package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/backend"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/desertthunder/lipl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	painter    ui.Painter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Painter    ui.Painter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Painter == nil {
		opts.Painter = ui.Styles()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		painter:    opts.Painter,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, dbCommand, serveCommand, uploadCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the config file named by --config when it exists and applies --log-level.
//
// A missing file keeps the defaults so commands work before "setup config" was run.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			if err := config.Validate(); err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", r.configPath)
		}
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.SetLogLevelString(r.logger, level); err != nil {
		return ctx, err
	}

	return ctx, nil
}

// source returns the value of the named flag, falling back to storage.source
func (r *Runner) source(cmd *cli.Command, flag string) string {
	if s := cmd.String(flag); s != "" {
		return s
	}
	return r.config.Storage.Source
}

// openRepository opens the backend named by source
func (r *Runner) openRepository(ctx context.Context, source string) (models.Repository, error) {
	repo, err := backend.Open(ctx, source, r.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return repo, nil
}

// stopRepository stops repo and logs failures; commands have already produced their output
func (r *Runner) stopRepository(ctx context.Context, repo models.Repository) {
	if err := repo.Stop(context.WithoutCancel(ctx)); err != nil {
		r.logger.Warn("failed to stop repository", "repo", repo, "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
