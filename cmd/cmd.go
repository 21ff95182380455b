// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/lipl/internal/formatter"
	"github.com/urfave/cli/v3"
)

func sourceFlag(name, usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    name,
		Aliases: []string{string(name[0])},
		Usage:   usage + " (file:DIR, sqlite:PATH or postgres:DSN, defaults to storage.source)",
	}
}

// setupCommand creates the config file and prepares databases
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file or prepare a database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default configuration to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Run migrations for a SQL source",
				Flags: []cli.Flag{
					sourceFlag("source", "Database to migrate"),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// dbCommand inspects and copies repositories
func dbCommand(r *Runner) *cli.Command {
	formats := make([]string, 0, len(formatter.Formats))
	for _, f := range formatter.Formats {
		formats = append(formats, string(f))
	}

	return &cli.Command{
		Name:  "db",
		Usage: "Repository operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print every lyric and playlist",
				Flags: []cli.Flag{
					sourceFlag("source", "Repository to read"),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Output format (%s)", strings.Join(formats, ", ")),
						Value:   string(formatter.Text),
					},
				},
				Action: r.DBList,
			},
			{
				Name:  "copy",
				Usage: "Copy every lyric and then every playlist to another repository",
				Flags: []cli.Flag{
					sourceFlag("source", "Repository to read"),
					&cli.StringFlag{
						Name:     "target",
						Aliases:  []string{"t"},
						Usage:    "Repository to write (file:DIR, sqlite:PATH or postgres:DSN)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Parallel writes to the target",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
				Action: r.DBCopy,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a repository over HTTP until interrupted",
		Flags: []cli.Flag{
			sourceFlag("source", "Repository to serve"),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host, defaults to server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port, defaults to server.port",
			},
		},
		Action: r.Serve,
	}
}

// uploadCommand replaces the contents of a remote server with a directory of lyric files
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Delete everything on a server, then upload a directory of .txt lyrics and one playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "API root of the server, defaults to upload.prefix",
			},
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Directory with lyric files",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "playlist",
				Usage:    "Title of the playlist holding the uploaded lyrics",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Parallel uploads, defaults to upload.concurrency",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second, defaults to upload.rate_limit",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: r.Upload,
	}
}
