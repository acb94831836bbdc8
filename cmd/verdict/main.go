// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/verdict"
	"github.com/poiesic/verdict/config"
	"github.com/urfave/cli/v2"
)

// openWorkspace is replaced in tests.
var openWorkspace = func(ctx context.Context, cfg *config.Config) (*verdict.Workspace, error) {
	return verdict.Open(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func collectionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "collection",
		Aliases: []string{"c"},
		Usage:   "Target collection (overrides collection.name)",
	}
}

func chunkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Window size in chunk units",
		},
		&cli.IntFlag{
			Name:  "overlap",
			Usage: "Units shared by consecutive windows",
		},
		&cli.StringFlag{
			Name:  "chunk-unit",
			Usage: "Unit for chunk size and overlap (words, chars)",
		},
		&cli.IntFlag{
			Name:  "min-length",
			Usage: "Drop windows shorter than this many characters",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "verdict",
		Usage: "Ingest court judgments into a vector database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the YAML configuration file",
				Value: "verdict.yaml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with secrets",
				Value: ".env",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract, chunk, embed and upsert every judgment in a directory",
				Action:    ingestCommand,
				ArgsUsage: " ",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Directory containing judgment files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob matched against file names (default from config, *.pdf)",
					},
					collectionFlag(),
					&cli.BoolFlag{
						Name:  "destructive",
						Usage: "Drop and recreate the collection first",
					},
					&cli.BoolFlag{
						Name:  "skip-ingested",
						Usage: "Skip documents already recorded for the collection",
					},
					&cli.StringFlag{
						Name:  "case-type",
						Usage: "Only ingest judgments whose case type contains this text (e.g. civil)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Records per upsert request",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Retries per batch after the first attempt",
					},
					&cli.DurationFlag{
						Name:  "retry-unit",
						Usage: "Base delay; retry k waits retry-unit * 2^k",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Ingest at most N files",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent text extractions",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the run report as JSON to this path",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Print upsert progress to stderr",
						Value: true,
					},
				}, chunkFlags()...),
			},
			{
				Name:  "collection",
				Usage: "Manage the target collection",
				Subcommands: []*cli.Command{
					{
						Name:   "ensure",
						Usage:  "Create the collection if missing and verify its shape",
						Action: collectionEnsureCommand,
						Flags: []cli.Flag{
							collectionFlag(),
							&cli.BoolFlag{
								Name:  "destructive",
								Usage: "Drop and recreate the collection",
							},
						},
					},
					{
						Name:   "drop",
						Usage:  "Delete the collection and its ingestion ledger",
						Action: collectionDropCommand,
						Flags:  []cli.Flag{collectionFlag()},
					},
					{
						Name:   "info",
						Usage:  "Show the collection's dimensions, distance and size",
						Action: collectionInfoCommand,
						Flags:  []cli.Flag{collectionFlag()},
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find passages similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					collectionFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop hits scoring below this value",
					},
				},
			},
			{
				Name:  "metadata",
				Usage: "Manage judgment metadata",
				Subcommands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Import classifier JSON files into the judgment store",
						ArgsUsage: "FILE...",
						Action:    metadataImportCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "format",
								Usage: "Normalize each record with the formatter model",
							},
							&cli.BoolFlag{
								Name:  "delete",
								Usage: "Delete each file once all its records are stored",
							},
						},
					},
				},
			},
			{
				Name:      "chunk",
				Usage:     "Print the windows a file would be split into",
				ArgsUsage: "FILE",
				Action:    chunkCommand,
				Flags:     chunkFlags(),
			},
		},
	}
}

// setup configures logging and loads the .env file before any command runs.
func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return config.LoadEnvFile(c.String("env"), c.IsSet("env"))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration file and applies the command's flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("collection") {
		cfg.Collection.Name = c.String("collection")
	}
	in := &cfg.Ingestion
	setInt := func(flag string, dst *int) {
		if c.IsSet(flag) {
			*dst = c.Int(flag)
		}
	}
	setInt("chunk-size", &in.ChunkSize)
	setInt("overlap", &in.Overlap)
	setInt("min-length", &in.MinLength)
	setInt("batch-size", &in.BatchSize)
	setInt("max-retries", &in.MaxRetries)
	setInt("workers", &in.Workers)
	if c.IsSet("chunk-unit") {
		in.ChunkUnit = c.String("chunk-unit")
	}
	if c.IsSet("retry-unit") {
		in.RetryUnit = c.Duration("retry-unit")
	}
	if c.IsSet("pattern") {
		in.Pattern = c.String("pattern")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withWorkspace(c *cli.Context, fn func(ws *verdict.Workspace) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer ws.Close()
	return fn(ws)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
