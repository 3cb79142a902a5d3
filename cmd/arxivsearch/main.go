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

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "arxivsearch",
		Usage: "Load arXiv paper metadata into Elasticsearch and run demo queries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "prepare",
				Usage:  "Normalize raw arXiv metadata into the staging file",
				Action: prepareCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Path to the raw metadata file (JSON array or JSON Lines)",
					},
					&cli.IntFlag{
						Name:  "sample",
						Usage: "Generate N synthetic records instead of reading a file",
					},
				},
			},
			{
				Name:   "embed",
				Usage:  "Compute embedding vectors for normalized documents",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the on-disk embedding cache",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Bulk-load embedded documents into the store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 500,
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Run a demo query against the index",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Query mode: lexical, vector, or hybrid",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "lexical-weight",
						Usage: "Lexical weight for hybrid mode",
						Value: 0.5,
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Vector weight for hybrid mode",
						Value: 0.5,
					},
					&cli.BoolFlag{
						Name:  "interactive",
						Usage: "Start the interactive search UI",
					},
				},
			},
			{
				Name:  "snapshot",
				Usage: "Snapshot lifecycle operations",
				Subcommands: []*cli.Command{
					{
						Name:   "register",
						Usage:  "Register the snapshot repository",
						Action: snapshotRegisterCommand,
					},
					{
						Name:   "create",
						Usage:  "Create a snapshot of the index",
						Action: snapshotCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "name",
								Usage: "Snapshot name (defaults to a timestamped name)",
							},
							&cli.BoolFlag{
								Name:  "wait",
								Usage: "Wait for the snapshot to complete",
								Value: true,
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List snapshots in the repository",
						Action: snapshotListCommand,
					},
					{
						Name:   "delete",
						Usage:  "Delete a snapshot from the repository",
						Action: snapshotDeleteCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Snapshot to delete",
								Required: true,
							},
						},
					},
					{
						Name:   "restore",
						Usage:  "Restore a snapshot under a renamed index",
						Action: snapshotRestoreCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Snapshot to restore",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "rename-suffix",
								Usage: "Suffix appended to restored index names",
								Value: "_restored",
							},
						},
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Report cluster health",
				Action: healthCommand,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func defaultSnapshotName() string {
	return "snapshot-" + time.Now().Format("20060102-150405")
}
