// Command smartsearch serves and drives smart-answer search over a Redis,
// Valkey or embedded bleve backend.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/version"
)

// state is filled by the app's Before hook and shared by every command.
type state struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "smartsearch:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for a load that stored only part of its input, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, errDocumentsFailed) {
		return 2
	}
	return 1
}

func newApp() *cli.App {
	st := &state{}
	indexFlag := &cli.StringFlag{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Index name (default: search.default_index)",
	}
	return &cli.App{
		Name:    "smartsearch",
		Usage:   "Answer questions from JSON documents in a search backend",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment; selects config/<env>.yaml",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file, overrides --env",
				EnvVars: []string{"SMARTSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Before: st.setup,
		After:  st.teardown,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: st.serveCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a free-text question and print the answers",
				ArgsUsage: "<question>",
				Action:    st.askCommand,
				Flags: []cli.Flag{
					indexFlag,
					&cli.IntFlag{Name: "size", Usage: "Hits to fetch", Value: 10},
					&cli.BoolFlag{Name: "hits", Usage: "Print hits as well as answers"},
				},
			},
			{
				Name:   "load",
				Usage:  "Bulk load newline-delimited JSON documents",
				Action: st.loadCommand,
				Flags: []cli.Flag{
					indexFlag,
					&cli.PathFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "NDJSON file, - for stdin",
						Value:   "-",
					},
					&cli.BoolFlag{
						Name:  "create",
						Usage: "Create the index from the first documents when it does not exist",
					},
					&cli.IntFlag{Name: "batch-size", Usage: "Documents per batch (default: bulk.batch_actions)"},
					&cli.IntFlag{Name: "concurrency", Usage: "Batches in flight (default: bulk.concurrency)"},
					&cli.Float64Flag{Name: "rate", Usage: "Documents per second, 0 for no limit (default: bulk.rate_per_second)"},
				},
			},
			{
				Name:  "fields",
				Usage: "Print the field names found in sampled documents, one per line",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Index to sample; repeat to merge several",
					},
					&cli.IntFlag{Name: "size", Usage: "Documents sampled per index (default: search.sample_size)"},
				},
				Action: st.fieldsCommand,
			},
		},
	}
}

func (st *state) setup(c *cli.Context) error {
	st.env = c.String("env")

	var err error
	if path := c.Path("config"); path != "" {
		st.cfg, err = config.LoadFile(path)
	} else {
		st.cfg, err = config.Load(st.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// every command but serve writes results to stdout; keep logs off it
	logEnv := "cli"
	if c.Args().First() == "serve" {
		logEnv = st.env
	}
	level := c.String("log-level")
	if level == "" && logEnv != "cli" {
		level = st.cfg.Logging.Level
	}
	st.logger, err = logpkg.NewLogger(logEnv, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func (st *state) teardown(_ *cli.Context) error {
	if st.logger != nil {
		_ = st.logger.Sync()
	}
	return nil
}

func (st *state) index(c *cli.Context) (string, error) {
	if name := c.String("index"); name != "" {
		return name, nil
	}
	if st.cfg.Search.DefaultIndex != "" {
		return st.cfg.Search.DefaultIndex, nil
	}
	return "", fmt.Errorf("--index is required (or set search.default_index)")
}
