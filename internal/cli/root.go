// Package cli provides the command-line interface for procwise.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/raphaelgruber/procwise/internal/app"
	"github.com/raphaelgruber/procwise/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// shutdownTimeout bounds how long a command waits for background research
// and the database to close.
const shutdownTimeout = 30 * time.Second

// state is shared by all commands of one invocation.
type state struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg     config.Config
	logger  *slog.Logger
	cleanup func() error

	// open builds the services on first use.
	open func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app.App, error)
	app  *app.App
}

// init loads configuration and the logger. Logs go to stderr and the log
// file; command output goes to stdout.
func (s *state) init() error {
	if s.logger != nil {
		return nil
	}

	var err error
	if s.configPath != "" {
		s.cfg, err = config.LoadFile(s.configPath)
	} else {
		s.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelDebug
	}
	s.logger, s.cleanup = config.SetupLogger(s.cfg.LogFile, level)
	return nil
}

// services opens the database and LLM on first use.
func (s *state) services(ctx context.Context) (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := s.open(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

func (s *state) close() {
	if s.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		s.app = nil
	}
	if s.cleanup != nil {
		_ = s.cleanup()
		s.cleanup = nil
	}
}

// output renders either JSON or styled text for a command.
func (s *state) output(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), s.jsonOut)
}

func newRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "procwise",
		Short: "Design business process templates from best practices and research",
		Long: `Procwise designs business process templates.

It searches a curated knowledge base, cached research and live LLM research
for best practices, compliance requirements and performance benchmarks, and
turns interview requirements into validated, optimized process templates.

Configuration is read from the file named by --config or PROCWISE_CONFIG,
overridden by environment variables such as SURREALDB_URL and
PROCWISE_LLM_PROVIDER.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.init()
		},
	}

	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().BoolVar(&st.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newSearchCmd(st),
		newValidateCmd(st),
		newOptimizeCmd(st),
		newGenerateCmd(st),
		newResearchCmd(st),
		newKBCmd(st),
		newCacheCmd(st),
	)
	return root
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	st := &state{open: app.Open}
	return execute(st, newRootCmd(st), os.Stderr)
}

// execute runs root and releases what the commands opened, also on failure.
func execute(st *state, root *cobra.Command, stderr io.Writer) error {
	defer st.close()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
