// Command gigctl is the operator CLI: schema migrations, demo data,
// ad-hoc reports and one-off exports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gigtrack/internal/backend"
	"gigtrack/internal/cli"
	"gigtrack/internal/config"
	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}
	var (
		backendType string
		dbPath      string
		seedDemo    bool
	)

	cmd := &cobra.Command{
		Use:           "gigctl",
		Short:         "Operate the gigtrack reporting backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			a.cfg = config.Load()
			if cmd.Flags().Changed("backend") {
				a.cfg.DataBackend = backendType
			}
			if cmd.Flags().Changed("db") {
				a.cfg.SQLiteDBPath = dbPath
			}
			if cmd.Flags().Changed("seed") {
				a.cfg.SeedDemo = seedDemo
			}
			level, _ := log.ParseLevel(a.cfg.LogLevel)
			a.logger = log.New(log.Config{
				Level:     level,
				Format:    a.cfg.LogFormat,
				Component: log.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&backendType, "backend", "", "data backend (sqlite or memory), overrides DATA_BACKEND")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path, overrides SQLITE_DB_PATH")
	cmd.PersistentFlags().BoolVar(&seedDemo, "seed", false, "load demo data before running, overrides SEED_DEMO")

	cmd.AddCommand(
		migrateCmd(a),
		seedCmd(a),
		reportCmd(a),
		exportCmd(a),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gigctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gigctl %s\n", version)
		},
	}
}

func seedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset into the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg.SeedDemo = true
			b, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(b)
			fmt.Fprintln(cmd.OutOrStdout(), "demo data ready")
			return nil
		},
	}
}

// open creates the configured backend.
func (a *app) open(ctx context.Context) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
}

func (a *app) close(b *backend.BackendResult) {
	if b.Cleanup == nil {
		return
	}
	if err := b.Cleanup(); err != nil {
		a.logger.Warn("Backend cleanup error", log.FieldError, err)
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// parseRange parses optional --from/--to flags. Empty values stay zero.
func parseRange(from, to string) (core.Date, core.Date, error) {
	var start, end core.Date
	var err error
	if from != "" {
		if start, err = core.ParseDate(from); err != nil {
			return start, end, core.NewValidationError("from", "invalid date %q", from)
		}
	}
	if to != "" {
		if end, err = core.ParseDate(to); err != nil {
			return start, end, core.NewValidationError("to", "invalid date %q", to)
		}
	}
	return start, end, nil
}
