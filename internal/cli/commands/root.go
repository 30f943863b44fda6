// Package commands implements the kitabuctl command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kitabu/internal/backend"
	"kitabu/internal/cli"
	"kitabu/internal/config"
	"kitabu/internal/console"
	"kitabu/internal/kv"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
)

// Options customise the command tree. Zero values use the configured
// backend, the system clock and stdout.
type Options struct {
	Out     io.Writer
	Err     io.Writer
	Clock   ledger.Clock
	Storage kv.Storage
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	opts       Options
	configPath string

	cfg     *config.Config
	logger  *log.Logger
	backend *backend.Result
	store   *ledger.Store
	console *console.Console
}

// NewRootCommand builds kitabuctl.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = ledger.SystemClock
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "kitabuctl",
		Short:         "Track personal expenses against a budget",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (toml, yaml or json)")

	root.AddCommand(
		a.addCommand(),
		a.editCommand(),
		a.rmCommand(),
		a.lsCommand(),
		a.budgetCommand(),
		a.summaryCommand(),
		a.trendCommand(),
		a.exportCommand(),
		a.chartCommand(),
	)
	return root
}

// Execute runs kitabuctl with os.Args and reports errors on stderr.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand(Options{})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, console.BrightRed("Error:"), err)
		return 1
	}
	return 0
}

func (a *app) open(ctx context.Context) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg, log.ComponentCLI, a.opts.Err)
	a.console = console.New(cfg.Currency)
	a.console.Out = a.opts.Out

	if a.opts.Storage != nil {
		opts, err := backend.LedgerOptions(cfg, a.logger)
		if err != nil {
			return err
		}
		opts = append(opts, ledger.WithClock(a.opts.Clock))
		a.backend = &backend.Result{Storage: a.opts.Storage, Name: "injected"}
		a.store, err = ledger.Open(ctx, a.opts.Storage, opts...)
		return err
	}

	a.backend, a.store, err = cli.OpenLedger(ctx, cfg, a.logger, ledger.WithClock(a.opts.Clock))
	return err
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

// saved reports a mutation whose write did not reach storage.
func (a *app) saved() error {
	if err := a.store.PersistErr(); err != nil {
		return fmt.Errorf("change kept in memory but not saved: %w", err)
	}
	return nil
}
