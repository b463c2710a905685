// Package cli wires configuration, adapters and services into the
// autoapprove command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/config"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/logging"
)

// App holds state shared by every command
type App struct {
	version    string
	configPath string
	verbose    bool
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// NewApp creates the CLI application
func NewApp(version string) *App {
	return &App{version: version}
}

// Execute runs the CLI with args
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "autoapprove",
		Short: "Reconcile panel deposits with the approval queue",
		Long: `autoapprove matches pending deposit requests from the panel against the
per-bank approval queues, writes the player username into each matched
queue row and then marks the deposit approved in the panel.`,
		Version:           a.version,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default is ./config.yaml, falling back to environment variables)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output (shortcut for log level debug)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides config)")

	root.AddCommand(
		a.newRunCommand(),
		a.newOnceCommand(),
		a.newGatewayCommand(),
		a.newVersionCommand(),
	)

	return root
}

// setup loads .env files, configuration and the logger
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	config.LoadDotEnv()

	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	} else {
		a.cfg = config.LoadOrEnv()
	}

	loggingCfg := a.cfg.Observability.Logging
	if a.verbose {
		loggingCfg.Level = "debug"
	}
	if a.logFormat != "" {
		loggingCfg.Format = a.logFormat
	}
	a.logger = logging.New(cmd.OutOrStdout(), loggingCfg)

	return nil
}

// system returns a logger scoped to one subsystem
func (a *App) system(name string) *slog.Logger {
	return a.logger.With("system", name)
}
