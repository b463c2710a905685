package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/deposit-autoapprove/internal/api"
	"github.com/eshaffer321/deposit-autoapprove/internal/application/reconcile"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// shutdownTimeout bounds graceful HTTP shutdown
const shutdownTimeout = 30 * time.Second

func (a *App) newRunCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconcile loop until interrupted",
		Long: `Run polls the panel and the approval queues continuously. Each cycle
matches pending deposits to queue rows, claims the rows and approves the
deposits. Failed cycles back off exponentially. SIGINT or SIGTERM stops
the loop after the current call returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLoop(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "match and log only, write nothing")

	return cmd
}

func (a *App) runLoop(parent context.Context, dryRun bool) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	repo, err := OpenStorage(a.cfg)
	if err != nil {
		return err
	}
	defer closeStorage(repo)

	reconciler, err := a.newReconciler(repo, dryRun)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logger := a.system("daemon")

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	apiErr := make(chan error, 1)
	var server *api.Server
	if a.cfg.API.Enabled {
		server = a.newAPIServer(repo)
		go func() { apiErr <- server.Start() }()
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- reconciler.Run(ctx) }()

	select {
	case err = <-loopErr:
	case err = <-apiErr:
		cancel()
		<-loopErr
		if err != nil {
			err = fmt.Errorf("api server: %w", err)
		}
	}

	if server != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("server shutdown error", "error", shutdownErr)
		}
	}

	if errors.Is(err, context.Canceled) {
		logger.Info("daemon stopped")
		return nil
	}
	return err
}

// newReconciler builds a reconciler from the loaded configuration
func (a *App) newReconciler(repo storage.Repository, dryRun bool) (*reconcile.Reconciler, error) {
	opts, err := ReconcileOptions(a.cfg, dryRun)
	if err != nil {
		return nil, err
	}

	queueStore, _, err := NewQueueStore(a.cfg, a.system("queue"))
	if err != nil {
		return nil, err
	}

	return reconcile.NewReconciler(
		NewPanelStore(a.cfg, a.system("panel")),
		queueStore,
		repo,
		opts,
		a.system("reconcile"),
	)
}

// newAPIServer creates the operations API. repo may be nil, in which case
// only /health answers successfully.
func (a *App) newAPIServer(repo storage.Repository) *api.Server {
	cfg := api.DefaultConfig()
	cfg.Port = a.cfg.API.Port
	return api.NewServer(cfg, repo, a.system("api"))
}
