package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/deposit-autoapprove/internal/gateway"
)

func (a *App) newGatewayCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the configured queue backend over HTTP",
		Long: `Gateway exposes the queue store and tenant registry over HTTP so that
daemons on other hosts can use queue.backend=remote without holding the
spreadsheet credentials themselves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, registry, err := NewQueueStore(a.cfg, a.system("queue"))
			if err != nil {
				return err
			}

			cfg := gateway.DefaultConfig()
			cfg.Port = a.cfg.Gateway.Port
			if port != 0 {
				cfg.Port = port
			}
			if len(a.cfg.Gateway.AllowedOrigins) > 0 {
				cfg.AllowedOrigins = a.cfg.Gateway.AllowedOrigins
			}

			logger := a.system("gateway")
			server := gateway.NewServer(cfg, store, registry, logger)

			// Handle graceful shutdown
			done := make(chan struct{})
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			go func() {
				defer close(done)
				select {
				case <-quit:
					logger.Info("received shutdown signal")
				case <-cmd.Context().Done():
				}

				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", "error", err)
				}
			}()

			// Start server (blocks until shutdown)
			if err := server.Start(); err != nil {
				return fmt.Errorf("gateway: %w", err)
			}

			<-done
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides gateway.port)")

	return cmd
}
