package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newOnceCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single reconcile cycle and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			out := cmd.OutOrStdout()
			PrintHeader(out, a.cfg.Tenant, dryRun)
			PrintConfiguration(out, a.cfg)

			result, err := reconciler.RunCycle(cmd.Context())
			PrintCycleSummary(out, result, err)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "match and log only, write nothing")

	return cmd
}
