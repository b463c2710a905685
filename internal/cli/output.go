package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/deposit-autoapprove/internal/application/reconcile"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/config"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, tenant string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "autoapprove: %s (%s mode)\n", tenant, mode)
}

// PrintConfiguration prints the cycle configuration
func PrintConfiguration(w io.Writer, cfg *config.Config) {
	banks := "all"
	if len(cfg.Banks) > 0 {
		banks = strings.Join(cfg.Banks, ",")
	}
	fmt.Fprintf(w, "Banks: %s | Queue: %s | Min coin: %d\n\n", banks, cfg.Queue.Backend, cfg.Reconcile.MinCoin)
}

// PrintCycleSummary prints the per-bank outcome of one cycle
func PrintCycleSummary(w io.Writer, result *reconcile.CycleResult, err error) {
	fmt.Fprintln(w, strings.Repeat("-", 60))

	if result == nil {
		fmt.Fprintf(w, "Cycle failed: %v\n", err)
		return
	}

	if result.Empty && err == nil {
		fmt.Fprintf(w, "Summary: Deposits=%d Rows=0 (nothing to match)\n", result.Deposits)
		return
	}

	for _, b := range result.Banks {
		fmt.Fprintf(w, "%-8s rows=%d candidates=%d approved=%d lost_race=%d",
			b.Bank, b.Rows, b.Candidates, len(b.Approved), b.LostRace)
		if b.Failed() {
			fmt.Fprintf(w, " FAILED")
		}
		fmt.Fprintln(w)
		if len(b.Approved) > 0 {
			fmt.Fprintf(w, "         %s\n", strings.Join(b.Approved, ", "))
		}
	}

	fmt.Fprintf(w, "Summary: Deposits=%d Rows=%d Candidates=%d Approved=%d LostRace=%d FailedBanks=%d\n",
		result.Deposits,
		result.Rows,
		result.Candidates(),
		result.Approved(),
		result.LostRace(),
		result.FailedBanks())

	// Print errors if any
	var errs []string
	for _, b := range result.Banks {
		for _, e := range []error{b.FetchErr, b.QueueErr, b.PanelErr} {
			if e != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", b.Bank, e))
			}
		}
	}
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range errs {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	if result.DryRun {
		fmt.Fprintln(w, "\nDry run: no rows claimed, no deposits approved.")
	}
}
