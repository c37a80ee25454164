package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moviegraph/reconcile"
	"github.com/moviegraph/reconcile/pkg/logging"
	"github.com/moviegraph/reconcile/pkg/merge"
)

var (
	runPool   string
	runDB     string
	runOut    string
	runWindow int
	runApply  bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect duplicates in a pool of records",
	Long: `Run pairs every record in the pool against the others, classifies each
best candidate, and prints the resulting report. With --apply, the entries
confident enough for unattended merging are merged immediately; everything
else waits for review and approve.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPool, "pool", "", "YAML file of entity records")
	runCmd.Flags().StringVar(&runDB, "db", "", "SQLite database of entity records")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "write the full report as YAML to this file")
	runCmd.Flags().IntVarP(&runWindow, "window", "w", 0, "temporal pre-filter width (default from policy)")
	runCmd.Flags().BoolVar(&runApply, "apply", false, "merge auto-apply entries immediately (needs --db)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "with --apply, report merges without touching the store")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logging.Default()

	if err := validateApplyTarget(runApply, runDryRun, runDB); err != nil {
		return err
	}

	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	window := policy.Window
	if runWindow > 0 {
		window = runWindow
	}

	store, closeStore, err := openStore(runPool, runDB)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	pool, err := store.ListActive(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("records", len(pool)).Msg("pool loaded")

	rec := reconcile.New(
		reconcile.WithAliases(policy.Aliases),
		reconcile.WithVariants(policy.Variants),
		reconcile.WithTrustOrder(policy.Trust),
		reconcile.WithThresholds(policy.Thresholds),
		reconcile.WithWindow(window),
	)

	rep, err := rec.Run(ctx, pool)
	if err != nil {
		return err
	}
	rep.Render(os.Stdout)

	if runOut != "" {
		if err := writeReport(rep, runOut); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", runOut)
	}

	if !runApply {
		return nil
	}

	exec, err := rec.Executor(store, merge.WithDryRun(runDryRun))
	if err != nil {
		return err
	}
	outcomes := exec.ApplyAll(ctx, rep)
	applied, skipped, failed := 0, 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			log.Error().Err(o.Err).Str("entry", o.EntryID).Msg("merge failed")
		case o.Skipped:
			skipped++
		default:
			applied++
		}
	}
	fmt.Fprintf(os.Stderr, "Merges: %d applied, %d skipped, %d failed\n", applied, skipped, failed)
	return nil
}
