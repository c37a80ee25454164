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
	approvePool    string
	approveDB      string
	approveReport  string
	approveEntries []string
	approveReject  bool
	approveApply   bool
	approveDryRun  bool
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Record a decision on needs-review entries",
	Long: `Approve records an explicit human decision on needs-review entries of a
saved report and writes the report back. With --apply, approved entries are
merged against the store in the same invocation.`,
	RunE: runApprove,
}

func init() {
	approveCmd.Flags().StringVarP(&approveReport, "report", "r", "", "report file written by run --out")
	approveCmd.Flags().StringSliceVarP(&approveEntries, "entry", "e", nil, "entry ID to decide (repeatable)")
	approveCmd.Flags().BoolVar(&approveReject, "reject", false, "reject instead of approve")
	approveCmd.Flags().BoolVar(&approveApply, "apply", false, "merge approved entries immediately (needs --db)")
	approveCmd.Flags().StringVar(&approvePool, "pool", "", "YAML file of entity records (with --apply --dry-run)")
	approveCmd.Flags().StringVar(&approveDB, "db", "", "SQLite database of entity records (with --apply)")
	approveCmd.Flags().BoolVar(&approveDryRun, "dry-run", false, "with --apply, report merges without touching the store")
	cobra.CheckErr(approveCmd.MarkFlagRequired("report"))
	cobra.CheckErr(approveCmd.MarkFlagRequired("entry"))
	rootCmd.AddCommand(approveCmd)
}

func runApprove(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logging.Default()

	if err := validateApplyTarget(approveApply, approveDryRun, approveDB); err != nil {
		return err
	}

	rep, err := readReport(approveReport)
	if err != nil {
		return err
	}

	for _, id := range approveEntries {
		if approveReject {
			err = rep.Reject(id)
		} else {
			err = rep.Approve(id)
		}
		if err != nil {
			return err
		}
	}
	if err := writeReport(rep, approveReport); err != nil {
		return err
	}

	decision := "approved"
	if approveReject {
		decision = "rejected"
	}
	fmt.Fprintf(os.Stderr, "%d entries %s\n", len(approveEntries), decision)

	if !approveApply || approveReject {
		return nil
	}

	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(approvePool, approveDB)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	rec := reconcile.New(
		reconcile.WithTrustOrder(policy.Trust),
		reconcile.WithThresholds(policy.Thresholds),
	)
	exec, err := rec.Executor(store, merge.WithDryRun(approveDryRun))
	if err != nil {
		return err
	}

	for _, id := range approveEntries {
		entry, ok := rep.Entry(id)
		if !ok {
			continue
		}
		out := exec.Apply(ctx, *entry)
		switch {
		case out.Err != nil:
			log.Error().Err(out.Err).Str("entry", id).Msg("merge failed")
		case out.Skipped:
			log.Warn().Str("entry", id).Msg("merge skipped")
		default:
			fmt.Fprintf(os.Stderr, "Merged %s into %s (audit %s)\n", out.LoserID, out.WinnerID, out.RecordID)
		}
	}
	return nil
}
