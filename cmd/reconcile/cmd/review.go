package cmd

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/moviegraph/reconcile/pkg/errors"
)

var (
	reviewReport string
	reviewFormat string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List the pairs awaiting a human decision",
	Long: `Review prints the needs-review entries of a saved report, either as a
terminal table or as flat YAML suitable for an external review surface.
Entry IDs shown here are the handles for approve.`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewReport, "report", "r", "", "report file written by run --out")
	reviewCmd.Flags().StringVarP(&reviewFormat, "format", "f", "table", "output format (table, yaml)")
	cobra.CheckErr(reviewCmd.MarkFlagRequired("report"))
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, _ []string) error {
	rep, err := readReport(reviewReport)
	if err != nil {
		return err
	}

	switch reviewFormat {
	case "table":
		rep.RenderReview(os.Stdout)
		return nil
	case "yaml":
		data, err := yaml.Marshal(rep.ReviewExport())
		if err != nil {
			return errors.WrapParse("yaml", "review export", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return errors.NewValidationError("format", reviewFormat, "format must be table or yaml")
	}
}
