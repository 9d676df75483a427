package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondcurve/analytics"
	"github.com/meenmo/bondcurve/export"
	"github.com/meenmo/bondcurve/utils"
)

func newCurveCmd(a *app) *cobra.Command {
	var (
		csvPath string
		months  int
	)
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Bootstrap the curve and print or export its zero rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.buildCurve(cmd.Context())
			if err != nil {
				return err
			}
			if months <= 0 {
				months = a.settings.CurveMonths
			}
			points, err := analytics.SampleZeroCurve(c, months, a.settings.Compounding, a.settings.Frequency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if csvPath != "" {
				if err := export.WriteFile(csvPath, func(w io.Writer) error {
					return export.WriteCurveCSV(w, points)
				}); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d zero rates to %s\n", len(points), csvPath)
				return nil
			}

			fmt.Fprintln(out, "Pillars:")
			for _, p := range c.Pillars() {
				label := "reference"
				if !p.Date.IsZero() {
					label = p.Date.Format(utils.DateLayout)
				}
				fmt.Fprintf(out, "  %-10s  t=%8.4f  df=%.10f\n", label, p.Time, p.DiscountFactor)
			}
			fmt.Fprintf(out, "Zero rates (%s, %d/yr):\n", a.settings.Compounding, int(a.settings.Frequency))
			for _, p := range points {
				fmt.Fprintf(out, "  %s  %7.4f  %.6f\n", p.Date.Format(utils.DateLayout), p.Years, p.ZeroRate)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "write Maturity_Years,Zero_Rate CSV to this path")
	cmd.Flags().IntVar(&months, "months", 0, "number of monthly samples (default from config)")
	return cmd
}
