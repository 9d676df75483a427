package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/bondcurve/analytics"
	"github.com/meenmo/bondcurve/export"
)

func newSensitivityCmd(a *app) *cobra.Command {
	var (
		bf          bondFlags
		shiftsBP    []float64
		summaryPath string
		ladderPath  string
	)
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Reprice a bond under parallel zero-rate shifts",
		Long: `Reprice a bond with the curve's zero rates shifted in parallel.

With one --shift the command reports the price change and effective
duration. Repeating --shift values runs them all as a scenario ladder.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eval, c, err := a.buildCurve(cmd.Context())
			if err != nil {
				return err
			}
			terms := a.settings.Terms(eval)
			cfs, settle, maturity, err := bf.resolve(terms)
			if err != nil {
				return err
			}
			if len(shiftsBP) == 0 {
				shiftsBP = []float64{a.settings.Shift * 10000}
			}

			in := analytics.SensitivityInput{
				EvaluationDate: eval,
				SettlementDate: settle,
				Cashflows:      cfs,
				DayCount:       terms.DayCount,
				Curve:          c,
				Shift:          shiftsBP[0] / 10000,
				Compounding:    a.settings.ShiftCompounding,
				Frequency:      a.settings.ShiftFrequency,
			}
			res, err := analytics.Sensitivity(in)
			if err != nil {
				return err
			}
			a.log.Debug("sensitivity",
				zap.Float64("base", res.BasePrice),
				zap.Float64("shifted", res.ShiftedPrice),
				zap.Float64("duration", res.EffectiveDuration))

			summary := export.Summary{
				EvaluationDate:    eval,
				Maturity:          maturity,
				Coupon:            bf.coupon,
				NoCoupon:          bf.cashflowsPath != "",
				CleanPrice:        res.BasePrice,
				Shift:             in.Shift,
				PriceChange:       res.PriceChange,
				EffectiveDuration: res.EffectiveDuration,
			}
			out := cmd.OutOrStdout()
			if err := export.WriteSummary(out, summary); err != nil {
				return err
			}
			if summaryPath != "" {
				if err := export.WriteFile(summaryPath, func(w io.Writer) error {
					return export.WriteSummary(w, summary)
				}); err != nil {
					return err
				}
			}

			if len(shiftsBP) < 2 && ladderPath == "" {
				return nil
			}
			spreads := make([]float64, len(shiftsBP))
			for i, bp := range shiftsBP {
				spreads[i] = bp / 10000
			}
			ladder, err := analytics.ScenarioLadder(cmd.Context(), in, spreads)
			if err != nil {
				return err
			}
			if ladderPath != "" {
				return export.WriteFile(ladderPath, func(w io.Writer) error {
					return export.WriteScenariosCSV(w, ladder)
				})
			}
			fmt.Fprintln(out, "Scenarios:")
			for _, s := range ladder {
				fmt.Fprintf(out, "  %+8.2fbp  clean %10.6f  change %+.6f\n", s.Spread*10000, s.CleanPrice, s.PriceChange)
			}
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().Float64SliceVar(&shiftsBP, "shift", nil, "parallel shift in basis points; repeat for a ladder (default from config)")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "also write the text summary to this path")
	cmd.Flags().StringVar(&ladderPath, "ladder", "", "write the scenario ladder as CSV to this path")
	return cmd
}
