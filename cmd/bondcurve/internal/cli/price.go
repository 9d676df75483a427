package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/marketdata"
	"github.com/meenmo/bondcurve/utils"
)

// bondFlags describe the bond being priced.
type bondFlags struct {
	maturity      string
	coupon        float64
	cashflowsPath string
}

func (f *bondFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.maturity, "maturity", "", "maturity date YYYY-MM-DD")
	cmd.Flags().Float64Var(&f.coupon, "coupon", 0, "annual coupon rate as a decimal (0.068 == 6.8%)")
	cmd.Flags().StringVar(&f.cashflowsPath, "cashflows", "", "explicit cash-flow CSV in minor units instead of --maturity/--coupon")
}

// resolve returns the bond's flows, settlement date and maturity.
func (f *bondFlags) resolve(terms marketdata.Terms) ([]bond.Cashflow, time.Time, time.Time, error) {
	if f.cashflowsPath != "" {
		cfs, err := marketdata.LoadCashflows(f.cashflowsPath)
		if err != nil {
			return nil, time.Time{}, time.Time{}, err
		}
		b := terms.Bond(bond.Maturity(cfs), 0)
		return cfs, b.SettlementDate(terms.EvaluationDate), bond.Maturity(cfs), nil
	}
	if f.maturity == "" {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("--maturity or --cashflows is required: %w", errUsage)
	}
	maturity, err := utils.ParseDate(f.maturity)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("--maturity: %w", err)
	}
	b := terms.Bond(maturity, f.coupon)
	cfs, err := b.Cashflows()
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return cfs, b.SettlementDate(terms.EvaluationDate), maturity, nil
}

type priceOutput struct {
	EvaluationDate  string  `json:"evaluation_date"`
	SettlementDate  string  `json:"settlement_date"`
	Maturity        string  `json:"maturity"`
	CleanPrice      float64 `json:"clean_price"`
	DirtyPrice      float64 `json:"dirty_price"`
	AccruedInterest float64 `json:"accrued_interest"`
	Yield           float64 `json:"yield"`
}

func newPriceCmd(a *app) *cobra.Command {
	var (
		bf     bondFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a fixed-rate bond off the bootstrapped curve",
		Args:  cobra.NoArgs,
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

			res, err := bond.Price(bond.PriceInput{
				EvaluationDate: eval,
				SettlementDate: settle,
				Cashflows:      cfs,
				Curve:          c,
				DayCount:       terms.DayCount,
			})
			if err != nil {
				return err
			}
			y, err := bond.YieldToMaturity(bond.YieldInput{
				SettlementDate: settle,
				CleanPrice:     res.CleanPrice,
				Cashflows:      cfs,
				DayCount:       terms.DayCount,
				Compounding:    a.settings.Compounding,
				Frequency:      a.settings.Frequency,
			})
			if err != nil {
				return err
			}

			out := priceOutput{
				EvaluationDate:  eval.Format(utils.DateLayout),
				SettlementDate:  settle.Format(utils.DateLayout),
				Maturity:        maturity.Format(utils.DateLayout),
				CleanPrice:      res.CleanPrice,
				DirtyPrice:      res.DirtyPrice,
				AccruedInterest: res.AccruedInterest,
				Yield:           y.Yield,
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintf(w, "Evaluation:  %s (settles %s)\n", out.EvaluationDate, out.SettlementDate)
			fmt.Fprintf(w, "Maturity:    %s\n", out.Maturity)
			fmt.Fprintf(w, "Clean price: %.6f\n", out.CleanPrice)
			fmt.Fprintf(w, "Dirty price: %.6f\n", out.DirtyPrice)
			fmt.Fprintf(w, "Accrued:     %.6f\n", out.AccruedInterest)
			fmt.Fprintf(w, "Yield:       %.6f\n", out.Yield)
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
