package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/solver"
	"github.com/meenmo/bondcurve/utils"
)

// YieldInput holds the parameters needed to compute a bond's yield to maturity.
type YieldInput struct {
	SettlementDate time.Time
	// CleanPrice is quoted per the cash flows' face (usually per-100).
	CleanPrice float64
	Cashflows  []Cashflow
	// DayCount is used both for accrued interest and for discounting times.
	DayCount    string
	Compounding rates.Compounding
	Frequency   rates.Frequency
}

// YieldResult is the output of YieldToMaturity.
type YieldResult struct {
	// Yield is a decimal fraction (0.0683 == 6.83%).
	Yield           float64
	DirtyPrice      float64
	AccruedInterest float64
	Iterations      int
}

const (
	yieldFloor   = -0.05
	yieldCeiling = 1.0
)

// YieldToMaturity solves for the flat yield y such that
//
//	Σ CF_i · DF(y, t_i) = clean + accrued,   t_i = yf(settlement, date_i)
//
// with DF given by the stated compounding. The solver is a bracketed
// Newton-Raphson with analytic first derivative.
func YieldToMaturity(in YieldInput) (YieldResult, error) {
	if in.SettlementDate.IsZero() {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: SettlementDate is required")
	}
	if len(in.Cashflows) == 0 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: Cashflows are required")
	}
	if in.CleanPrice <= 0 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: CleanPrice must be positive")
	}

	dayCount := in.DayCount
	if dayCount == "" {
		dayCount = utils.Act365F
	}

	type flow struct{ t, amount float64 }
	flows := make([]flow, 0, len(in.Cashflows))
	for _, cf := range in.Cashflows {
		if !cf.Date.After(in.SettlementDate) {
			continue
		}
		flows = append(flows, flow{t: utils.YearFraction(in.SettlementDate, cf.Date, dayCount), amount: cf.Amount()})
	}
	if len(flows) == 0 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: no cash flows after settlement %s", in.SettlementDate.Format(utils.DateLayout))
	}

	accrued := AccruedInterest(in.Cashflows, in.SettlementDate, dayCount)
	target := in.CleanPrice + accrued

	var evalErr error
	fdf := func(y float64) (float64, float64) {
		price, deriv := 0.0, 0.0
		for _, f := range flows {
			df, ddf, err := discountAndDeriv(y, f.t, in.Compounding, in.Frequency)
			if err != nil {
				evalErr = err
				return math.NaN(), math.NaN()
			}
			price += f.amount * df
			deriv += f.amount * ddf
		}
		return price - target, deriv
	}

	res, err := solver.NewtonSafe(fdf, yieldFloor, yieldCeiling, 0.05, solver.DefaultOptions)
	if evalErr != nil {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: %w", evalErr)
	}
	if err != nil {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: %w", err)
	}

	return YieldResult{
		Yield:           res.Root,
		DirtyPrice:      target,
		AccruedInterest: accrued,
		Iterations:      res.Iterations,
	}, nil
}

// discountAndDeriv returns DF(y, t) and dDF/dy.
func discountAndDeriv(y, t float64, comp rates.Compounding, freq rates.Frequency) (float64, float64, error) {
	df, err := rates.DiscountFactor(y, t, comp, freq)
	if err != nil {
		return 0, 0, err
	}
	f := float64(freq)
	switch {
	case comp == rates.Continuous:
		return df, -t * df, nil
	case comp == rates.Simple, comp == rates.SimpleThenCompounded && t <= 1/f:
		return df, -t * df * df, nil
	default:
		return df, -t * df / (1 + y/f), nil
	}
}
