// Package analytics prices bonds under shifted curves and samples zero curves.
package analytics

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/curve"
	"github.com/meenmo/bondcurve/rates"
)

// SensitivityInput is one bond and the curve it is valued on.
type SensitivityInput struct {
	EvaluationDate time.Time
	SettlementDate time.Time
	Cashflows      []bond.Cashflow
	// DayCount is the bond's accrual basis.
	DayCount string
	Curve    curve.DiscountCurve
	// Shift is the parallel zero-rate move as a decimal (0.001 == 10bp).
	Shift       float64
	Compounding rates.Compounding
	Frequency   rates.Frequency
}

// SensitivityResult compares the bond on the base curve and on the curve
// shifted up by Shift.
type SensitivityResult struct {
	BasePrice    float64
	ShiftedPrice float64
	// PriceChange is BasePrice − ShiftedPrice; positive for a rate rise.
	PriceChange float64
	// EffectiveDuration and Convexity come from dirty prices at ±Shift.
	EffectiveDuration float64
	Convexity         float64
}

func (in SensitivityInput) price(c bond.DiscountCurve) (bond.PricingResult, error) {
	return bond.Price(bond.PriceInput{
		EvaluationDate: in.EvaluationDate,
		SettlementDate: in.SettlementDate,
		Cashflows:      in.Cashflows,
		Curve:          c,
		DayCount:       in.DayCount,
	})
}

func (in SensitivityInput) priceShifted(spread float64) (bond.PricingResult, error) {
	shifted, err := curve.Shift(in.Curve, spread, in.Compounding, in.Frequency)
	if err != nil {
		return bond.PricingResult{}, err
	}
	return in.price(shifted)
}

// Sensitivity reprices the bond with the curve shifted by ±Shift.
func Sensitivity(in SensitivityInput) (SensitivityResult, error) {
	if in.Curve == nil {
		return SensitivityResult{}, fmt.Errorf("Sensitivity: Curve is required")
	}
	if in.Shift == 0 || math.IsNaN(in.Shift) || math.IsInf(in.Shift, 0) {
		return SensitivityResult{}, fmt.Errorf("Sensitivity: Shift must be finite and non-zero, got %g", in.Shift)
	}

	base, err := in.price(in.Curve)
	if err != nil {
		return SensitivityResult{}, fmt.Errorf("Sensitivity: base: %w", err)
	}
	up, err := in.priceShifted(in.Shift)
	if err != nil {
		return SensitivityResult{}, fmt.Errorf("Sensitivity: +%g: %w", in.Shift, err)
	}
	down, err := in.priceShifted(-in.Shift)
	if err != nil {
		return SensitivityResult{}, fmt.Errorf("Sensitivity: -%g: %w", in.Shift, err)
	}

	p := base.DirtyPrice
	return SensitivityResult{
		BasePrice:         base.CleanPrice,
		ShiftedPrice:      up.CleanPrice,
		PriceChange:       base.CleanPrice - up.CleanPrice,
		EffectiveDuration: (down.DirtyPrice - up.DirtyPrice) / (2 * p * in.Shift),
		Convexity:         (down.DirtyPrice + up.DirtyPrice - 2*p) / (p * in.Shift * in.Shift),
	}, nil
}

// Scenario is the bond valued under one parallel spread.
type Scenario struct {
	Spread     float64
	CleanPrice float64
	DirtyPrice float64
	// PriceChange is the unshifted clean price minus CleanPrice.
	PriceChange float64
}

// ScenarioLadder values the bond under each spread, in parallel. Results keep
// the order of spreads. The first failure cancels scenarios not yet started.
// in.Shift is ignored.
func ScenarioLadder(ctx context.Context, in SensitivityInput, spreads []float64) ([]Scenario, error) {
	if in.Curve == nil {
		return nil, fmt.Errorf("ScenarioLadder: Curve is required")
	}
	base, err := in.price(in.Curve)
	if err != nil {
		return nil, fmt.Errorf("ScenarioLadder: base: %w", err)
	}

	out := make([]Scenario, len(spreads))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range spreads {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := in.priceShifted(s)
			if err != nil {
				return fmt.Errorf("ScenarioLadder: spread %g: %w", s, err)
			}
			out[i] = Scenario{
				Spread:      s,
				CleanPrice:  res.CleanPrice,
				DirtyPrice:  res.DirtyPrice,
				PriceChange: base.CleanPrice - res.CleanPrice,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
