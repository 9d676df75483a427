package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondcurve/rates"
)

// ZeroSpreadedCurve is a base curve with a constant spread added to every
// zero rate under one compounding convention. It reads the base on every
// query and never modifies it, so any number of spreads may share one base
// across goroutines.
type ZeroSpreadedCurve struct {
	base        DiscountCurve
	spread      float64
	compounding rates.Compounding
	frequency   rates.Frequency
}

// Shift returns base moved in parallel by spread (0.001 == 10bp):
//
//	D'(t) = 1 / CompoundFactor(r(t) + spread, t)
//
// where r is the base zero rate under comp/freq. For continuous compounding
// this is D(t) · exp(−spread · t).
func Shift(base DiscountCurve, spread float64, comp rates.Compounding, freq rates.Frequency) (*ZeroSpreadedCurve, error) {
	if base == nil {
		return nil, fmt.Errorf("Shift: base curve is required")
	}
	if math.IsNaN(spread) || math.IsInf(spread, 0) {
		return nil, fmt.Errorf("Shift: spread must be finite, got %g", spread)
	}
	if _, err := rates.CompoundFactor(0, 1, comp, freq); err != nil {
		return nil, fmt.Errorf("Shift: %w", err)
	}
	return &ZeroSpreadedCurve{base: base, spread: spread, compounding: comp, frequency: freq}, nil
}

func (z *ZeroSpreadedCurve) ReferenceDate() time.Time { return z.base.ReferenceDate() }

func (z *ZeroSpreadedCurve) DayCount() string { return z.base.DayCount() }

// Spread is the zero-rate shift.
func (z *ZeroSpreadedCurve) Spread() float64 { return z.spread }

// Base is the curve being shifted.
func (z *ZeroSpreadedCurve) Base() DiscountCurve { return z.base }

func (z *ZeroSpreadedCurve) DiscountFactor(t float64) (float64, error) {
	if t == 0 {
		return z.base.DiscountFactor(0)
	}
	if z.compounding == rates.Continuous {
		df, err := z.base.DiscountFactor(t)
		if err != nil {
			return 0, err
		}
		return df * math.Exp(-z.spread*t), nil
	}
	r, err := z.base.ZeroRate(t, z.compounding, z.frequency)
	if err != nil {
		return 0, err
	}
	return rates.DiscountFactor(r+z.spread, t, z.compounding, z.frequency)
}

// ZeroRate under the shift's own convention is exactly base + spread; other
// conventions are implied from the shifted discount factor.
func (z *ZeroSpreadedCurve) ZeroRate(t float64, comp rates.Compounding, freq rates.Frequency) (float64, error) {
	if comp == z.compounding && (freq == z.frequency || comp == rates.Continuous || comp == rates.Simple) {
		r, err := z.base.ZeroRate(t, comp, freq)
		if err != nil {
			return 0, err
		}
		return r + z.spread, nil
	}
	return zeroRate(z, t, comp, freq)
}
