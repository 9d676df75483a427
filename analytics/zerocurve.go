package analytics

import (
	"fmt"
	"time"

	"github.com/meenmo/bondcurve/curve"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

// ZeroPoint is one sample of a zero curve.
type ZeroPoint struct {
	Date     time.Time
	Years    float64
	ZeroRate float64
}

// SampleZeroCurve reads zero rates at the reference date plus 1..months
// calendar months. Years is measured on the curve's own day count.
func SampleZeroCurve(c curve.DiscountCurve, months int, comp rates.Compounding, freq rates.Frequency) ([]ZeroPoint, error) {
	if c == nil {
		return nil, fmt.Errorf("SampleZeroCurve: curve is required")
	}
	if months <= 0 {
		return nil, fmt.Errorf("SampleZeroCurve: months must be positive, got %d", months)
	}

	ref := c.ReferenceDate()
	out := make([]ZeroPoint, 0, months)
	for m := 1; m <= months; m++ {
		d := utils.AddMonth(ref, m)
		t := utils.YearFraction(ref, d, c.DayCount())
		r, err := c.ZeroRate(t, comp, freq)
		if err != nil {
			return nil, fmt.Errorf("SampleZeroCurve: %s: %w", d.Format(utils.DateLayout), err)
		}
		out = append(out, ZeroPoint{Date: d, Years: t, ZeroRate: r})
	}
	return out, nil
}
