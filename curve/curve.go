package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

// DefaultDayCount is the curve time axis. Following market convention the
// axis is ACT/365F regardless of the instruments' own accrual bases.
const DefaultDayCount = utils.Act365F

// instantTime stands in for t = 0 when a zero rate is requested at the
// reference date.
const instantTime = 1e-4

// DiscountCurve provides discount factors and zero rates for valuation.
// Times are year fractions from ReferenceDate under DayCount.
type DiscountCurve interface {
	ReferenceDate() time.Time
	DayCount() string
	DiscountFactor(t float64) (float64, error)
	ZeroRate(t float64, comp rates.Compounding, freq rates.Frequency) (float64, error)
}

// Pillar is one curve knot.
type Pillar struct {
	// Date is zero for knots given by time only.
	Date           time.Time
	Time           float64
	DiscountFactor float64
}

// Curve is a piecewise log-linear discount curve. Knot 0 is (0, 1) at the
// reference date. A Curve is immutable; methods never modify it.
type Curve struct {
	reference   time.Time
	dayCount    string
	dates       []time.Time
	times       []float64
	logDFs      []float64
	extrapolate bool
}

// NewCurve builds a curve from explicit knots. times[0] must be 0 with
// dfs[0] == 1; times must be strictly increasing and dfs positive.
// An empty dayCount selects DefaultDayCount.
func NewCurve(reference time.Time, dayCount string, times, dfs []float64, extrapolate bool) (*Curve, error) {
	if reference.IsZero() {
		return nil, fmt.Errorf("NewCurve: reference date is required")
	}
	if dayCount == "" {
		dayCount = DefaultDayCount
	}
	if !utils.ValidDayCount(dayCount) {
		return nil, fmt.Errorf("NewCurve: unsupported day count %q", dayCount)
	}
	if len(times) != len(dfs) {
		return nil, fmt.Errorf("NewCurve: %d times but %d discount factors", len(times), len(dfs))
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("NewCurve: need at least 2 knots, got %d: %w", len(times), ErrInsufficientData)
	}
	if times[0] != 0 || dfs[0] != 1 {
		return nil, fmt.Errorf("NewCurve: first knot must be (0, 1), got (%g, %g)", times[0], dfs[0])
	}
	for i := range times {
		if i > 0 && !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("NewCurve: knot %d time %g not after %g: %w", i, times[i], times[i-1], ErrOrdering)
		}
		if !(dfs[i] > 0) || math.IsInf(dfs[i], 0) {
			return nil, fmt.Errorf("NewCurve: knot %d discount factor %g must be positive and finite", i, dfs[i])
		}
	}
	return newCurve(reference, dayCount, nil, times, dfs, extrapolate), nil
}

// NewCurveFromDates converts pillar dates to times with dayCount and calls NewCurve.
// The reference date itself must not appear in dfs; it is added with DF 1.
func NewCurveFromDates(reference time.Time, dayCount string, dfs map[time.Time]float64, extrapolate bool) (*Curve, error) {
	if dayCount == "" {
		dayCount = DefaultDayCount
	}
	dates := make([]time.Time, 0, len(dfs))
	for d := range dfs {
		dates = append(dates, d)
	}
	utils.SortDates(dates)

	times := []float64{0}
	values := []float64{1}
	for _, d := range dates {
		times = append(times, utils.YearFraction(reference, d, dayCount))
		values = append(values, dfs[d])
	}
	c, err := NewCurve(reference, dayCount, times, values, extrapolate)
	if err != nil {
		return nil, err
	}
	c.dates = append([]time.Time{reference}, dates...)
	return c, nil
}

// newCurve copies its inputs; dates may be nil.
func newCurve(reference time.Time, dayCount string, dates []time.Time, times, dfs []float64, extrapolate bool) *Curve {
	c := &Curve{
		reference:   reference,
		dayCount:    dayCount,
		times:       append([]float64(nil), times...),
		logDFs:      make([]float64, len(dfs)),
		extrapolate: extrapolate,
	}
	if dates != nil {
		c.dates = append([]time.Time(nil), dates...)
	}
	for i, df := range dfs {
		c.logDFs[i] = math.Log(df)
	}
	return c
}

func (c *Curve) ReferenceDate() time.Time { return c.reference }

func (c *Curve) DayCount() string { return c.dayCount }

// MaxTime is the last pillar time.
func (c *Curve) MaxTime() float64 { return c.times[len(c.times)-1] }

// AllowsExtrapolation reports whether queries past MaxTime succeed.
func (c *Curve) AllowsExtrapolation() bool { return c.extrapolate }

// WithExtrapolation returns a copy of c with the extrapolation flag set.
func (c *Curve) WithExtrapolation(enabled bool) *Curve {
	cp := *c
	cp.extrapolate = enabled
	return &cp
}

// Pillars returns a copy of the knots, reference knot included.
func (c *Curve) Pillars() []Pillar {
	out := make([]Pillar, len(c.times))
	for i := range c.times {
		out[i] = Pillar{Time: c.times[i], DiscountFactor: math.Exp(c.logDFs[i])}
		if c.dates != nil {
			out[i].Date = c.dates[i]
		}
	}
	return out
}

// TimeFromReference converts a date to curve time.
func (c *Curve) TimeFromReference(d time.Time) float64 {
	return utils.YearFraction(c.reference, d, c.dayCount)
}

// DiscountFactor returns D(t) by log-linear interpolation of the knots:
//
//	ln D(t) = ln D0 + (t − t0)/(t1 − t0) · (ln D1 − ln D0)
//
// Past the last pillar the final segment is extended when extrapolation is
// enabled; otherwise ErrOutOfRange is returned.
func (c *Curve) DiscountFactor(t float64) (float64, error) {
	if math.IsNaN(t) || t < 0 {
		return 0, fmt.Errorf("discount factor at t=%g: %w", t, ErrOutOfRange)
	}
	n := len(c.times)
	idx := sort.SearchFloat64s(c.times, t)
	if idx < n && c.times[idx] == t {
		return math.Exp(c.logDFs[idx]), nil
	}

	i1 := idx
	if idx >= n {
		if !c.extrapolate {
			return 0, fmt.Errorf("discount factor at t=%g beyond last pillar %g: %w", t, c.MaxTime(), ErrOutOfRange)
		}
		i1 = n - 1
	}
	i0 := i1 - 1

	t0, t1 := c.times[i0], c.times[i1]
	w := (t - t0) / (t1 - t0)
	return math.Exp(c.logDFs[i0] + w*(c.logDFs[i1]-c.logDFs[i0])), nil
}

// ZeroRate returns the rate r with CompoundFactor(r, t) == 1 / D(t).
func (c *Curve) ZeroRate(t float64, comp rates.Compounding, freq rates.Frequency) (float64, error) {
	return zeroRate(c, t, comp, freq)
}

func zeroRate(c DiscountCurve, t float64, comp rates.Compounding, freq rates.Frequency) (float64, error) {
	if t == 0 {
		t = instantTime
	}
	df, err := c.DiscountFactor(t)
	if err != nil {
		return 0, err
	}
	return rates.ImpliedRate(1/df, t, comp, freq)
}

// DiscountFactorAt is DiscountFactor at the curve time of d.
func DiscountFactorAt(c DiscountCurve, d time.Time) (float64, error) {
	return c.DiscountFactor(utils.YearFraction(c.ReferenceDate(), d, c.DayCount()))
}

// ZeroRateAt is ZeroRate at the curve time of d.
func ZeroRateAt(c DiscountCurve, d time.Time, comp rates.Compounding, freq rates.Frequency) (float64, error) {
	return c.ZeroRate(utils.YearFraction(c.ReferenceDate(), d, c.DayCount()), comp, freq)
}
