package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/solver"
	"github.com/meenmo/bondcurve/utils"
)

// Instrument is a calibrating bond: its cash flows and observed clean price.
// Its pillar is the last payment date.
type Instrument struct {
	ID        string
	Cashflows []bond.Cashflow
	// CleanPrice is quoted on the same face as Cashflows.
	CleanPrice float64
	// SettlementDate defaults to the curve reference date.
	SettlementDate time.Time
	// DayCount is the accrual basis for accrued interest.
	DayCount string
}

// Maturity is the instrument's pillar date.
func (in Instrument) Maturity() time.Time {
	return bond.Maturity(in.Cashflows)
}

// BootstrapOptions configures Bootstrap. Zero values select defaults.
type BootstrapOptions struct {
	ReferenceDate time.Time
	// DayCount is the curve time axis (DefaultDayCount when empty).
	DayCount    string
	Extrapolate bool
	Solver      solver.Options
	// MinDiscountFactor and MaxDiscountFactor bracket each pillar solve.
	// The default ceiling of 2 lets prices above par on short zero-coupon
	// bonds calibrate to discount factors above 1 (negative rates); set
	// MaxDiscountFactor to 1 to keep every pillar in (0, 1].
	MinDiscountFactor float64
	MaxDiscountFactor float64
	Logger            *zap.Logger
}

const (
	defaultMinDiscountFactor = 1e-9
	defaultMaxDiscountFactor = 2.0
)

func (o BootstrapOptions) withDefaults() BootstrapOptions {
	if o.DayCount == "" {
		o.DayCount = DefaultDayCount
	}
	if o.MinDiscountFactor <= 0 {
		o.MinDiscountFactor = defaultMinDiscountFactor
	}
	if o.MaxDiscountFactor <= o.MinDiscountFactor {
		o.MaxDiscountFactor = defaultMaxDiscountFactor
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Bootstrap calibrates a log-linear discount curve to the instruments.
//
// Instruments are sorted by maturity and solved one pillar at a time: every
// earlier pillar stays fixed and the discount factor at the new maturity is
// the single unknown, chosen so the model clean price equals the quote.
// The result is either fully calibrated or an error; no partial curve escapes.
func Bootstrap(instruments []Instrument, opts BootstrapOptions) (*Curve, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("Bootstrap: no instruments: %w", ErrInsufficientData)
	}
	if opts.ReferenceDate.IsZero() {
		return nil, fmt.Errorf("Bootstrap: ReferenceDate is required")
	}
	opts = opts.withDefaults()
	if !utils.ValidDayCount(opts.DayCount) {
		return nil, fmt.Errorf("Bootstrap: unsupported day count %q", opts.DayCount)
	}
	ref := opts.ReferenceDate

	sorted, err := sortInstruments(instruments, ref)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 1, len(sorted)+1)
	times := make([]float64, 1, len(sorted)+1)
	dfs := make([]float64, 1, len(sorted)+1)
	dates[0], times[0], dfs[0] = ref, 0, 1

	for i, inst := range sorted {
		maturity := inst.Maturity()
		tMat := utils.YearFraction(ref, maturity, opts.DayCount)

		df, iterations, err := solvePillar(inst, ref, opts, dates, times, dfs, maturity, tMat)
		if err != nil {
			return nil, &CalibrationError{Index: i, ID: inst.ID, Maturity: maturity, Err: err}
		}

		dates = append(dates, maturity)
		times = append(times, tMat)
		dfs = append(dfs, df)

		opts.Logger.Debug("pillar calibrated",
			zap.Int("index", i),
			zap.String("id", inst.ID),
			zap.String("maturity", maturity.Format(utils.DateLayout)),
			zap.Float64("time", tMat),
			zap.Float64("df", df),
			zap.Int("iterations", iterations),
		)
	}

	return newCurve(ref, opts.DayCount, dates, times, dfs, opts.Extrapolate), nil
}

// sortInstruments returns a maturity-ordered copy and rejects duplicate or
// expired pillars.
func sortInstruments(instruments []Instrument, ref time.Time) ([]Instrument, error) {
	sorted := make([]Instrument, len(instruments))
	copy(sorted, instruments)
	for i, inst := range sorted {
		if len(inst.Cashflows) == 0 {
			return nil, fmt.Errorf("Bootstrap: instrument %d (%s) has no cash flows: %w", i, inst.ID, ErrInsufficientData)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Maturity().Before(sorted[j].Maturity())
	})

	prev := ref
	for i, inst := range sorted {
		m := inst.Maturity()
		if !m.After(prev) {
			if i == 0 {
				return nil, fmt.Errorf("Bootstrap: maturity %s not after reference %s: %w",
					m.Format(utils.DateLayout), ref.Format(utils.DateLayout), ErrOrdering)
			}
			return nil, fmt.Errorf("Bootstrap: duplicate maturity %s: %w", m.Format(utils.DateLayout), ErrOrdering)
		}
		prev = m
	}
	return sorted, nil
}

// solvePillar finds the discount factor at maturity that reprices inst.
// Each evaluation prices against a fresh curve snapshot made of the solved
// knots plus the trial knot.
func solvePillar(inst Instrument, ref time.Time, opts BootstrapOptions, dates []time.Time, times, dfs []float64, maturity time.Time, tMat float64) (float64, int, error) {
	if !(inst.CleanPrice > 0) {
		return 0, 0, fmt.Errorf("clean price must be positive, got %g", inst.CleanPrice)
	}
	settle := inst.SettlementDate
	if settle.IsZero() {
		settle = ref
	}
	if settle.Before(ref) {
		return 0, 0, fmt.Errorf("settlement %s precedes reference: %w", settle.Format(utils.DateLayout), bond.ErrStaleCurve)
	}
	if !maturity.After(settle) {
		return 0, 0, fmt.Errorf("no cash flows after settlement %s", settle.Format(utils.DateLayout))
	}

	tPrev := times[len(times)-1]
	weight := func(t float64) float64 {
		if t <= tPrev {
			return 0
		}
		return (t - tPrev) / (tMat - tPrev)
	}
	tSettle := utils.YearFraction(ref, settle, opts.DayCount)

	trialDates := append(append(make([]time.Time, 0, len(dates)+1), dates...), maturity)
	trialTimes := append(append(make([]float64, 0, len(times)+1), times...), tMat)
	trialDFs := append(make([]float64, 0, len(dfs)+1), dfs...)

	var evalErr error
	fdf := func(x float64) (float64, float64) {
		snapshot := newCurve(ref, opts.DayCount, trialDates, trialTimes, append(trialDFs, x), false)
		res, err := bond.Price(bond.PriceInput{
			EvaluationDate: ref,
			SettlementDate: settle,
			Cashflows:      inst.Cashflows,
			Curve:          snapshot,
			DayCount:       inst.DayCount,
		})
		if err != nil {
			evalErr = err
			return math.NaN(), math.NaN()
		}

		// d(dirty)/dx = Σ a_i · D_i/D_s · (w_i − w_s) / x under log-linear interpolation.
		dfSettle, _ := snapshot.DiscountFactor(tSettle)
		wSettle := weight(tSettle)
		deriv := 0.0
		for _, cf := range inst.Cashflows {
			if !cf.Date.After(settle) {
				continue
			}
			t := utils.YearFraction(ref, cf.Date, opts.DayCount)
			d, _ := snapshot.DiscountFactor(t)
			deriv += cf.Amount() * d / dfSettle * (weight(t) - wSettle) / x
		}
		return res.CleanPrice - inst.CleanPrice, deriv
	}

	res, err := solver.NewtonSafe(fdf, opts.MinDiscountFactor, opts.MaxDiscountFactor, dfs[len(dfs)-1], opts.Solver)
	if evalErr != nil {
		return 0, 0, evalErr
	}
	if err != nil {
		if errors.Is(err, solver.ErrNotBracketed) {
			return 0, 0, fmt.Errorf("price %g unreachable for discount factors in [%g, %g]: %w",
				inst.CleanPrice, opts.MinDiscountFactor, opts.MaxDiscountFactor, err)
		}
		return 0, 0, err
	}
	if !(res.Root > opts.MinDiscountFactor) || !(res.Root <= opts.MaxDiscountFactor) {
		return 0, 0, fmt.Errorf("implausible discount factor %g", res.Root)
	}
	return res.Root, res.Iterations, nil
}
