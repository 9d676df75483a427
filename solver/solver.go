// Package solver holds the one-dimensional root finders used by curve
// calibration and yield solving. Every function is stateless and bounded by
// Options.MaxIterations.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotBracketed is returned when f(lo) and f(hi) have the same sign.
	ErrNotBracketed = errors.New("root not bracketed")
	// ErrNotConverged is returned when the iteration cap is hit.
	ErrNotConverged = errors.New("root finder did not converge")
)

// Options bounds a solve.
type Options struct {
	// Tolerance is the absolute tolerance on both |f(x)| and the bracket width.
	Tolerance float64
	// MaxIterations caps the number of function evaluations after bracketing.
	MaxIterations int
}

// DefaultOptions mirror the bootstrap settings used across the library.
var DefaultOptions = Options{
	Tolerance:     1e-12,
	MaxIterations: 100,
}

func (o Options) normalized() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultOptions.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultOptions.MaxIterations
	}
	return o
}

// Result reports the root and the work done to find it.
type Result struct {
	Root       float64
	Iterations int
}

func checkBracket(flo, fhi, lo, hi float64) error {
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return fmt.Errorf("%w: NaN at bracket ends [%g, %g]", ErrNotBracketed, lo, hi)
	}
	if flo*fhi > 0 {
		return fmt.Errorf("%w: f(%g)=%g and f(%g)=%g have the same sign", ErrNotBracketed, lo, flo, hi, fhi)
	}
	return nil
}

// Bisect halves [lo, hi] until f changes sign within Tolerance.
func Bisect(f func(float64) float64, lo, hi float64, opts Options) (Result, error) {
	opts = opts.normalized()
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, fhi := f(lo), f(hi)
	if err := checkBracket(flo, fhi, lo, hi); err != nil {
		return Result{}, err
	}
	if flo == 0 {
		return Result{Root: lo}, nil
	}
	if fhi == 0 {
		return Result{Root: hi}, nil
	}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		mid := lo + (hi-lo)/2
		fmid := f(mid)
		if math.Abs(fmid) < opts.Tolerance || (hi-lo)/2 < opts.Tolerance {
			return Result{Root: mid, Iterations: iter}, nil
		}
		if (fmid < 0) == (flo < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return Result{Root: lo + (hi-lo)/2, Iterations: opts.MaxIterations},
		fmt.Errorf("%w after %d bisections", ErrNotConverged, opts.MaxIterations)
}

// NewtonSafe finds a root of f inside [lo, hi] using Newton steps from guess,
// falling back to bisection whenever a step would leave the bracket or the
// derivative vanishes. fdf returns f(x) and f'(x).
func NewtonSafe(fdf func(float64) (float64, float64), lo, hi, guess float64, opts Options) (Result, error) {
	opts = opts.normalized()
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, _ := fdf(lo)
	fhi, _ := fdf(hi)
	if err := checkBracket(flo, fhi, lo, hi); err != nil {
		return Result{}, err
	}
	if flo == 0 {
		return Result{Root: lo}, nil
	}
	if fhi == 0 {
		return Result{Root: hi}, nil
	}

	// Orient so that f(xl) < 0 < f(xh).
	xl, xh := lo, hi
	if flo > 0 {
		xl, xh = hi, lo
	}

	x := guess
	if x <= math.Min(lo, hi) || x >= math.Max(lo, hi) || math.IsNaN(x) {
		x = lo + (hi-lo)/2
	}
	dxOld := math.Abs(hi - lo)
	dx := dxOld
	fx, dfx := fdf(x)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		newtonOutside := ((x-xh)*dfx-fx)*((x-xl)*dfx-fx) > 0
		slow := math.Abs(2*fx) > math.Abs(dxOld*dfx)
		if newtonOutside || slow || dfx == 0 || math.IsNaN(dfx) {
			dxOld = dx
			dx = (xh - xl) / 2
			x = xl + dx
		} else {
			dxOld = dx
			dx = fx / dfx
			x -= dx
		}

		fx, dfx = fdf(x)
		if math.Abs(fx) < opts.Tolerance || math.Abs(dx) < opts.Tolerance {
			return Result{Root: x, Iterations: iter}, nil
		}
		if fx < 0 {
			xl = x
		} else {
			xh = x
		}
	}
	return Result{Root: x, Iterations: opts.MaxIterations},
		fmt.Errorf("%w after %d iterations (last |f|=%g)", ErrNotConverged, opts.MaxIterations, math.Abs(fx))
}
