// Package rates converts between annualized interest rates and compound factors.
//
// CompoundFactor and ImpliedRate are exact inverses for every supported
// convention, so a rate extracted from a discount factor reproduces that
// discount factor when fed back.
package rates

import (
	"fmt"
	"math"
	"strings"
)

// Compounding is the rule turning a rate and a year fraction into a growth factor.
type Compounding int

const (
	Simple Compounding = iota
	Compounded
	Continuous
	// SimpleThenCompounded is simple up to one period and compounded afterwards.
	SimpleThenCompounded
)

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "simple"
	case Compounded:
		return "compounded"
	case Continuous:
		return "continuous"
	case SimpleThenCompounded:
		return "simple-then-compounded"
	default:
		return fmt.Sprintf("Compounding(%d)", int(c))
	}
}

// ParseCompounding accepts the String() forms, case-insensitively.
func ParseCompounding(s string) (Compounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple":
		return Simple, nil
	case "compounded", "":
		return Compounded, nil
	case "continuous":
		return Continuous, nil
	case "simple-then-compounded", "simplethencompounded":
		return SimpleThenCompounded, nil
	default:
		return 0, fmt.Errorf("unknown compounding %q", s)
	}
}

// Frequency is the number of compounding periods per year.
type Frequency int

const (
	NoFrequency Frequency = -1
	Once        Frequency = 0
	Annual      Frequency = 1
	Semiannual  Frequency = 2
	Quarterly   Frequency = 4
	Monthly     Frequency = 12
)

// ParseFrequency accepts names ("annual") or period counts ("2").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "1", "":
		return Annual, nil
	case "semiannual", "2":
		return Semiannual, nil
	case "quarterly", "4":
		return Quarterly, nil
	case "monthly", "12":
		return Monthly, nil
	case "none", "nofrequency":
		return NoFrequency, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", s)
	}
}

// Months is the length of one coupon period; zero for non-periodic frequencies.
func (f Frequency) Months() int {
	if f <= 0 {
		return 0
	}
	return 12 / int(f)
}

func needsFrequency(comp Compounding) bool {
	return comp == Compounded || comp == SimpleThenCompounded
}

func checkFrequency(comp Compounding, freq Frequency) error {
	if needsFrequency(comp) && freq <= 0 {
		return fmt.Errorf("%s compounding requires a positive frequency, got %d", comp, freq)
	}
	return nil
}

// CompoundFactor returns the growth of one unit invested at rate r for t years.
// The discount factor is its reciprocal.
func CompoundFactor(r, t float64, comp Compounding, freq Frequency) (float64, error) {
	if err := checkFrequency(comp, freq); err != nil {
		return 0, err
	}
	f := float64(freq)
	switch comp {
	case Simple:
		return 1 + r*t, nil
	case Compounded:
		return math.Pow(1+r/f, f*t), nil
	case Continuous:
		return math.Exp(r * t), nil
	case SimpleThenCompounded:
		if t <= 1/f {
			return 1 + r*t, nil
		}
		return math.Pow(1+r/f, f*t), nil
	default:
		return 0, fmt.Errorf("unknown compounding %d", int(comp))
	}
}

// ImpliedRate inverts CompoundFactor: it returns r such that
// CompoundFactor(r, t, comp, freq) == factor. It requires factor > 0 and t > 0.
func ImpliedRate(factor, t float64, comp Compounding, freq Frequency) (float64, error) {
	if factor <= 0 {
		return 0, fmt.Errorf("compound factor must be positive, got %g", factor)
	}
	if t <= 0 {
		return 0, fmt.Errorf("time must be positive, got %g", t)
	}
	if err := checkFrequency(comp, freq); err != nil {
		return 0, err
	}
	f := float64(freq)
	switch comp {
	case Simple:
		return (factor - 1) / t, nil
	case Compounded:
		return (math.Pow(factor, 1/(f*t)) - 1) * f, nil
	case Continuous:
		return math.Log(factor) / t, nil
	case SimpleThenCompounded:
		if t <= 1/f {
			return (factor - 1) / t, nil
		}
		return (math.Pow(factor, 1/(f*t)) - 1) * f, nil
	default:
		return 0, fmt.Errorf("unknown compounding %d", int(comp))
	}
}

// DiscountFactor is 1 / CompoundFactor.
func DiscountFactor(r, t float64, comp Compounding, freq Frequency) (float64, error) {
	cf, err := CompoundFactor(r, t, comp, freq)
	if err != nil {
		return 0, err
	}
	if cf <= 0 {
		return 0, fmt.Errorf("non-positive compound factor %g for rate %g over %g years", cf, r, t)
	}
	return 1 / cf, nil
}
