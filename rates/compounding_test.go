package rates

import (
	"math"
	"testing"
)

func TestImpliedRateInvertsCompoundFactor(t *testing.T) {
	t.Parallel()

	conventions := []struct {
		comp Compounding
		freq Frequency
	}{
		{Simple, NoFrequency},
		{Compounded, Annual},
		{Compounded, Semiannual},
		{Compounded, Monthly},
		{Continuous, NoFrequency},
		{SimpleThenCompounded, Annual},
		{SimpleThenCompounded, Quarterly},
	}

	for _, c := range conventions {
		for _, r := range []float64{-0.005, 0.0, 0.0325, 0.12} {
			for _, tm := range []float64{0.1, 0.75, 1.0, 2.5, 30} {
				cf, err := CompoundFactor(r, tm, c.comp, c.freq)
				if err != nil {
					t.Fatalf("CompoundFactor(%s): %v", c.comp, err)
				}
				got, err := ImpliedRate(cf, tm, c.comp, c.freq)
				if err != nil {
					t.Fatalf("ImpliedRate(%s): %v", c.comp, err)
				}
				if math.Abs(got-r) > 1e-12 {
					t.Fatalf("%s/%d r=%g t=%g: implied %.15f", c.comp, c.freq, r, tm, got)
				}
			}
		}
	}
}

func TestCompoundFactorClosedForms(t *testing.T) {
	t.Parallel()

	cf, _ := CompoundFactor(0.05, 2, Compounded, Annual)
	if math.Abs(cf-1.1025) > 1e-15 {
		t.Fatalf("annual compounding: got %.15f", cf)
	}
	cf, _ = CompoundFactor(0.05, 2, Continuous, NoFrequency)
	if math.Abs(cf-math.Exp(0.1)) > 1e-15 {
		t.Fatalf("continuous compounding: got %.15f", cf)
	}
	df, _ := DiscountFactor(0.05, 2, Simple, NoFrequency)
	if math.Abs(df-1/1.1) > 1e-15 {
		t.Fatalf("simple discount: got %.15f", df)
	}
}

func TestFrequencyRequired(t *testing.T) {
	t.Parallel()

	if _, err := CompoundFactor(0.05, 1, Compounded, NoFrequency); err == nil {
		t.Fatalf("expected error for compounded without frequency")
	}
	if _, err := ImpliedRate(1.05, 0, Continuous, NoFrequency); err == nil {
		t.Fatalf("expected error for zero time")
	}
	if _, err := ImpliedRate(-1, 1, Continuous, NoFrequency); err == nil {
		t.Fatalf("expected error for negative factor")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	if c, err := ParseCompounding("Continuous"); err != nil || c != Continuous {
		t.Fatalf("ParseCompounding: %v %v", c, err)
	}
	if _, err := ParseCompounding("daily"); err == nil {
		t.Fatalf("expected error for unknown compounding")
	}
	if f, err := ParseFrequency("semiannual"); err != nil || f != Semiannual || f.Months() != 6 {
		t.Fatalf("ParseFrequency: %v %v", f, err)
	}
	if NoFrequency.Months() != 0 {
		t.Fatalf("NoFrequency should have no period")
	}
}
