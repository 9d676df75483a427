package curve

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/bondcurve/rates"
)

var reference = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func flatCurve(t *testing.T, rate float64, years int, extrapolate bool) *Curve {
	t.Helper()
	times := []float64{0}
	dfs := []float64{1}
	for y := 1; y <= years; y++ {
		times = append(times, float64(y))
		dfs = append(dfs, math.Exp(-rate*float64(y)))
	}
	c, err := NewCurve(reference, "", times, dfs, extrapolate)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	return c
}

func TestNewCurveValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		times   []float64
		dfs     []float64
		wantErr error
	}{
		{"single knot", []float64{0}, []float64{1}, ErrInsufficientData},
		{"non increasing", []float64{0, 1, 1}, []float64{1, 0.95, 0.9}, ErrOrdering},
		{"decreasing", []float64{0, 2, 1}, []float64{1, 0.9, 0.95}, ErrOrdering},
		{"bad first knot", []float64{0.5, 1}, []float64{1, 0.95}, nil},
		{"negative df", []float64{0, 1}, []float64{1, -0.5}, nil},
		{"length mismatch", []float64{0, 1}, []float64{1}, nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCurve(reference, "", tc.times, tc.dfs, false)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if _, err := NewCurve(reference, "ACT/364", []float64{0, 1}, []float64{1, 0.95}, false); err == nil {
		t.Fatalf("expected error for unknown day count")
	}
}

func TestDiscountFactorLogLinear(t *testing.T) {
	t.Parallel()

	c, err := NewCurve(reference, "", []float64{0, 1, 2}, []float64{1, 0.95, 0.90}, false)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	cases := []struct {
		t    float64
		want float64
	}{
		{0, 1},
		{0.5, math.Sqrt(0.95)},
		{1, 0.95},
		{1.5, math.Sqrt(0.95 * 0.90)},
		{2, 0.90},
	}
	for _, tc := range cases {
		got, err := c.DiscountFactor(tc.t)
		if err != nil {
			t.Fatalf("DiscountFactor(%g): %v", tc.t, err)
		}
		if math.Abs(got-tc.want) > 1e-14 {
			t.Fatalf("DiscountFactor(%g): got %.15f want %.15f", tc.t, got, tc.want)
		}
	}

	if _, err := c.DiscountFactor(2.5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange past last pillar, got %v", err)
	}
	if _, err := c.DiscountFactor(-0.1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for negative time, got %v", err)
	}
}

func TestExtrapolationExtendsLastSegment(t *testing.T) {
	t.Parallel()

	base, err := NewCurve(reference, "", []float64{0, 1, 2}, []float64{1, 0.95, 0.90}, false)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	ext := base.WithExtrapolation(true)
	if base.AllowsExtrapolation() {
		t.Fatalf("WithExtrapolation must not modify the receiver")
	}

	got, err := ext.DiscountFactor(3)
	if err != nil {
		t.Fatalf("DiscountFactor(3): %v", err)
	}
	want := 0.90 * 0.90 / 0.95
	if math.Abs(got-want) > 1e-14 {
		t.Fatalf("extrapolated DF: got %.15f want %.15f", got, want)
	}
}

func TestZeroRateInversionIdentity(t *testing.T) {
	t.Parallel()

	c, err := NewCurve(reference, "", []float64{0, 0.5, 1, 3, 10}, []float64{1, 0.985, 0.968, 0.89, 0.62}, true)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	conventions := []struct {
		comp rates.Compounding
		freq rates.Frequency
	}{
		{rates.Continuous, rates.NoFrequency},
		{rates.Compounded, rates.Annual},
		{rates.Compounded, rates.Semiannual},
		{rates.Simple, rates.NoFrequency},
	}
	for _, conv := range conventions {
		for _, tm := range []float64{0.01, 0.25, 0.5, 0.8, 1, 2.2, 7.5, 10, 12} {
			df, err := c.DiscountFactor(tm)
			if err != nil {
				t.Fatalf("DiscountFactor(%g): %v", tm, err)
			}
			r, err := c.ZeroRate(tm, conv.comp, conv.freq)
			if err != nil {
				t.Fatalf("ZeroRate(%g): %v", tm, err)
			}
			back, err := rates.DiscountFactor(r, tm, conv.comp, conv.freq)
			if err != nil {
				t.Fatalf("rates.DiscountFactor: %v", err)
			}
			if math.Abs(back-df) > 1e-12 {
				t.Fatalf("%s t=%g: DF %.15f reproduced as %.15f", conv.comp, tm, df, back)
			}
		}
	}

	// t = 0 uses the instantaneous limit rather than failing.
	r0, err := c.ZeroRate(0, rates.Continuous, rates.NoFrequency)
	if err != nil {
		t.Fatalf("ZeroRate(0): %v", err)
	}
	r1, _ := c.ZeroRate(0.25, rates.Continuous, rates.NoFrequency)
	if math.Abs(r0-r1) > 1e-9 {
		t.Fatalf("short end zero rate: %.12f vs %.12f", r0, r1)
	}
}

func TestPillarsAreCopies(t *testing.T) {
	t.Parallel()

	c := flatCurve(t, 0.05, 3, false)
	p := c.Pillars()
	p[1].DiscountFactor = 42
	again := c.Pillars()
	if again[1].DiscountFactor == 42 {
		t.Fatalf("Pillars must return a copy")
	}
	if len(again) != 4 || again[0].Time != 0 || again[0].DiscountFactor != 1 {
		t.Fatalf("unexpected pillars %+v", again)
	}
}

func TestNewCurveFromDates(t *testing.T) {
	t.Parallel()

	oneYear := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	twoYear := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewCurveFromDates(reference, "", map[time.Time]float64{twoYear: 0.9, oneYear: 0.95}, false)
	if err != nil {
		t.Fatalf("NewCurveFromDates: %v", err)
	}
	df, err := DiscountFactorAt(c, twoYear)
	if err != nil || math.Abs(df-0.9) > 1e-15 {
		t.Fatalf("DiscountFactorAt: %v %v", df, err)
	}
	pillars := c.Pillars()
	if !pillars[1].Date.Equal(oneYear) || !pillars[2].Date.Equal(twoYear) {
		t.Fatalf("pillar dates not sorted: %+v", pillars)
	}
}
