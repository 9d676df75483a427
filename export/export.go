// Package export writes curve samples and pricing reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondcurve/analytics"
	"github.com/meenmo/bondcurve/utils"
)

// CurveHeader is the column layout of WriteCurveCSV.
var CurveHeader = []string{"Maturity_Years", "Zero_Rate"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCurveCSV writes one row per zero-curve sample at full precision.
func WriteCurveCSV(w io.Writer, points []analytics.ZeroPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CurveHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range points {
		if err := cw.Write([]string{formatFloat(p.Years), formatFloat(p.ZeroRate)}); err != nil {
			return fmt.Errorf("write %s: %w", p.Date.Format(utils.DateLayout), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScenariosCSV writes a scenario ladder with the spread in basis points.
func WriteScenariosCSV(w io.Writer, scenarios []analytics.Scenario) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Spread_BP", "Clean_Price", "Dirty_Price", "Price_Change"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scenarios {
		rec := []string{
			decimal.NewFromFloat(s.Spread).Shift(4).Round(4).String(),
			formatFloat(s.CleanPrice),
			formatFloat(s.DirtyPrice),
			formatFloat(s.PriceChange),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write scenario: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary is the headline result of a sensitivity run.
type Summary struct {
	EvaluationDate time.Time
	Maturity       time.Time
	// Coupon is a decimal fraction.
	Coupon float64
	// NoCoupon drops the coupon from the heading, for bonds given as raw
	// cash flows rather than a coupon rate.
	NoCoupon    bool
	CleanPrice  float64
	Shift       float64
	PriceChange float64
	// EffectiveDuration is omitted from the report when zero.
	EffectiveDuration float64
}

// WriteSummary renders s as a short text report. Prices are rounded half away
// from zero: clean price to 2 places, price change to 4.
func WriteSummary(w io.Writer, s Summary) error {
	heading := fmt.Sprintf("Maturity %d, Coupon %s%%", s.Maturity.Year(), decimal.NewFromFloat(s.Coupon).Shift(2))
	if s.NoCoupon {
		heading = fmt.Sprintf("Maturity %d", s.Maturity.Year())
	}
	shiftBP := decimal.NewFromFloat(s.Shift).Shift(4).Round(2)
	sign := "+"
	if shiftBP.IsNegative() {
		sign = ""
	}

	_, err := fmt.Fprintf(w, `
Bond Yield Curve Analysis
Evaluation Date: %s
Sample Bond (%s):
  - Clean Price: %s
  - Price Change (%s%sbps shift): %s
`,
		s.EvaluationDate.Format(utils.DateLayout),
		heading,
		decimal.NewFromFloat(s.CleanPrice).StringFixed(2),
		sign, shiftBP.String(),
		decimal.NewFromFloat(s.PriceChange).StringFixed(4),
	)
	if err != nil {
		return err
	}
	if s.EffectiveDuration != 0 {
		if _, err := fmt.Fprintf(w, "  - Effective Duration: %s\n",
			decimal.NewFromFloat(s.EffectiveDuration).StringFixed(4)); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, `Insights:
  - Curve shape indicates market expectations for interest rates.
  - Price sensitivity shows impact of rate changes on bond valuation.
`)
	return err
}

// WriteFile creates path (and its directory) and fills it with write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
