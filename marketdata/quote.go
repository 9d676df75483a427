// Package marketdata loads bond quotes and turns them into calibrating instruments.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/calendar"
	"github.com/meenmo/bondcurve/curve"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

// MarketQuote is one observed fixed-coupon bond.
type MarketQuote struct {
	ID       string
	Maturity time.Time
	// CouponRate is a decimal fraction (0.065 == 6.5%).
	CouponRate decimal.Decimal
	// CleanPrice is per 100 face.
	CleanPrice decimal.Decimal
}

// Validate rejects quotes no curve could be built from.
func (q MarketQuote) Validate() error {
	if q.Maturity.IsZero() {
		return fmt.Errorf("quote %s: maturity is required", q.label())
	}
	if q.CouponRate.IsNegative() {
		return fmt.Errorf("quote %s: coupon %s must be non-negative", q.label(), q.CouponRate)
	}
	if !q.CleanPrice.IsPositive() {
		return fmt.Errorf("quote %s: price %s must be positive", q.label(), q.CleanPrice)
	}
	return nil
}

func (q MarketQuote) label() string {
	if q.ID != "" {
		return q.ID
	}
	if q.Maturity.IsZero() {
		return "<unnamed>"
	}
	return q.Maturity.Format(utils.DateLayout)
}

// QuoteSource supplies the quotes observed on a curve date.
type QuoteSource interface {
	Quotes(ctx context.Context, asOf time.Time) ([]MarketQuote, error)
}

// StaticSource serves a fixed quote set regardless of date.
type StaticSource []MarketQuote

func (s StaticSource) Quotes(_ context.Context, _ time.Time) ([]MarketQuote, error) {
	return append([]MarketQuote(nil), s...), nil
}

// SortByMaturity orders quotes in place, earliest maturity first.
func SortByMaturity(quotes []MarketQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Maturity.Before(quotes[j].Maturity)
	})
}

// Terms are the bond conventions shared by every quoted instrument.
type Terms struct {
	// EvaluationDate is both the curve reference and the schedule start.
	EvaluationDate    time.Time
	Frequency         rates.Frequency
	DayCount          string
	Calendar          calendar.CalendarID
	SettlementDays    int
	PaymentAdjustment bond.PaymentAdjustment
	FaceAmount        float64
}

// Bond returns the fixed-rate bond described by a maturity and coupon under t.
func (t Terms) Bond(maturity time.Time, coupon float64) bond.FixedRateBond {
	return bond.FixedRateBond{
		IssueDate:         t.EvaluationDate,
		MaturityDate:      maturity,
		CouponRate:        coupon,
		FaceAmount:        t.FaceAmount,
		Frequency:         t.Frequency,
		DayCount:          t.DayCount,
		Calendar:          t.Calendar,
		PaymentAdjustment: t.PaymentAdjustment,
		SettlementDays:    t.SettlementDays,
	}
}

// Instruments builds one calibrating instrument per quote. Quote order is
// preserved; the bootstrapper does its own sorting and duplicate checks.
func Instruments(quotes []MarketQuote, terms Terms) ([]curve.Instrument, error) {
	out := make([]curve.Instrument, 0, len(quotes))
	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		b := terms.Bond(q.Maturity, q.CouponRate.InexactFloat64())
		cfs, err := b.Cashflows()
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", q.label(), err)
		}
		out = append(out, curve.Instrument{
			ID:             q.label(),
			Cashflows:      cfs,
			CleanPrice:     q.CleanPrice.InexactFloat64(),
			SettlementDate: b.SettlementDate(terms.EvaluationDate),
			DayCount:       terms.DayCount,
		})
	}
	return out, nil
}
