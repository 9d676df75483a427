package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondcurve/utils"
)

// ErrStaleCurve is returned when a curve was built for a different evaluation
// date than the one the price is requested for.
var ErrStaleCurve = errors.New("stale curve")

// DiscountCurve is the part of a term structure the pricer needs.
// Times are year fractions from ReferenceDate under DayCount.
type DiscountCurve interface {
	ReferenceDate() time.Time
	DayCount() string
	DiscountFactor(t float64) (float64, error)
}

// PriceInput holds everything Price needs. SettlementDate defaults to
// EvaluationDate; DayCount is the bond's accrual basis.
type PriceInput struct {
	EvaluationDate time.Time
	SettlementDate time.Time
	Cashflows      []Cashflow
	Curve          DiscountCurve
	DayCount       string
}

// Price discounts every flow paid after settlement to the settlement date and
// strips accrued interest:
//
//	dirty = Σ amount_i · D(t_i) / D(t_settle)
//	clean = dirty − accrued(settle)
//
// When settlement is the evaluation date D(t_settle) = 1.
func Price(in PriceInput) (PricingResult, error) {
	if in.Curve == nil {
		return PricingResult{}, fmt.Errorf("Price: Curve is required")
	}
	if len(in.Cashflows) == 0 {
		return PricingResult{}, fmt.Errorf("Price: Cashflows are required")
	}
	if in.EvaluationDate.IsZero() {
		return PricingResult{}, fmt.Errorf("Price: EvaluationDate is required")
	}
	ref := in.Curve.ReferenceDate()
	if !ref.Equal(in.EvaluationDate) {
		return PricingResult{}, fmt.Errorf("Price: curve reference %s, evaluation %s: %w",
			ref.Format(utils.DateLayout), in.EvaluationDate.Format(utils.DateLayout), ErrStaleCurve)
	}
	settle := in.SettlementDate
	if settle.IsZero() {
		settle = in.EvaluationDate
	}
	if settle.Before(ref) {
		return PricingResult{}, fmt.Errorf("Price: settlement %s precedes curve reference %s: %w",
			settle.Format(utils.DateLayout), ref.Format(utils.DateLayout), ErrStaleCurve)
	}

	curveDC := in.Curve.DayCount()
	dfSettle, err := in.Curve.DiscountFactor(utils.YearFraction(ref, settle, curveDC))
	if err != nil {
		return PricingResult{}, fmt.Errorf("Price: discount factor at settlement %s: %w", settle.Format(utils.DateLayout), err)
	}

	dirty := 0.0
	for _, cf := range in.Cashflows {
		if !cf.Date.After(settle) {
			continue
		}
		df, err := in.Curve.DiscountFactor(utils.YearFraction(ref, cf.Date, curveDC))
		if err != nil {
			return PricingResult{}, fmt.Errorf("Price: discount factor at %s: %w", cf.Date.Format(utils.DateLayout), err)
		}
		dirty += cf.Amount() * df
	}
	dirty /= dfSettle

	accrued := AccruedInterest(in.Cashflows, settle, in.DayCount)
	return PricingResult{
		CleanPrice:      dirty - accrued,
		DirtyPrice:      dirty,
		AccruedInterest: accrued,
	}, nil
}

// CleanPrice is Price(in).CleanPrice.
func CleanPrice(in PriceInput) (float64, error) {
	res, err := Price(in)
	if err != nil {
		return 0, err
	}
	return res.CleanPrice, nil
}

// AccruedInterest is the share of the running coupon earned by settle:
//
//	coupon · yf(start, settle) / yf(start, end)
//
// An empty dayCount uses ACT/365F.
func AccruedInterest(cfs []Cashflow, settle time.Time, dayCount string) float64 {
	if dayCount == "" {
		dayCount = utils.Act365F
	}
	accrued := 0.0
	for _, cf := range cfs {
		if !cf.Accrues(settle) {
			continue
		}
		period := utils.YearFraction(cf.AccrualStart, cf.AccrualEnd, dayCount)
		if period <= 0 {
			continue
		}
		accrued += cf.Coupon * utils.YearFraction(cf.AccrualStart, settle, dayCount) / period
	}
	return accrued
}
