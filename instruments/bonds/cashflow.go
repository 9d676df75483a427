package bonds

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondcurve/bond"
)

// CashflowCents mirrors the Bloomberg-style cashflow feed where coupon/principal
// are stored as integer minor units (e.g., cents per 100 face).
type CashflowCents struct {
	Date           time.Time
	CouponCents    int64
	PrincipalCents int64
	// AccrualStart/AccrualEnd are optional; without them no accrued interest
	// is attributed to the coupon.
	AccrualStart time.Time
	AccrualEnd   time.Time
}

func (c CashflowCents) ToCashflow() bond.Cashflow {
	return bond.Cashflow{
		Date:         c.Date,
		Coupon:       decimal.New(c.CouponCents, -2).InexactFloat64(),
		Principal:    decimal.New(c.PrincipalCents, -2).InexactFloat64(),
		AccrualStart: c.AccrualStart,
		AccrualEnd:   c.AccrualEnd,
	}
}

func ToCashflows(in []CashflowCents) []bond.Cashflow {
	out := make([]bond.Cashflow, 0, len(in))
	for _, cf := range in {
		out = append(out, cf.ToCashflow())
	}
	return out
}
