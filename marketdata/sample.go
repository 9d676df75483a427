package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/calendar"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

// SampleAsOf is the evaluation date of the bundled sample quotes.
var SampleAsOf = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)

// SampleQuotes returns four annual-coupon government bonds quoted on SampleAsOf.
func SampleQuotes() []MarketQuote {
	q := func(id string, year int, coupon, price string) MarketQuote {
		return MarketQuote{
			ID:         id,
			Maturity:   time.Date(year, 10, 16, 0, 0, 0, 0, time.UTC),
			CouponRate: decimal.RequireFromString(coupon),
			CleanPrice: decimal.RequireFromString(price),
		}
	}
	return []MarketQuote{
		q("GB26", 2026, "0.06", "99.5"),
		q("GB28", 2028, "0.065", "98.8"),
		q("GB30", 2030, "0.07", "97.2"),
		q("GB35", 2035, "0.072", "96.5"),
	}
}

// SampleTerms are the conventions the sample quotes are priced under:
// annual ACT/365F coupons, unadjusted payments and T+2 on TARGET.
func SampleTerms(eval time.Time) Terms {
	return Terms{
		EvaluationDate:    eval,
		Frequency:         rates.Annual,
		DayCount:          utils.Act365F,
		Calendar:          calendar.TARGET,
		SettlementDays:    2,
		PaymentAdjustment: bond.Unadjusted,
		FaceAmount:        bond.DefaultFaceAmount,
	}
}
