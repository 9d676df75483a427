package bond

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/bondcurve/calendar"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

// DefaultFaceAmount is the notional used when a bond does not state one.
const DefaultFaceAmount = 100.0

// PaymentAdjustment is the business-day rule applied to coupon payment dates.
// Accrual dates are never adjusted.
type PaymentAdjustment string

const (
	Unadjusted        PaymentAdjustment = "UNADJUSTED"
	Following         PaymentAdjustment = "FOLLOWING"
	ModifiedFollowing PaymentAdjustment = "MODIFIED_FOLLOWING"
)

// ParsePaymentAdjustment maps a case-insensitive name to a rule; "" is Unadjusted.
func ParsePaymentAdjustment(s string) (PaymentAdjustment, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Unadjusted):
		return Unadjusted, nil
	case string(Following):
		return Following, nil
	case string(ModifiedFollowing), "MODFOLLOWING":
		return ModifiedFollowing, nil
	default:
		return "", fmt.Errorf("unknown payment adjustment %q", s)
	}
}

// FixedRateBond describes a vanilla fixed-coupon bullet bond.
type FixedRateBond struct {
	// IssueDate starts the first accrual period. Dates are generated backward
	// from MaturityDate, so a misaligned IssueDate produces a short front stub.
	IssueDate    time.Time
	MaturityDate time.Time
	// CouponRate is a decimal fraction (0.065 == 6.5%).
	CouponRate float64
	FaceAmount float64
	// Frequency of coupons; NoFrequency or Once means a single period.
	Frequency         rates.Frequency
	DayCount          string
	Calendar          calendar.CalendarID
	PaymentAdjustment PaymentAdjustment
	SettlementDays    int
}

func (b FixedRateBond) face() float64 {
	if b.FaceAmount == 0 {
		return DefaultFaceAmount
	}
	return b.FaceAmount
}

// Validate checks the terms before any date is generated.
func (b FixedRateBond) Validate() error {
	if b.IssueDate.IsZero() || b.MaturityDate.IsZero() {
		return fmt.Errorf("FixedRateBond: IssueDate and MaturityDate are required")
	}
	if !b.MaturityDate.After(b.IssueDate) {
		return fmt.Errorf("FixedRateBond: maturity (%s) must be after issue (%s)",
			b.MaturityDate.Format(utils.DateLayout), b.IssueDate.Format(utils.DateLayout))
	}
	if b.CouponRate < 0 {
		return fmt.Errorf("FixedRateBond: CouponRate must be non-negative, got %g", b.CouponRate)
	}
	if b.FaceAmount < 0 {
		return fmt.Errorf("FixedRateBond: FaceAmount must be positive, got %g", b.FaceAmount)
	}
	if !utils.ValidDayCount(b.DayCount) {
		return fmt.Errorf("FixedRateBond: unsupported day count %q", b.DayCount)
	}
	if b.SettlementDays < 0 {
		return fmt.Errorf("FixedRateBond: SettlementDays must be non-negative, got %d", b.SettlementDays)
	}
	return nil
}

// SettlementDate returns the trade settlement for a trade on tradeDate.
func (b FixedRateBond) SettlementDate(tradeDate time.Time) time.Time {
	return calendar.AddBusinessDays(b.Calendar, tradeDate, b.SettlementDays)
}

// ScheduleDates returns the unadjusted accrual boundaries, IssueDate first.
//
// Dates are MaturityDate minus whole multiples of the coupon period, which
// keeps end-of-month maturities from drifting.
func (b FixedRateBond) ScheduleDates() []time.Time {
	months := b.Frequency.Months()
	if months == 0 {
		return []time.Time{b.IssueDate, b.MaturityDate}
	}

	backward := []time.Time{b.MaturityDate}
	for k := 1; ; k++ {
		d := utils.AddMonth(b.MaturityDate, -k*months)
		if !d.After(b.IssueDate) {
			break
		}
		backward = append(backward, d)
	}

	dates := make([]time.Time, 0, len(backward)+1)
	dates = append(dates, b.IssueDate)
	for i := len(backward) - 1; i >= 0; i-- {
		dates = append(dates, backward[i])
	}
	return dates
}

func (b FixedRateBond) adjustPayment(t time.Time) time.Time {
	switch b.PaymentAdjustment {
	case Following:
		return calendar.AdjustFollowing(b.Calendar, t)
	case ModifiedFollowing:
		return calendar.Adjust(b.Calendar, t)
	default:
		return t
	}
}

// Cashflows generates coupon flows and the redemption, ordered by payment date.
// The redemption is folded into the final coupon flow. Zero coupons before
// maturity are omitted.
func (b FixedRateBond) Cashflows() ([]Cashflow, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	face := b.face()
	dates := b.ScheduleDates()
	cfs := make([]Cashflow, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		start, end := dates[i-1], dates[i]
		coupon := face * b.CouponRate * utils.YearFraction(start, end, b.DayCount)
		last := i == len(dates)-1
		if coupon == 0 && !last {
			continue
		}

		cf := Cashflow{
			Date:         b.adjustPayment(end),
			Coupon:       coupon,
			AccrualStart: start,
			AccrualEnd:   end,
		}
		if last {
			cf.Principal = face
		}
		cfs = append(cfs, cf)
	}
	return cfs, nil
}
