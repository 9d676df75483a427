package bond

import "time"

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are per FaceAmount of the generating bond (per-100 for the usual
// price quotation). AccrualStart/AccrualEnd are zero for flows that do not
// accrue, such as a standalone redemption.
type Cashflow struct {
	Date         time.Time
	Coupon       float64
	Principal    float64
	AccrualStart time.Time
	AccrualEnd   time.Time
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Accrues reports whether settle falls inside this flow's coupon period.
func (c Cashflow) Accrues(settle time.Time) bool {
	if c.Coupon == 0 || c.AccrualStart.IsZero() || c.AccrualEnd.IsZero() {
		return false
	}
	return !settle.Before(c.AccrualStart) && settle.Before(c.AccrualEnd)
}

// PricingResult is the output of Price.
type PricingResult struct {
	CleanPrice      float64
	DirtyPrice      float64
	AccruedInterest float64
}

// Maturity returns the latest payment date in cfs.
func Maturity(cfs []Cashflow) time.Time {
	var maturity time.Time
	for _, cf := range cfs {
		if cf.Date.After(maturity) {
			maturity = cf.Date
		}
	}
	return maturity
}
