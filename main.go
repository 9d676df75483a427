package main

import (
	"fmt"
	"os"
	"time"

	"github.com/meenmo/bondcurve/analytics"
	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/curve"
	"github.com/meenmo/bondcurve/export"
	"github.com/meenmo/bondcurve/marketdata"
	"github.com/meenmo/bondcurve/rates"
)

func main() {
	eval := marketdata.SampleAsOf
	terms := marketdata.SampleTerms(eval)

	instruments, err := marketdata.Instruments(marketdata.SampleQuotes(), terms)
	if err != nil {
		fail(err)
	}
	c, err := curve.Bootstrap(instruments, curve.BootstrapOptions{ReferenceDate: eval, Extrapolate: true})
	if err != nil {
		fail(err)
	}

	for _, p := range c.Pillars()[1:] {
		z, _ := c.ZeroRate(p.Time, rates.Compounded, rates.Annual)
		fmt.Printf("%s  DF %.8f  zero %.4f%%\n", p.Date.Format("2006-01-02"), p.DiscountFactor, z*100)
	}

	sample := terms.Bond(time.Date(2032, 10, 16, 0, 0, 0, 0, time.UTC), 0.068)
	cfs, err := sample.Cashflows()
	if err != nil {
		fail(err)
	}
	res, err := analytics.Sensitivity(analytics.SensitivityInput{
		EvaluationDate: eval,
		SettlementDate: sample.SettlementDate(eval),
		Cashflows:      cfs,
		DayCount:       terms.DayCount,
		Curve:          c,
		Shift:          0.001,
		Compounding:    rates.Continuous,
		Frequency:      rates.Annual,
	})
	if err != nil {
		fail(err)
	}

	err = export.WriteSummary(os.Stdout, export.Summary{
		EvaluationDate:    eval,
		Maturity:          bond.Maturity(cfs),
		Coupon:            sample.CouponRate,
		CleanPrice:        res.BasePrice,
		Shift:             0.001,
		PriceChange:       res.PriceChange,
		EffectiveDuration: res.EffectiveDuration,
	})
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
