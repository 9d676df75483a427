package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/instruments/bonds"
	"github.com/meenmo/bondcurve/utils"
)

// LoadCashflows reads an explicit cash-flow schedule in minor units:
//
//	date,coupon_cents,principal_cents[,accrual_start,accrual_end]
//
// Rows are returned in payment-date order.
func LoadCashflows(path string) ([]bond.Cashflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read cashflows: %w", err)
	}
	defer f.Close()

	cfs, err := ParseCashflows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfs, nil
}

// ParseCashflows is LoadCashflows over an already-open reader.
func ParseCashflows(r io.Reader) ([]bond.Cashflow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse cashflows: empty input")
		}
		return nil, fmt.Errorf("parse cashflows header: %w", err)
	}

	var rows []bonds.CashflowCents
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse cashflows line %d: %w", line, err)
		}
		row, err := cashflowRow(rec)
		if err != nil {
			return nil, fmt.Errorf("parse cashflows line %d: %w", line, err)
		}
		if n := len(rows); n > 0 && !row.Date.After(rows[n-1].Date) {
			return nil, fmt.Errorf("parse cashflows line %d: dates must strictly increase", line)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse cashflows: no rows")
	}
	return bonds.ToCashflows(rows), nil
}

func cashflowRow(rec []string) (bonds.CashflowCents, error) {
	if len(rec) != 3 && len(rec) != 5 {
		return bonds.CashflowCents{}, fmt.Errorf("expected 3 or 5 fields, got %d", len(rec))
	}
	d, err := utils.ParseDate(strings.TrimSpace(rec[0]))
	if err != nil {
		return bonds.CashflowCents{}, err
	}
	coupon, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
	if err != nil {
		return bonds.CashflowCents{}, fmt.Errorf("coupon_cents: %w", err)
	}
	principal, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
	if err != nil {
		return bonds.CashflowCents{}, fmt.Errorf("principal_cents: %w", err)
	}
	if coupon < 0 || principal < 0 {
		return bonds.CashflowCents{}, fmt.Errorf("amounts must be non-negative")
	}
	row := bonds.CashflowCents{Date: d, CouponCents: coupon, PrincipalCents: principal}
	if len(rec) == 5 {
		var start, end time.Time
		if start, err = utils.ParseDate(strings.TrimSpace(rec[3])); err != nil {
			return bonds.CashflowCents{}, err
		}
		if end, err = utils.ParseDate(strings.TrimSpace(rec[4])); err != nil {
			return bonds.CashflowCents{}, err
		}
		if !end.After(start) {
			return bonds.CashflowCents{}, fmt.Errorf("accrual end %s not after start %s", rec[4], rec[3])
		}
		row.AccrualStart, row.AccrualEnd = start, end
	}
	return row, nil
}
