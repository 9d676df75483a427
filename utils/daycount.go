package utils

import (
	"time"
)

// Day count convention identifiers.
const (
	Act360   = "ACT/360"
	Act365F  = "ACT/365F"
	Thirty   = "30/360" // US bond basis
	ThirtyE  = "30E/360"
	ActActIS = "ACT/ACT"
)

// ValidDayCount reports whether convention is understood by YearFraction.
func ValidDayCount(convention string) bool {
	switch convention {
	case Act360, Act365F, Thirty, ThirtyE, ActActIS:
		return true
	default:
		return false
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360 (US bond basis), ACT/ACT (ISDA).
// Unknown conventions fall back to ACT/365F; use ValidDayCount to reject them up front.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case ThirtyE:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case Thirty:
		// 30/360 US bond basis: D2 is capped only when D1 already is
		d1 := start.Day()
		if d1 == 31 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case ActActIS:
		return actActISDA(start, end)
	default:
		return Days(start, end) / 365.0
	}
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

// actActISDA splits the period at year boundaries and divides each piece by its year's length.
func actActISDA(start, end time.Time) float64 {
	if end.Before(start) {
		return -actActISDA(end, start)
	}
	y1, y2 := start.Year(), end.Year()
	basis := func(y int) float64 {
		if IsLeapYear(y) {
			return 366.0
		}
		return 365.0
	}
	if y1 == y2 {
		return Days(start, end) / basis(y1)
	}
	nextYear := time.Date(y1+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(y2, time.January, 1, 0, 0, 0, 0, time.UTC)
	sum := Days(start, nextYear)/basis(y1) + Days(lastYear, end)/basis(y2)
	return sum + float64(y2-y1-1)
}
