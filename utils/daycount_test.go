package utils

import (
	"math"
	"testing"
	"time"
)

func TestYearFraction(t *testing.T) {
	t.Parallel()

	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		conv  string
		want  float64
	}{
		{"act365f one year", d(2025, 1, 1), d(2026, 1, 1), Act365F, 1.0},
		{"act365f leap", d(2027, 10, 16), d(2028, 10, 16), Act365F, 366.0 / 365.0},
		{"act360 quarter", d(2025, 1, 1), d(2025, 4, 1), Act360, 90.0 / 360.0},
		{"30/360 month-end cap", d(2025, 1, 31), d(2025, 7, 31), Thirty, 0.5},
		{"30/360 keeps D2 31 after mid-month start", d(2025, 1, 15), d(2025, 3, 31), Thirty, 76.0 / 360.0},
		{"30E/360 caps D2 31 regardless", d(2025, 1, 15), d(2025, 3, 31), ThirtyE, 75.0 / 360.0},
		{"30E/360 month-end cap", d(2025, 1, 31), d(2025, 7, 31), ThirtyE, 0.5},
		{"act/act same year", d(2025, 1, 1), d(2025, 7, 2), ActActIS, 182.0 / 365.0},
		{"act/act across leap", d(2027, 7, 1), d(2028, 7, 1), ActActIS, 184.0/365.0 + 182.0/366.0},
		{"unknown falls back", d(2025, 1, 1), d(2026, 1, 1), "BUS/252", 1.0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := YearFraction(tc.start, tc.end, tc.conv)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("YearFraction(%s): got %.12f want %.12f", tc.conv, got, tc.want)
			}
		})
	}
}

func TestValidDayCount(t *testing.T) {
	t.Parallel()

	for _, conv := range []string{Act360, Act365F, Thirty, ThirtyE, ActActIS} {
		if !ValidDayCount(conv) {
			t.Fatalf("expected %q to be valid", conv)
		}
	}
	if ValidDayCount("ACT/364") {
		t.Fatalf("expected ACT/364 to be rejected")
	}
}

func TestAddMonthEndOfMonth(t *testing.T) {
	t.Parallel()

	got := AddMonth(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("AddMonth: got %s want %s", got.Format(DateLayout), want.Format(DateLayout))
	}

	got = AddMonth(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), -12)
	want = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("AddMonth backward: got %s want %s", got.Format(DateLayout), want.Format(DateLayout))
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	if _, err := ParseDate("2025-13-01"); err == nil {
		t.Fatalf("expected error for invalid month")
	}
	got, err := ParseDate("2025-10-16")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got.Year() != 2025 || got.Month() != time.October || got.Day() != 16 {
		t.Fatalf("ParseDate: got %s", got)
	}
}
