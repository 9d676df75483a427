package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondcurve/curve"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadQuotesFormats(t *testing.T) {
	t.Parallel()

	yamlBody := `as_of: 2025-10-16
quotes:
  - {id: GB26, maturity: 2026-10-16, coupon: 0.06, price: 99.5}
  - {id: GB28, maturity: 2028-10-16, coupon: "0.065", price: 98.8}
`
	jsonBody := `{"as_of": "2025-10-16", "quotes": [
  {"id": "GB26", "maturity": "2026-10-16", "coupon": 0.06, "price": "99.5"},
  {"id": "GB28", "maturity": "2028-10-16", "coupon": 0.065, "price": 98.8}
]}`
	csvBody := "price, maturity, coupon, id\n99.5,2026-10-16,0.06,GB26\n98.8,2028-10-16,0.065,GB28\n"

	cases := []struct {
		name     string
		file     string
		body     string
		wantAsOf bool
	}{
		{"yaml", "q.yaml", yamlBody, true},
		{"yml", "q.yml", yamlBody, true},
		{"json", "q.json", jsonBody, true},
		{"csv", "q.csv", csvBody, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			qf, err := LoadQuotes(writeFile(t, tc.file, tc.body))
			if err != nil {
				t.Fatalf("LoadQuotes: %v", err)
			}
			if got := !qf.AsOf.IsZero(); got != tc.wantAsOf {
				t.Fatalf("as_of present = %v, want %v", got, tc.wantAsOf)
			}
			if len(qf.Quotes) != 2 {
				t.Fatalf("expected 2 quotes, got %d", len(qf.Quotes))
			}
			q := qf.Quotes[1]
			if q.ID != "GB28" || !q.CouponRate.Equal(decimal.RequireFromString("0.065")) ||
				!q.CleanPrice.Equal(decimal.RequireFromString("98.8")) ||
				!q.Maturity.Equal(time.Date(2028, 10, 16, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected quote: %+v", q)
			}
		})
	}
}

func TestLoadQuotesErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown extension", "q.txt", "x", "unsupported extension"},
		{"missing column", "q.csv", "maturity,coupon\n2026-10-16,0.06\n", `missing "price"`},
		{"bad date", "q.csv", "maturity,coupon,price\n2026/10/16,0.06,99\n", "parse date"},
		{"bad price", "q.yaml", "quotes:\n  - {maturity: 2026-10-16, coupon: 0.06, price: abc}\n", "price"},
		{"zero price", "q.json", `{"quotes":[{"maturity":"2026-10-16","coupon":0.06,"price":0}]}`, "must be positive"},
		{"negative coupon", "q.csv", "maturity,coupon,price\n2026-10-16,-0.01,99\n", "non-negative"},
		{"empty csv", "q.csv", "", "empty input"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadQuotes(writeFile(t, tc.file, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFileSourceChecksDate(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "q.yaml", "as_of: 2025-10-16\nquotes:\n  - {maturity: 2026-10-16, coupon: 0.06, price: 99.5}\n")
	src := FileSource{Path: path}

	if _, err := src.Quotes(context.Background(), SampleAsOf); err != nil {
		t.Fatalf("matching date: %v", err)
	}
	if _, err := src.Quotes(context.Background(), SampleAsOf.AddDate(0, 0, 1)); err == nil {
		t.Fatal("expected mismatch error")
	}
	asOf, err := src.AsOf()
	if err != nil || !asOf.Equal(SampleAsOf) {
		t.Fatalf("AsOf = %s, %v", asOf, err)
	}

	csvSrc := FileSource{Path: writeFile(t, "q.csv", "maturity,coupon,price\n2026-10-16,0.06,99.5\n")}
	if asOf, err := csvSrc.AsOf(); err != nil || !asOf.IsZero() {
		t.Fatalf("csv AsOf = %s, %v", asOf, err)
	}
	if _, err := csvSrc.Quotes(context.Background(), SampleAsOf.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("undated file should serve any date: %v", err)
	}
}

func TestInstrumentsFromSample(t *testing.T) {
	t.Parallel()

	insts, err := Instruments(SampleQuotes(), SampleTerms(SampleAsOf))
	if err != nil {
		t.Fatalf("Instruments: %v", err)
	}
	if len(insts) != 4 {
		t.Fatalf("expected 4 instruments, got %d", len(insts))
	}
	// 2025-10-16 is a Thursday, so T+2 lands on Monday 2025-10-20.
	wantSettle := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	for _, inst := range insts {
		if !inst.SettlementDate.Equal(wantSettle) {
			t.Fatalf("%s: settlement %s", inst.ID, inst.SettlementDate)
		}
	}
	if n := len(insts[3].Cashflows); n != 10 {
		t.Fatalf("GB35 should pay 10 coupons, got %d", n)
	}

	c, err := curve.Bootstrap(insts, curve.BootstrapOptions{ReferenceDate: SampleAsOf, Extrapolate: true})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := len(c.Pillars()); got != 5 {
		t.Fatalf("expected reference plus 4 pillars, got %d", got)
	}
}

func TestInstrumentsRejectsInvalidQuote(t *testing.T) {
	t.Parallel()

	quotes := SampleQuotes()
	quotes[2].CleanPrice = decimal.Zero
	if _, err := Instruments(quotes, SampleTerms(SampleAsOf)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStaticSourceCopies(t *testing.T) {
	t.Parallel()

	src := StaticSource(SampleQuotes())
	got, err := src.Quotes(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Quotes: %v", err)
	}
	got[0].ID = "changed"
	if src[0].ID == "changed" {
		t.Fatal("StaticSource leaked its backing slice")
	}
}

func TestSortByMaturity(t *testing.T) {
	t.Parallel()

	quotes := SampleQuotes()
	quotes[0], quotes[3] = quotes[3], quotes[0]
	SortByMaturity(quotes)
	for i := 1; i < len(quotes); i++ {
		if !quotes[i].Maturity.After(quotes[i-1].Maturity) {
			t.Fatalf("not sorted at %d: %v", i, quotes)
		}
	}
}

func TestParseCashflows(t *testing.T) {
	t.Parallel()

	body := `date,coupon_cents,principal_cents,accrual_start,accrual_end
2026-10-16,650,0,2025-10-16,2026-10-16
2027-10-16,650,10000,2026-10-16,2027-10-16
`
	cfs, err := ParseCashflows(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCashflows: %v", err)
	}
	if len(cfs) != 2 || cfs[1].Amount() != 106.5 || cfs[0].Coupon != 6.5 {
		t.Fatalf("unexpected flows: %+v", cfs)
	}

	if _, err := LoadCashflows(writeFile(t, "cf.csv", body)); err != nil {
		t.Fatalf("LoadCashflows: %v", err)
	}

	bad := []string{
		"",
		"date,coupon_cents,principal_cents\n",
		"date,coupon_cents,principal_cents\n2027-10-16,650,0\n2026-10-16,650,10000\n",
		"date,coupon_cents,principal_cents\n2026-10-16,6.5,0\n",
		"date,coupon_cents,principal_cents\n2026-10-16,-1,0\n",
		"date,coupon_cents,principal_cents,accrual_start,accrual_end\n2026-10-16,650,0,2026-10-16,2025-10-16\n",
	}
	for i, body := range bad {
		if _, err := ParseCashflows(strings.NewReader(body)); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestPGStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", DSNEnv)
	}

	ctx := context.Background()
	store, err := OpenPG(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPG: %v", err)
	}
	defer store.Close()

	asOf := time.Date(1999, 1, 4, 0, 0, 0, 0, time.UTC)
	want := SampleQuotes()
	if err := store.SaveQuotes(ctx, asOf, want); err != nil {
		t.Fatalf("SaveQuotes: %v", err)
	}
	got, err := store.Quotes(ctx, asOf)
	if err != nil {
		t.Fatalf("Quotes: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d quotes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !got[i].Maturity.Equal(want[i].Maturity) ||
			!got[i].CouponRate.Equal(want[i].CouponRate) || !got[i].CleanPrice.Equal(want[i].CleanPrice) {
			t.Fatalf("quote %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestOpenPGRejectsEmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := OpenPG(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
