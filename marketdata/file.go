package marketdata

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondcurve/utils"
)

// QuoteFile is the on-disk layout shared by the YAML and JSON formats.
//
//	as_of: 2025-10-16
//	quotes:
//	  - {id: IGB26, maturity: 2026-10-16, coupon: 0.06, price: 99.5}
type QuoteFile struct {
	AsOf   time.Time
	Quotes []MarketQuote
}

type yamlQuote struct {
	ID       string `yaml:"id"`
	Maturity string `yaml:"maturity"`
	Coupon   string `yaml:"coupon"`
	Price    string `yaml:"price"`
}

type yamlFile struct {
	AsOf   string      `yaml:"as_of"`
	Quotes []yamlQuote `yaml:"quotes"`
}

type jsonQuote struct {
	ID       string          `json:"id"`
	Maturity string          `json:"maturity"`
	Coupon   decimal.Decimal `json:"coupon"`
	Price    decimal.Decimal `json:"price"`
}

type jsonFile struct {
	AsOf   string      `json:"as_of"`
	Quotes []jsonQuote `json:"quotes"`
}

// LoadQuotes reads a quote file, choosing the format from the extension:
// .yaml/.yml, .json or .csv.
func LoadQuotes(path string) (QuoteFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return QuoteFile{}, fmt.Errorf("read quotes: %w", err)
	}

	var qf QuoteFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		qf, err = ParseYAML(raw)
	case ".json":
		qf, err = ParseJSON(raw)
	case ".csv":
		qf.Quotes, err = ParseCSV(bytes.NewReader(raw))
	default:
		return QuoteFile{}, fmt.Errorf("read quotes: unsupported extension %q", ext)
	}
	if err != nil {
		return QuoteFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return qf, nil
}

func parseAsOf(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(strings.TrimSpace(s))
}

// ParseYAML decodes the YAML quote layout.
func ParseYAML(raw []byte) (QuoteFile, error) {
	var f yamlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return QuoteFile{}, fmt.Errorf("parse YAML: %w", err)
	}
	asOf, err := parseAsOf(f.AsOf)
	if err != nil {
		return QuoteFile{}, err
	}
	quotes := make([]MarketQuote, 0, len(f.Quotes))
	for i, r := range f.Quotes {
		q, err := buildQuote(r.ID, r.Maturity, r.Coupon, r.Price)
		if err != nil {
			return QuoteFile{}, fmt.Errorf("quote %d: %w", i, err)
		}
		quotes = append(quotes, q)
	}
	return QuoteFile{AsOf: asOf, Quotes: quotes}, nil
}

// ParseJSON decodes the JSON quote layout. Numbers may be quoted or bare.
func ParseJSON(raw []byte) (QuoteFile, error) {
	var f jsonFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return QuoteFile{}, fmt.Errorf("parse JSON: %w", err)
	}
	asOf, err := parseAsOf(f.AsOf)
	if err != nil {
		return QuoteFile{}, err
	}
	quotes := make([]MarketQuote, 0, len(f.Quotes))
	for i, r := range f.Quotes {
		maturity, err := utils.ParseDate(strings.TrimSpace(r.Maturity))
		if err != nil {
			return QuoteFile{}, fmt.Errorf("quote %d: %w", i, err)
		}
		q := MarketQuote{ID: r.ID, Maturity: maturity, CouponRate: r.Coupon, CleanPrice: r.Price}
		if err := q.Validate(); err != nil {
			return QuoteFile{}, err
		}
		quotes = append(quotes, q)
	}
	return QuoteFile{AsOf: asOf, Quotes: quotes}, nil
}

// ParseCSV reads rows of maturity,coupon,price[,id] with a header line.
// Columns are matched by header name, so their order is free.
func ParseCSV(r io.Reader) ([]MarketQuote, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse CSV: empty input")
		}
		return nil, fmt.Errorf("parse CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"maturity", "coupon", "price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("parse CSV: missing %q column", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var quotes []MarketQuote
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse CSV line %d: %w", line, err)
		}
		q, err := buildQuote(field(rec, "id"), field(rec, "maturity"), field(rec, "coupon"), field(rec, "price"))
		if err != nil {
			return nil, fmt.Errorf("parse CSV line %d: %w", line, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func buildQuote(id, maturity, coupon, price string) (MarketQuote, error) {
	m, err := utils.ParseDate(strings.TrimSpace(maturity))
	if err != nil {
		return MarketQuote{}, err
	}
	c, err := decimal.NewFromString(strings.TrimSpace(coupon))
	if err != nil {
		return MarketQuote{}, fmt.Errorf("coupon %q: %w", coupon, err)
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return MarketQuote{}, fmt.Errorf("price %q: %w", price, err)
	}
	q := MarketQuote{ID: strings.TrimSpace(id), Maturity: m, CouponRate: c, CleanPrice: p}
	return q, q.Validate()
}

// FileSource serves quotes from a file. When the file states as_of, requests
// for any other date fail.
type FileSource struct {
	Path string
}

func (f FileSource) Quotes(_ context.Context, asOf time.Time) ([]MarketQuote, error) {
	qf, err := LoadQuotes(f.Path)
	if err != nil {
		return nil, err
	}
	if !qf.AsOf.IsZero() && !asOf.IsZero() && !qf.AsOf.Equal(asOf) {
		return nil, fmt.Errorf("%s holds quotes as of %s, not %s",
			f.Path, qf.AsOf.Format(utils.DateLayout), asOf.Format(utils.DateLayout))
	}
	return qf.Quotes, nil
}

// AsOf returns the date stated by the file, or the zero time when it states
// none (CSV files never do).
func (f FileSource) AsOf() (time.Time, error) {
	qf, err := LoadQuotes(f.Path)
	if err != nil {
		return time.Time{}, err
	}
	return qf.AsOf, nil
}
