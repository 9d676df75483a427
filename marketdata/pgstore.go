package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DSNEnv names the environment variable holding the Postgres DSN.
const DSNEnv = "BONDCURVE_PG_DSN"

const createQuotesTable = `
CREATE TABLE IF NOT EXISTS bond_quotes (
	as_of       DATE    NOT NULL,
	maturity    DATE    NOT NULL,
	coupon      NUMERIC NOT NULL,
	clean_price NUMERIC NOT NULL,
	id          TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (as_of, maturity)
)`

// PGStore keeps quote snapshots in a bond_quotes table.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to Postgres and makes sure the quotes table exists.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open quote store: empty DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open quote store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping quote store: %w", err)
	}
	if _, err := db.ExecContext(ctx, createQuotesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bond_quotes: %w", err)
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Close() error {
	return s.db.Close()
}

// Quotes returns the snapshot stored for asOf, earliest maturity first.
func (s *PGStore) Quotes(ctx context.Context, asOf time.Time) ([]MarketQuote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, maturity, coupon::text, clean_price::text
		   FROM bond_quotes
		  WHERE as_of = $1
		  ORDER BY maturity`, asOf)
	if err != nil {
		return nil, fmt.Errorf("query bond_quotes: %w", err)
	}
	defer rows.Close()

	var quotes []MarketQuote
	for rows.Next() {
		var (
			q             MarketQuote
			coupon, price string
		)
		if err := rows.Scan(&q.ID, &q.Maturity, &coupon, &price); err != nil {
			return nil, fmt.Errorf("scan bond_quotes: %w", err)
		}
		if q.CouponRate, err = decimal.NewFromString(coupon); err != nil {
			return nil, fmt.Errorf("coupon %q: %w", coupon, err)
		}
		if q.CleanPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("price %q: %w", price, err)
		}
		q.Maturity = dateOnly(q.Maturity)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bond_quotes: %w", err)
	}
	return quotes, nil
}

// SaveQuotes replaces the snapshot for asOf in one transaction.
func (s *PGStore) SaveQuotes(ctx context.Context, asOf time.Time, quotes []MarketQuote) (err error) {
	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM bond_quotes WHERE as_of = $1`, asOf); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bond_quotes (as_of, maturity, coupon, clean_price, id) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err = stmt.ExecContext(ctx, asOf, q.Maturity, q.CouponRate.String(), q.CleanPrice.String(), q.ID); err != nil {
			return fmt.Errorf("insert %s: %w", q.label(), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
