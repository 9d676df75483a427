// Package config loads run settings for the bondcurve tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/calendar"
	"github.com/meenmo/bondcurve/logging"
	"github.com/meenmo/bondcurve/marketdata"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/solver"
	"github.com/meenmo/bondcurve/utils"
)

// Config is the full set of knobs a curve run reads.
type Config struct {
	Run     RunConfig      `json:"run" yaml:"run"`
	Solver  SolverConfig   `json:"solver" yaml:"solver"`
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// RunConfig holds market conventions for one evaluation date.
type RunConfig struct {
	// EvaluationDate is YYYY-MM-DD. Empty means the quote file's as_of.
	EvaluationDate string `json:"evaluation_date" yaml:"evaluation_date"`

	DayCount          string `json:"day_count" yaml:"day_count"`
	Compounding       string `json:"compounding" yaml:"compounding"`
	Frequency         string `json:"frequency" yaml:"frequency"`
	Calendar          string `json:"calendar" yaml:"calendar"`
	PaymentAdjustment string `json:"payment_adjustment" yaml:"payment_adjustment"`

	// SettlementDays is the business-day lag from evaluation to settlement.
	SettlementDays int     `json:"settlement_days" yaml:"settlement_days"`
	FaceAmount     float64 `json:"face_amount" yaml:"face_amount"`
	Extrapolate    bool    `json:"extrapolate" yaml:"extrapolate"`

	// ShiftBP is the parallel zero-rate shift in basis points.
	ShiftBP float64 `json:"shift_bp" yaml:"shift_bp"`

	// ShiftCompounding and ShiftFrequency quote the shift itself. They are
	// separate from Compounding, which only governs exported zero rates.
	ShiftCompounding string `json:"shift_compounding" yaml:"shift_compounding"`
	ShiftFrequency   string `json:"shift_frequency" yaml:"shift_frequency"`

	// CurveMonths is how many monthly points the zero-curve export samples.
	CurveMonths int `json:"curve_months" yaml:"curve_months"`

	QuotesPath string `json:"quotes_path" yaml:"quotes_path"`
	PGDSN      string `json:"pg_dsn" yaml:"pg_dsn"`
}

// SolverConfig bounds each pillar solve.
type SolverConfig struct {
	// Tolerance is the clean-price residual at which a pillar is accepted.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// MaxIterations caps Newton/bisection steps per pillar.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// MinDiscountFactor and MaxDiscountFactor bracket the pillar unknown.
	MinDiscountFactor float64 `json:"min_discount_factor" yaml:"min_discount_factor"`
	MaxDiscountFactor float64 `json:"max_discount_factor" yaml:"max_discount_factor"`
}

// Default matches the sample Indian government bond setup.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			DayCount:          utils.Act365F,
			Compounding:       rates.Compounded.String(),
			Frequency:         "annual",
			Calendar:          string(calendar.TARGET),
			PaymentAdjustment: string(bond.Unadjusted),
			SettlementDays:    2,
			FaceAmount:        bond.DefaultFaceAmount,
			Extrapolate:       true,
			ShiftBP:           10,
			ShiftCompounding:  rates.Continuous.String(),
			ShiftFrequency:    "annual",
			CurveMonths:       120,
		},
		Solver: SolverConfig{
			Tolerance:         solver.DefaultOptions.Tolerance,
			MaxIterations:     solver.DefaultOptions.MaxIterations,
			MinDiscountFactor: 1e-9,
			MaxDiscountFactor: 2.0,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a YAML or JSON file over Default(). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads the first .env file found among paths into the process
// environment. Variables already set win. It reports which file was used.
func LoadEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// ApplyEnv overrides fields from BONDCURVE_* variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("BONDCURVE_EVALUATION_DATE", &c.Run.EvaluationDate)
	str("BONDCURVE_DAY_COUNT", &c.Run.DayCount)
	str("BONDCURVE_COMPOUNDING", &c.Run.Compounding)
	str("BONDCURVE_FREQUENCY", &c.Run.Frequency)
	str("BONDCURVE_SHIFT_COMPOUNDING", &c.Run.ShiftCompounding)
	str("BONDCURVE_SHIFT_FREQUENCY", &c.Run.ShiftFrequency)
	str("BONDCURVE_CALENDAR", &c.Run.Calendar)
	str("BONDCURVE_PAYMENT_ADJUSTMENT", &c.Run.PaymentAdjustment)
	str("BONDCURVE_QUOTES", &c.Run.QuotesPath)
	str(marketdata.DSNEnv, &c.Run.PGDSN)
	str("BONDCURVE_LOG_LEVEL", &c.Logging.Level)
	str("BONDCURVE_LOG_FORMAT", &c.Logging.Format)

	if v := os.Getenv("BONDCURVE_SETTLEMENT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BONDCURVE_SETTLEMENT_DAYS: %w", err)
		}
		c.Run.SettlementDays = n
	}
	if v := os.Getenv("BONDCURVE_EXTRAPOLATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BONDCURVE_EXTRAPOLATE: %w", err)
		}
		c.Run.Extrapolate = b
	}
	if v := os.Getenv("BONDCURVE_SHIFT_BP"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BONDCURVE_SHIFT_BP: %w", err)
		}
		c.Run.ShiftBP = f
	}
	return nil
}

// Validate checks every field Resolve depends on.
func (c *Config) Validate() error {
	_, err := c.Resolve()
	if err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Settings are the typed form of a Config.
type Settings struct {
	// EvaluationDate is zero when the config leaves it to the quote source.
	EvaluationDate    time.Time
	DayCount          string
	Compounding       rates.Compounding
	Frequency         rates.Frequency
	Calendar          calendar.CalendarID
	PaymentAdjustment bond.PaymentAdjustment
	SettlementDays    int
	FaceAmount        float64
	Extrapolate       bool
	// Shift is ShiftBP as a decimal rate.
	Shift             float64
	ShiftCompounding  rates.Compounding
	ShiftFrequency    rates.Frequency
	CurveMonths       int
	Solver            solver.Options
	MinDiscountFactor float64
	MaxDiscountFactor float64
}

// Resolve parses the string fields into typed settings.
func (c *Config) Resolve() (Settings, error) {
	r := c.Run
	s := Settings{
		DayCount:          r.DayCount,
		SettlementDays:    r.SettlementDays,
		FaceAmount:        r.FaceAmount,
		Extrapolate:       r.Extrapolate,
		Shift:             r.ShiftBP / 10000,
		CurveMonths:       r.CurveMonths,
		Solver:            solver.Options{Tolerance: c.Solver.Tolerance, MaxIterations: c.Solver.MaxIterations},
		MinDiscountFactor: c.Solver.MinDiscountFactor,
		MaxDiscountFactor: c.Solver.MaxDiscountFactor,
	}

	var err error
	if r.EvaluationDate != "" {
		if s.EvaluationDate, err = utils.ParseDate(r.EvaluationDate); err != nil {
			return Settings{}, fmt.Errorf("evaluation_date: %w", err)
		}
	}
	if !utils.ValidDayCount(r.DayCount) {
		return Settings{}, fmt.Errorf("day_count: unsupported %q", r.DayCount)
	}
	if s.Compounding, err = rates.ParseCompounding(r.Compounding); err != nil {
		return Settings{}, fmt.Errorf("compounding: %w", err)
	}
	if s.Frequency, err = rates.ParseFrequency(r.Frequency); err != nil {
		return Settings{}, fmt.Errorf("frequency: %w", err)
	}
	if s.ShiftCompounding, err = rates.ParseCompounding(r.ShiftCompounding); err != nil {
		return Settings{}, fmt.Errorf("shift_compounding: %w", err)
	}
	if s.ShiftFrequency, err = rates.ParseFrequency(r.ShiftFrequency); err != nil {
		return Settings{}, fmt.Errorf("shift_frequency: %w", err)
	}
	if s.Calendar, err = calendar.Parse(r.Calendar); err != nil {
		return Settings{}, fmt.Errorf("calendar: %w", err)
	}
	if s.PaymentAdjustment, err = bond.ParsePaymentAdjustment(r.PaymentAdjustment); err != nil {
		return Settings{}, fmt.Errorf("payment_adjustment: %w", err)
	}
	if r.SettlementDays < 0 {
		return Settings{}, fmt.Errorf("settlement_days must be non-negative, got %d", r.SettlementDays)
	}
	if r.FaceAmount <= 0 {
		return Settings{}, fmt.Errorf("face_amount must be positive, got %g", r.FaceAmount)
	}
	if r.CurveMonths <= 0 {
		return Settings{}, fmt.Errorf("curve_months must be positive, got %d", r.CurveMonths)
	}
	if c.Solver.Tolerance <= 0 || c.Solver.MaxIterations <= 0 {
		return Settings{}, fmt.Errorf("solver tolerance and max_iterations must be positive")
	}
	if c.Solver.MinDiscountFactor <= 0 || c.Solver.MaxDiscountFactor <= c.Solver.MinDiscountFactor {
		return Settings{}, fmt.Errorf("solver discount-factor bracket [%g, %g] is empty",
			c.Solver.MinDiscountFactor, c.Solver.MaxDiscountFactor)
	}
	return s, nil
}

// Terms returns the bond conventions for quotes valued on eval.
func (s Settings) Terms(eval time.Time) marketdata.Terms {
	return marketdata.Terms{
		EvaluationDate:    eval,
		Frequency:         s.Frequency,
		DayCount:          s.DayCount,
		Calendar:          s.Calendar,
		SettlementDays:    s.SettlementDays,
		PaymentAdjustment: s.PaymentAdjustment,
		FaceAmount:        s.FaceAmount,
	}
}
