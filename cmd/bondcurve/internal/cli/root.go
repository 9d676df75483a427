// Package cli implements the bondcurve command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/bondcurve/config"
	"github.com/meenmo/bondcurve/curve"
	"github.com/meenmo/bondcurve/logging"
	"github.com/meenmo/bondcurve/marketdata"
	"github.com/meenmo/bondcurve/utils"
)

// app carries the global flags and the state derived from them.
type app struct {
	cfgFile    string
	verbose    bool
	pgDSN      string
	quotesPath string
	date       string
	sample     bool

	cfg      *config.Config
	settings config.Settings
	log      *zap.Logger
}

// Run executes one command line and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(&app{})
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	logging.Sync()
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var calib *curve.CalibrationError
	if errors.As(err, &calib) {
		fmt.Fprintf(stderr, "  failing instrument: #%d %s (maturity %s)\n",
			calib.Index, calib.ID, calib.Maturity.Format(utils.DateLayout))
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

var errUsage = errors.New("usage")

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bondcurve",
		Short: "Bootstrap zero curves from bond quotes and price bonds off them",
		Long: `bondcurve calibrates a log-linear discount curve to clean prices of
fixed-coupon bonds, then prices bonds and measures their sensitivity to
parallel zero-rate shifts.

Examples:
  bondcurve curve --sample --csv yield_curve.csv
  bondcurve price --quotes quotes.yaml --maturity 2032-10-16 --coupon 0.068
  bondcurve sensitivity --sample --maturity 2032-10-16 --coupon 0.068 --shift 10 --shift 25
  bondcurve yield --input bonds.json`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML or JSON)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.pgDSN, "pg-dsn", "", "load quotes from Postgres instead of a file")
	pf.StringVar(&a.quotesPath, "quotes", "", "quote file (.yaml, .json or .csv)")
	pf.StringVar(&a.date, "date", "", "evaluation date YYYY-MM-DD (defaults to the quote file's as_of)")
	pf.BoolVar(&a.sample, "sample", false, "use the built-in sample quotes")

	root.AddCommand(newCurveCmd(a), newPriceCmd(a), newSensitivityCmd(a), newYieldCmd(a))
	return root
}

// init loads configuration, applies flag overrides and starts logging.
func (a *app) init() error {
	if _, err := config.LoadEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.pgDSN != "" {
		cfg.Run.PGDSN = a.pgDSN
	}
	if a.quotesPath != "" {
		cfg.Run.QuotesPath = a.quotesPath
	}
	if a.date != "" {
		cfg.Run.EvaluationDate = a.date
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	a.cfg = cfg
	a.settings, err = cfg.Resolve()
	if err != nil {
		return err
	}
	a.log = logging.Named("cli")
	return nil
}

// quotes returns the quote set and the evaluation date it is valued on.
func (a *app) quotes(ctx context.Context) (time.Time, []marketdata.MarketQuote, error) {
	eval := a.settings.EvaluationDate
	run := a.cfg.Run

	var (
		src    marketdata.QuoteSource
		origin string
	)
	switch {
	case a.sample:
		if eval.IsZero() {
			eval = marketdata.SampleAsOf
		}
		src, origin = marketdata.StaticSource(marketdata.SampleQuotes()), "sample"

	case run.QuotesPath != "":
		fs := marketdata.FileSource{Path: run.QuotesPath}
		if eval.IsZero() {
			asOf, err := fs.AsOf()
			if err != nil {
				return time.Time{}, nil, err
			}
			if asOf.IsZero() {
				return time.Time{}, nil, fmt.Errorf("%s has no as_of; pass --date: %w", run.QuotesPath, errUsage)
			}
			eval = asOf
		}
		src, origin = fs, run.QuotesPath

	case run.PGDSN != "":
		if eval.IsZero() {
			return time.Time{}, nil, fmt.Errorf("--date is required with --pg-dsn: %w", errUsage)
		}
		store, err := marketdata.OpenPG(ctx, run.PGDSN)
		if err != nil {
			return time.Time{}, nil, err
		}
		defer store.Close()
		src, origin = store, "postgres"

	default:
		return time.Time{}, nil, fmt.Errorf("no quotes: pass --quotes, --pg-dsn or --sample: %w", errUsage)
	}

	quotes, err := src.Quotes(ctx, eval)
	if err != nil {
		return time.Time{}, nil, err
	}
	if len(quotes) == 0 {
		return time.Time{}, nil, fmt.Errorf("%s has no quotes as of %s", origin, eval.Format(utils.DateLayout))
	}
	marketdata.SortByMaturity(quotes)
	a.log.Info("loaded quotes", zap.String("source", origin), zap.Time("as_of", eval), zap.Int("count", len(quotes)))
	return eval, quotes, nil
}

// buildCurve loads quotes and bootstraps the curve.
func (a *app) buildCurve(ctx context.Context) (time.Time, *curve.Curve, error) {
	eval, quotes, err := a.quotes(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}
	insts, err := marketdata.Instruments(quotes, a.settings.Terms(eval))
	if err != nil {
		return time.Time{}, nil, err
	}
	c, err := curve.Bootstrap(insts, curve.BootstrapOptions{
		ReferenceDate:     eval,
		Extrapolate:       a.settings.Extrapolate,
		Solver:            a.settings.Solver,
		MinDiscountFactor: a.settings.MinDiscountFactor,
		MaxDiscountFactor: a.settings.MaxDiscountFactor,
		Logger:            logging.Named("bootstrap"),
	})
	if err != nil {
		return time.Time{}, nil, err
	}
	a.log.Debug("curve built", zap.Time("reference", eval), zap.Int("pillars", len(c.Pillars())))
	return eval, c, nil
}
