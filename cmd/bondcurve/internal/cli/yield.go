package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondcurve/bond"
	"github.com/meenmo/bondcurve/instruments/bonds"
	"github.com/meenmo/bondcurve/rates"
	"github.com/meenmo/bondcurve/utils"
)

type yieldInput struct {
	TaskID         string         `json:"task_id,omitempty"`
	SettlementDate string         `json:"settlement_date"`
	CleanPrice     float64        `json:"clean_price"`
	DayCount       string         `json:"day_count"`
	Compounding    string         `json:"compounding"`
	Frequency      string         `json:"frequency"`
	Cashflows      []cashflowJSON `json:"cashflows"`
}

// cashflowJSON amounts are in minor units per 100 face (650 == 6.50).
type cashflowJSON struct {
	Date         string `json:"date"`
	Coupon       int64  `json:"coupon"`
	Principal    int64  `json:"principal"`
	AccrualStart string `json:"accrual_start,omitempty"`
	AccrualEnd   string `json:"accrual_end,omitempty"`
}

type yieldOutput struct {
	TaskID          string  `json:"task_id,omitempty"`
	SettlementDate  string  `json:"settlement_date,omitempty"`
	CleanPrice      float64 `json:"clean_price,omitempty"`
	DirtyPrice      float64 `json:"dirty_price,omitempty"`
	AccruedInterest float64 `json:"accrued_interest,omitempty"`
	Yield           float64 `json:"yield,omitempty"`
	Iterations      int     `json:"iterations,omitempty"`
	Error           string  `json:"error,omitempty"`
}

var errBatch = errors.New("one or more yield inputs failed")

func newYieldCmd(a *app) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Solve yield to maturity from clean prices (JSON in, JSON out)",
		Long: `Read one JSON object or an array of them and solve each bond's yield
to maturity from its clean price. Cash-flow amounts are integers in minor
units per 100 face. Each result is reported in input order; failures carry
an "error" field and make the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(inputPath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			inputs, isArray, err := parseYieldInputs(raw)
			if err != nil {
				return fmt.Errorf("parse JSON: %w", err)
			}

			hadError := false
			outputs := make([]yieldOutput, 0, len(inputs))
			for _, in := range inputs {
				out, err := solveYield(in)
				if err != nil {
					hadError = true
					outputs = append(outputs, yieldOutput{TaskID: in.TaskID, Error: err.Error()})
					continue
				}
				outputs = append(outputs, out)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if isArray {
				err = enc.Encode(outputs)
			} else {
				err = enc.Encode(outputs[0])
			}
			if err != nil {
				return err
			}
			if hadError {
				return errBatch
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON input path (reads stdin if omitted)")
	return cmd
}

func solveYield(in yieldInput) (yieldOutput, error) {
	settle, err := utils.ParseDate(in.SettlementDate)
	if err != nil {
		return yieldOutput{}, fmt.Errorf("invalid settlement_date: %w", err)
	}
	dayCount := in.DayCount
	if dayCount == "" {
		dayCount = utils.Act365F
	}
	if !utils.ValidDayCount(dayCount) {
		return yieldOutput{}, fmt.Errorf("unsupported day_count %q", in.DayCount)
	}
	comp, err := rates.ParseCompounding(in.Compounding)
	if err != nil {
		return yieldOutput{}, err
	}
	freq, err := rates.ParseFrequency(in.Frequency)
	if err != nil {
		return yieldOutput{}, err
	}

	rows := make([]bonds.CashflowCents, 0, len(in.Cashflows))
	for _, cf := range in.Cashflows {
		row := bonds.CashflowCents{CouponCents: cf.Coupon, PrincipalCents: cf.Principal}
		if row.Date, err = utils.ParseDate(cf.Date); err != nil {
			return yieldOutput{}, fmt.Errorf("invalid cashflow date: %w", err)
		}
		if cf.AccrualStart != "" || cf.AccrualEnd != "" {
			if row.AccrualStart, err = parseOptionalDate(cf.AccrualStart); err != nil {
				return yieldOutput{}, err
			}
			if row.AccrualEnd, err = parseOptionalDate(cf.AccrualEnd); err != nil {
				return yieldOutput{}, err
			}
		}
		rows = append(rows, row)
	}

	res, err := bond.YieldToMaturity(bond.YieldInput{
		SettlementDate: settle,
		CleanPrice:     in.CleanPrice,
		Cashflows:      bonds.ToCashflows(rows),
		DayCount:       dayCount,
		Compounding:    comp,
		Frequency:      freq,
	})
	if err != nil {
		return yieldOutput{}, err
	}
	return yieldOutput{
		TaskID:          in.TaskID,
		SettlementDate:  in.SettlementDate,
		CleanPrice:      in.CleanPrice,
		DirtyPrice:      res.DirtyPrice,
		AccruedInterest: res.AccruedInterest,
		Yield:           res.Yield,
		Iterations:      res.Iterations,
	}, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("accrual_start and accrual_end must be given together")
	}
	return utils.ParseDate(s)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path = strings.TrimSpace(path); path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func parseYieldInputs(raw []byte) ([]yieldInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []yieldInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input yieldInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []yieldInput{input}, false, nil
}
