package curve

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondcurve/utils"
)

var (
	// ErrInsufficientData is returned when there is nothing to calibrate.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrOrdering is returned for duplicate or non-increasing pillars.
	ErrOrdering = errors.New("pillars not strictly increasing")
	// ErrCalibration is returned when a pillar cannot be solved; the quotes are
	// inconsistent with a positive discount curve.
	ErrCalibration = errors.New("calibration failed")
	// ErrOutOfRange is returned for queries outside the curve with extrapolation disabled.
	ErrOutOfRange = errors.New("time out of curve range")
)

// CalibrationError identifies the instrument whose pillar failed to solve.
type CalibrationError struct {
	Index    int
	ID       string
	Maturity time.Time
	Err      error
}

func (e *CalibrationError) Error() string {
	label := e.ID
	if label == "" {
		label = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%s: instrument %s maturing %s: %v",
		ErrCalibration, label, e.Maturity.Format(utils.DateLayout), e.Err)
}

// Unwrap exposes both ErrCalibration and the underlying cause to errors.Is.
func (e *CalibrationError) Unwrap() []error {
	return []error{ErrCalibration, e.Err}
}
