package forecast

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a statistic would divide by a zero
// average. Callers should surface it rather than report a made-up trend.
var ErrDivisionByZero = errors.New("division by zero")

// ErrNegativeAmount is returned when the series contains a negative daily
// cost. Collectors clamp credits and refunds before building a series.
var ErrNegativeAmount = errors.New("negative daily amount")

// InsufficientDataError is returned when a series is shorter than the
// minimum needed to compute trend statistics and the regression.
type InsufficientDataError struct {
	Got  int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: got %d daily points, need at least %d", e.Got, e.Need)
}
