package scenario

import (
	"errors"
	"fmt"
)

// ErrInsufficientHistory is matched by every InsufficientHistoryError.
var ErrInsufficientHistory = errors.New("insufficient history")

// InsufficientHistoryError reports a lookback window too short for the
// requested horizon or for volatility estimation.
type InsufficientHistoryError struct {
	Method Method
	Key    Key
	Have   int
	Need   int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s scenarios for %s: %v: have %d observations, need %d",
		e.Method, e.Key, ErrInsufficientHistory, e.Have, e.Need)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}
