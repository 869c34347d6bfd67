package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConvergence is matched by every PricingConvergenceError.
	ErrNoConvergence = errors.New("pricing did not converge")
	// ErrInvalidInput is matched by every InvalidPricingInputError.
	ErrInvalidInput = errors.New("invalid pricing input")
)

// BaseScenario is the scenario id reported for base (unshifted) prices.
const BaseScenario = -1

// PricingConvergenceError reports a yield solve that ran out of iterations.
type PricingConvergenceError struct {
	Instrument string
	Target     float64
	Iterations int
	Residual   float64
}

func (e *PricingConvergenceError) Error() string {
	return fmt.Sprintf("instrument %s: %v: target price %.6f, residual %.3g after %d iterations",
		e.Instrument, ErrNoConvergence, e.Target, e.Residual, e.Iterations)
}

func (e *PricingConvergenceError) Unwrap() error {
	return ErrNoConvergence
}

// InvalidPricingInputError reports a malformed schedule, a missing curve or
// shift, or a price that came out negative.
type InvalidPricingInputError struct {
	Instrument string
	Scenario   int
	Reason     string
}

func (e *InvalidPricingInputError) Error() string {
	if e.Scenario == BaseScenario {
		return fmt.Sprintf("instrument %s: %v: %s", e.Instrument, ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("instrument %s scenario %d: %v: %s", e.Instrument, e.Scenario, ErrInvalidInput, e.Reason)
}

func (e *InvalidPricingInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(instrument string, scenario int, format string, args ...any) error {
	return &InvalidPricingInputError{
		Instrument: instrument,
		Scenario:   scenario,
		Reason:     fmt.Sprintf(format, args...),
	}
}
