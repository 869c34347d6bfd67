package risk

import (
	"errors"
	"fmt"
)

// ErrInsufficientScenarios is matched by every InsufficientScenariosError.
var ErrInsufficientScenarios = errors.New("insufficient scenarios")

// InsufficientScenariosError reports a vector too short to resolve the
// requested tail quantile.
type InsufficientScenariosError struct {
	Have       int
	Need       int
	Confidence float64
}

func (e *InsufficientScenariosError) Error() string {
	return fmt.Sprintf("%v: %.4g confidence needs %d scenarios, have %d",
		ErrInsufficientScenarios, e.Confidence, e.Need, e.Have)
}

func (e *InsufficientScenariosError) Unwrap() error {
	return ErrInsufficientScenarios
}
