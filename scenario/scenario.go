package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

// Method names a scenario generation approach.
type Method string

const (
	Historical Method = "historical"
	MonteCarlo Method = "monte_carlo"
	StressTest Method = "stress"
)

// DefaultPaths is the Monte Carlo path count when none is configured.
const DefaultPaths = 50_000

// ParseMethod accepts the run-config spelling of a method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Historical, MonteCarlo:
		return m, nil
	default:
		return "", fmt.Errorf("unknown scenario method %q (supported: historical, monte_carlo)", s)
	}
}

// Key identifies one shocked rate: a curve and tenor.
type Key struct {
	Curve string
	Tenor market.Tenor
}

func (k Key) String() string {
	return k.Curve + "^" + k.Tenor.String()
}

// Scenario is one set of additive rate shifts, aligned with Set.Keys.
type Scenario struct {
	ID     int
	Label  string
	Shifts []float64
}

// Set is an ordered, read-only collection of scenarios over the same keys.
type Set struct {
	Method    Method
	Horizon   int
	Keys      []Key
	Scenarios []Scenario

	index map[Key]int
	flat  map[string]int
}

// NewSet indexes keys so Shift lookups are safe for concurrent readers.
func NewSet(method Method, horizon int, keys []Key, scenarios []Scenario) *Set {
	s := &Set{
		Method:    method,
		Horizon:   horizon,
		Keys:      keys,
		Scenarios: scenarios,
		index:     make(map[Key]int, len(keys)),
		flat:      map[string]int{},
	}
	perCurve := map[string]int{}
	for i, k := range keys {
		s.index[k] = i
		perCurve[k.Curve]++
	}
	for i, k := range keys {
		if perCurve[k.Curve] == 1 {
			s.flat[k.Curve] = i
		}
	}
	return s
}

// Len is the scenario count.
func (s *Set) Len() int {
	return len(s.Scenarios)
}

// Shift returns the shift scenario sc applies to (curve, tenor). A curve
// carried by a single key answers for any tenor, which covers flat
// ("No Tenor") mappings.
func (s *Set) Shift(sc *Scenario, curve string, tenor market.Tenor) (float64, bool) {
	if i, ok := s.index[Key{Curve: curve, Tenor: tenor}]; ok {
		return sc.Shifts[i], true
	}
	if i, ok := s.flat[curve]; ok {
		return sc.Shifts[i], true
	}
	return 0, false
}

// Input is everything a generator reads. Series are never modified.
type Input struct {
	Series map[string]*market.CurveSeries
	Keys   []Key

	// Lookback window, inclusive. Zero values leave the side open.
	Start time.Time
	End   time.Time

	// Horizon in days.
	Horizon int

	// Monte Carlo only.
	Paths      int
	Seed       uint64
	Workers    int
	Correlated bool
}

// Generator produces a scenario set from history.
type Generator interface {
	Generate(ctx context.Context, in Input) (*Set, error)
}

// ForMethod returns the generator for a method.
func ForMethod(m Method) (Generator, error) {
	switch m {
	case Historical:
		return HistoricalGenerator{}, nil
	case MonteCarlo:
		return MonteCarloGenerator{}, nil
	default:
		return nil, fmt.Errorf("no generator for scenario method %q", m)
	}
}
