package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

// Model selects how cash flows are discounted.
type Model string

const (
	YTM       Model = "ytm"
	ZeroCurve Model = "zero_curve"
)

// ParseModel accepts the run-config spelling of a pricing model.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToLower(strings.TrimSpace(s))); m {
	case YTM, ZeroCurve:
		return m, nil
	default:
		return "", fmt.Errorf("unknown pricing model %q (supported: ytm, zero_curve)", s)
	}
}

// ShiftFunc returns the additive rate shift for a curve point, or false when
// the scenario does not carry that point.
type ShiftFunc func(curve string, tenor market.Tenor) (float64, bool)

// ParallelShift moves every rate by dy.
func ParallelShift(dy float64) ShiftFunc {
	return func(string, market.Tenor) (float64, bool) { return dy, true }
}

// Valuer prices one instrument bound to its base market state.
type Valuer interface {
	Instrument() string
	Ref() market.CurveRef
	Schedule() *Schedule
	// Base is the clean price with no shift applied.
	Base() float64
	// Price reprices under shift; scenario only labels errors.
	Price(scenario int, shift ShiftFunc) (float64, error)
}

// Bind prepares a valuer for pos under model, valued at asOf against the
// snapshot of its mapped curve.
func Bind(model Model, pos market.Position, curve market.Curve, asOf time.Time) (Valuer, error) {
	id := pos.Instrument.ID
	if len(curve.Points) == 0 {
		return nil, invalid(id, BaseScenario, "no points on curve %q", pos.Ref.Curve)
	}
	if pos.Ref.Tenor == market.NoTenor && !curve.IsFlat() {
		return nil, invalid(id, BaseScenario, "no tenor mapped but curve %q has %d points", curve.Name, len(curve.Points))
	}
	sched, err := BuildSchedule(pos.Instrument, asOf)
	if err != nil {
		return nil, err
	}

	switch model {
	case YTM:
		return bindYTM(pos, curve, sched)
	case ZeroCurve:
		v := &zeroValuer{ref: pos.Ref, sched: sched, curve: curve}
		base, err := v.Price(BaseScenario, ParallelShift(0))
		if err != nil {
			return nil, err
		}
		v.base = base
		return v, nil
	default:
		return nil, fmt.Errorf("no valuer for pricing model %q", model)
	}
}

func checkPrice(id string, scenario int, price float64) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, invalid(id, scenario, "price is not finite")
	}
	if price < 0 {
		return 0, invalid(id, scenario, "negative price %.6f, check curve mapping", price)
	}
	return price, nil
}

// ytmValuer discounts every flow at one yield: the yield that reproduces the
// last market price, or the mapped curve rate when no price is known.
type ytmValuer struct {
	ref   market.CurveRef
	sched *Schedule
	yield float64
	base  float64
}

func bindYTM(pos market.Position, curve market.Curve, sched *Schedule) (*ytmValuer, error) {
	v := &ytmValuer{ref: pos.Ref, sched: sched}
	if px := pos.Instrument.LastPrice; px > 0 {
		y, err := SolveYield(sched, px)
		if err != nil {
			return nil, err
		}
		v.yield = y
	} else if r, ok := curve.RateAt(pos.Ref.Tenor); ok {
		v.yield = r
	} else {
		v.yield = curve.Rate(pos.Ref.Tenor.Years())
	}

	base, err := checkPrice(sched.Instrument, BaseScenario, CleanFromYield(sched, v.yield))
	if err != nil {
		return nil, err
	}
	v.base = base
	return v, nil
}

func (v *ytmValuer) Instrument() string   { return v.sched.Instrument }
func (v *ytmValuer) Ref() market.CurveRef { return v.ref }
func (v *ytmValuer) Schedule() *Schedule  { return v.sched }
func (v *ytmValuer) Base() float64        { return v.base }

func (v *ytmValuer) Price(scenario int, shift ShiftFunc) (float64, error) {
	dy, ok := shift(v.ref.Curve, v.ref.Tenor)
	if !ok {
		return 0, invalid(v.sched.Instrument, scenario, "no shift for %s", v.ref)
	}
	return checkPrice(v.sched.Instrument, scenario, CleanFromYield(v.sched, v.yield+dy))
}

// zeroValuer discounts each flow at the curve's zero rate for its time.
type zeroValuer struct {
	ref   market.CurveRef
	sched *Schedule
	curve market.Curve
	base  float64
}

func (v *zeroValuer) Instrument() string   { return v.sched.Instrument }
func (v *zeroValuer) Ref() market.CurveRef { return v.ref }
func (v *zeroValuer) Schedule() *Schedule  { return v.sched }
func (v *zeroValuer) Base() float64        { return v.base }

func (v *zeroValuer) Price(scenario int, shift ShiftFunc) (float64, error) {
	var missing []market.Tenor
	shifted := v.curve.Shifted(func(t market.Tenor) float64 {
		dy, ok := shift(v.curve.Name, t)
		if !ok {
			missing = append(missing, t)
		}
		return dy
	})
	if len(missing) > 0 {
		return 0, invalid(v.sched.Instrument, scenario, "no shift for %s^%s", v.curve.Name, missing[0])
	}

	var pv float64
	for _, cf := range v.sched.Flows {
		pv += cf.Amount() * discount(shifted.Rate(cf.Time), v.sched.Frequency, cf.Time)
	}
	return checkPrice(v.sched.Instrument, scenario, pv-v.sched.Accrued)
}
