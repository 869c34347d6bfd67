package market

import (
	"fmt"
	"sort"
	"time"
)

// DefaultMaxGapDays allows a weekend plus one business holiday between
// consecutive observations.
const DefaultMaxGapDays = 5

// Observation holds every tenor's rate for one date.
type Observation struct {
	Date  time.Time
	Rates map[Tenor]float64
}

// CurveSeries is the daily history of one named yield curve.
type CurveSeries struct {
	Name         string
	Observations []Observation
}

// Validate checks that dates are strictly increasing and that no two
// consecutive observations are more than maxGapDays calendar days apart.
// maxGapDays <= 0 disables the gap check.
func (cs *CurveSeries) Validate(maxGapDays int) error {
	if cs.Name == "" {
		return fmt.Errorf("curve name is required")
	}
	for i, o := range cs.Observations {
		if len(o.Rates) == 0 {
			return fmt.Errorf("curve %s: no rates on %s", cs.Name, o.Date.Format(time.DateOnly))
		}
		if i == 0 {
			continue
		}
		prev := cs.Observations[i-1].Date
		if !o.Date.After(prev) {
			return fmt.Errorf("curve %s: dates not strictly increasing at %s", cs.Name, o.Date.Format(time.DateOnly))
		}
		if maxGapDays > 0 {
			gap := int(o.Date.Sub(prev).Hours() / 24)
			if gap > maxGapDays {
				return fmt.Errorf("curve %s: %d day gap between %s and %s exceeds %d",
					cs.Name, gap, prev.Format(time.DateOnly), o.Date.Format(time.DateOnly), maxGapDays)
			}
		}
	}
	return nil
}

// Window returns the observations with start <= date <= end. A zero start
// or end leaves that side open.
func (cs *CurveSeries) Window(start, end time.Time) []Observation {
	var out []Observation
	for _, o := range cs.Observations {
		if !start.IsZero() && o.Date.Before(start) {
			continue
		}
		if !end.IsZero() && o.Date.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Tenors lists every tenor seen in the series in ascending order.
func (cs *CurveSeries) Tenors() []Tenor {
	seen := map[Tenor]bool{}
	for _, o := range cs.Observations {
		for t := range o.Rates {
			seen[t] = true
		}
	}
	out := make([]Tenor, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns the curve as of the latest observation on or before date.
func (cs *CurveSeries) Snapshot(date time.Time) (Curve, error) {
	idx := sort.Search(len(cs.Observations), func(i int) bool {
		return cs.Observations[i].Date.After(date)
	})
	if idx == 0 {
		return Curve{}, fmt.Errorf("curve %s: no observation on or before %s", cs.Name, date.Format(time.DateOnly))
	}
	o := cs.Observations[idx-1]
	c := Curve{Name: cs.Name, Date: o.Date}
	for t, r := range o.Rates {
		c.Points = append(c.Points, Point{Tenor: t, Rate: r})
	}
	sort.Slice(c.Points, func(i, j int) bool { return c.Points[i].Tenor < c.Points[j].Tenor })
	return c, nil
}

// Point is one tenor/rate pair of a curve snapshot.
type Point struct {
	Tenor Tenor
	Rate  float64
}

// Curve is a single-date yield curve with points sorted by tenor.
type Curve struct {
	Name   string
	Date   time.Time
	Points []Point
}

// Flat builds a single-rate curve.
func Flat(name string, rate float64) Curve {
	return Curve{Name: name, Points: []Point{{Tenor: NoTenor, Rate: rate}}}
}

// IsFlat reports whether the curve carries a single rate.
func (c Curve) IsFlat() bool {
	return len(c.Points) == 1
}

// RateAt returns the rate at an exact tenor. For a flat curve any tenor
// resolves to the single rate.
func (c Curve) RateAt(t Tenor) (float64, bool) {
	if c.IsFlat() {
		return c.Points[0].Rate, true
	}
	for _, p := range c.Points {
		if p.Tenor == t {
			return p.Rate, true
		}
	}
	return 0, false
}

// Rate interpolates linearly in years with flat extrapolation beyond the
// first and last tenor.
func (c Curve) Rate(years float64) float64 {
	n := len(c.Points)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return c.Points[0].Rate
	}
	if years <= c.Points[0].Tenor.Years() {
		return c.Points[0].Rate
	}
	if years >= c.Points[n-1].Tenor.Years() {
		return c.Points[n-1].Rate
	}
	i := sort.Search(n, func(i int) bool { return c.Points[i].Tenor.Years() >= years })
	lo, hi := c.Points[i-1], c.Points[i]
	x0, x1 := lo.Tenor.Years(), hi.Tenor.Years()
	w := (years - x0) / (x1 - x0)
	return lo.Rate + w*(hi.Rate-lo.Rate)
}

// Shifted returns a copy with every point's rate moved by fn(tenor).
func (c Curve) Shifted(fn func(Tenor) float64) Curve {
	out := Curve{Name: c.Name, Date: c.Date, Points: make([]Point, len(c.Points))}
	for i, p := range c.Points {
		out.Points[i] = Point{Tenor: p.Tenor, Rate: p.Rate + fn(p.Tenor)}
	}
	return out
}
