package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/pricing"
)

// HistoryPoint is the book marked to market on one curve date.
type HistoryPoint struct {
	Date time.Time
	// MarketValues follow portfolio positions.
	MarketValues []float64
	Value        float64
	// PnL and Yield are against the previous point and zero on the first.
	PnL   float64
	Yield float64
}

// History is the daily value of a fixed book over a window of curve dates.
type History struct {
	Instruments []string
	Points      []HistoryPoint
}

// ValueHistory marks every position of pf on each date in [start, end]
// where all mapped curve rates were observed. Quantities are held fixed and
// each date prices from its own settlement, so years to maturity shrink
// along the window. Zero bounds are open.
func ValueHistory(pf *market.Portfolio, series map[string]*market.CurveSeries, start, end time.Time) (*History, error) {
	if len(pf.Positions) == 0 {
		return nil, fmt.Errorf("portfolio history: no positions")
	}

	rates := make([]map[time.Time]float64, len(pf.Positions))
	var dates []time.Time
	for i, pos := range pf.Positions {
		cs, ok := series[pos.Ref.Curve]
		if !ok {
			return nil, fmt.Errorf("portfolio history: no curve %q for %s", pos.Ref.Curve, pos.Instrument.ID)
		}
		rates[i] = map[time.Time]float64{}
		for _, o := range cs.Window(start, end) {
			if r, ok := o.Rates[pos.Ref.Tenor]; ok {
				rates[i][o.Date] = r
			}
		}
		if i == 0 {
			for d := range rates[0] {
				dates = append(dates, d)
			}
		}
	}

	common := dates[:0]
	for _, d := range dates {
		keep := true
		for _, r := range rates[1:] {
			if _, ok := r[d]; !ok {
				keep = false
				break
			}
		}
		if keep {
			common = append(common, d)
		}
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("portfolio history: no date with a rate for every position")
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	h := &History{Instruments: make([]string, len(pf.Positions))}
	for i, pos := range pf.Positions {
		h.Instruments[i] = pos.Instrument.ID
	}
	for _, d := range common {
		p := HistoryPoint{Date: d, MarketValues: make([]float64, len(pf.Positions))}
		for i, pos := range pf.Positions {
			sched, err := pricing.BuildSchedule(pos.Instrument, d)
			if err != nil {
				return nil, fmt.Errorf("portfolio history %s: %w", d.Format(time.DateOnly), err)
			}
			p.MarketValues[i] = pricing.CleanFromYield(sched, rates[i][d]) * pos.Quantity
			p.Value += p.MarketValues[i]
		}
		if n := len(h.Points); n > 0 {
			prev := h.Points[n-1].Value
			p.PnL = p.Value - prev
			if prev != 0 {
				p.Yield = p.Value/prev - 1
			}
		}
		h.Points = append(h.Points, p)
	}
	return h, nil
}

// MonthlyYield is the change in book value over one calendar month.
type MonthlyYield struct {
	Month time.Time
	Yield float64
}

// HistorySummary condenses a history for reports.
type HistorySummary struct {
	Start, End           time.Time
	StartValue, EndValue float64
	Appreciation         float64
	Monthly              []MonthlyYield
	// Best and Worst are zero without a complete month.
	Best, Worst MonthlyYield
}

// Summary compares the first and last points and measures each month from
// the previous month's last observation, the first month from the first
// point.
func (h *History) Summary() HistorySummary {
	var s HistorySummary
	if len(h.Points) == 0 {
		return s
	}
	first, last := h.Points[0], h.Points[len(h.Points)-1]
	s.Start, s.End = first.Date, last.Date
	s.StartValue, s.EndValue = first.Value, last.Value
	if first.Value != 0 {
		s.Appreciation = last.Value/first.Value - 1
	}

	base := first.Value
	for i, p := range h.Points {
		monthEnd := i == len(h.Points)-1 || !sameMonth(p.Date, h.Points[i+1].Date)
		if !monthEnd || i == 0 {
			continue
		}
		m := MonthlyYield{Month: time.Date(p.Date.Year(), p.Date.Month(), 1, 0, 0, 0, 0, time.UTC)}
		if base != 0 {
			m.Yield = p.Value/base - 1
		}
		s.Monthly = append(s.Monthly, m)
		base = p.Value
	}
	for i, m := range s.Monthly {
		if i == 0 || m.Yield > s.Best.Yield {
			s.Best = m
		}
		if i == 0 || m.Yield < s.Worst.Yield {
			s.Worst = m
		}
	}
	return s
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
