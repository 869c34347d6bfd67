package pricing

import (
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

// Cashflow is one dated payment per unit of the instrument. Time is the
// ACT/365 year fraction from the valuation date.
type Cashflow struct {
	Date      time.Time
	Time      float64
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Schedule is the remaining cash flows of an instrument as of a date.
type Schedule struct {
	Instrument string
	AsOf       time.Time
	Frequency  int
	Flows      []Cashflow

	// Accrued is the coupon earned since the previous coupon date, so that
	// clean = dirty - Accrued.
	Accrued float64
}

// BuildSchedule walks coupon dates back from maturity in steps of
// 12/frequency months, keeping those after asOf and after the issue date.
func BuildSchedule(inst market.Instrument, asOf time.Time) (*Schedule, error) {
	if err := inst.Validate(); err != nil {
		return nil, invalid(inst.ID, BaseScenario, "%v", err)
	}
	if !inst.MaturityDate.After(asOf) {
		return nil, invalid(inst.ID, BaseScenario, "matured on %s, valuation date %s",
			inst.MaturityDate.Format(time.DateOnly), asOf.Format(time.DateOnly))
	}

	step := 12 / inst.CouponFrequency
	coupon := inst.FaceValue * inst.CouponRate / float64(inst.CouponFrequency)

	var dates []time.Time
	k := 0
	for {
		d := addMonths(inst.MaturityDate, -k*step)
		if !d.After(asOf) {
			break
		}
		if !inst.IssueDate.IsZero() && !d.After(inst.IssueDate) {
			break
		}
		dates = append(dates, d)
		k++
	}

	s := &Schedule{
		Instrument: inst.ID,
		AsOf:       asOf,
		Frequency:  inst.CouponFrequency,
		Flows:      make([]Cashflow, len(dates)),
	}
	for i := range dates {
		d := dates[len(dates)-1-i]
		s.Flows[i] = Cashflow{Date: d, Time: yearFraction(asOf, d), Coupon: coupon}
	}
	s.Flows[len(s.Flows)-1].Principal = inst.FaceValue

	// accrual runs from the previous coupon date (or issue) to asOf
	first := s.Flows[0].Date
	prev := addMonths(first, -step)
	if !inst.IssueDate.IsZero() && inst.IssueDate.After(prev) {
		prev = inst.IssueDate
	}
	if asOf.After(prev) {
		period := first.Sub(addMonths(first, -step)).Hours()
		s.Accrued = coupon * asOf.Sub(prev).Hours() / period
	}
	return s, nil
}

// addMonths behaves like a spreadsheet EDATE: the day is clamped to the
// end of the target month instead of rolling over.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	d := t.Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// yearFraction is ACT/365.
func yearFraction(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365
}
