package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

var dateLayouts = []string{time.DateOnly, "01/02/2006", "2006/01/02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// header maps lower-cased column names to their index and checks that
// every required column is present.
func header(row []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// ReadCurvesCSV reads long format curve history:
//
//	curve,date,tenor,rate
//
// tenor is a month count or "No Tenor". With percent set, rates are
// divided by 100. Observations come back sorted by date.
func ReadCurvesCSV(r io.Reader, percent bool) (map[string]*market.CurveSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("curves csv: %w", err)
	}
	cols, err := header(first, "curve", "date", "tenor", "rate")
	if err != nil {
		return nil, fmt.Errorf("curves csv: %w", err)
	}

	byCurve := map[string]map[time.Time]map[market.Tenor]float64{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("curves csv line %d: %w", line, err)
		}
		if len(row) < len(first) || strings.TrimSpace(row[cols["curve"]]) == "" {
			continue
		}

		name := strings.TrimSpace(row[cols["curve"]])
		d, err := parseDate(row[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("curves csv line %d: %w", line, err)
		}
		tenor, err := market.ParseTenor(row[cols["tenor"]])
		if err != nil {
			return nil, fmt.Errorf("curves csv line %d: %w", line, err)
		}
		raw := strings.TrimSpace(row[cols["rate"]])
		if raw == "" || strings.EqualFold(raw, "N/A") {
			continue
		}
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("curves csv line %d: bad rate %q: %w", line, raw, err)
		}
		if percent {
			rate /= 100
		}

		dates, ok := byCurve[name]
		if !ok {
			dates = map[time.Time]map[market.Tenor]float64{}
			byCurve[name] = dates
		}
		if dates[d] == nil {
			dates[d] = map[market.Tenor]float64{}
		}
		dates[d][tenor] = rate
	}

	out := make(map[string]*market.CurveSeries, len(byCurve))
	for name, dates := range byCurve {
		cs := &market.CurveSeries{Name: name}
		for d, rates := range dates {
			cs.Observations = append(cs.Observations, market.Observation{Date: d, Rates: rates})
		}
		sort.Slice(cs.Observations, func(i, j int) bool {
			return cs.Observations[i].Date.Before(cs.Observations[j].Date)
		})
		out[name] = cs
	}
	return out, nil
}

// ReadInstrumentsCSV reads the instrument table. The id column may be
// named id or cusip; coupon_frequency defaults to 2 when absent. Unknown
// columns are ignored.
func ReadInstrumentsCSV(r io.Reader, percent bool) ([]market.Instrument, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("instruments csv: %w", err)
	}
	cols, err := header(first, "face_value", "coupon_rate", "maturity_date")
	if err != nil {
		return nil, fmt.Errorf("instruments csv: %w", err)
	}
	idCol, ok := cols["id"]
	if !ok {
		if idCol, ok = cols["cusip"]; !ok {
			return nil, fmt.Errorf("instruments csv: missing columns: id")
		}
	}
	get := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []market.Instrument
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("instruments csv line %d: %w", line, err)
		}
		if idCol >= len(row) || strings.TrimSpace(row[idCol]) == "" {
			continue
		}

		inst := market.Instrument{
			ID:              strings.TrimSpace(row[idCol]),
			Issuer:          get(row, "issuer"),
			CouponFrequency: 2,
		}
		bad := func(field string, err error) error {
			return fmt.Errorf("instruments csv line %d (%s): %s: %w", line, inst.ID, field, err)
		}

		if inst.FaceValue, err = strconv.ParseFloat(get(row, "face_value"), 64); err != nil {
			return nil, bad("face_value", err)
		}
		if inst.CouponRate, err = strconv.ParseFloat(get(row, "coupon_rate"), 64); err != nil {
			return nil, bad("coupon_rate", err)
		}
		if percent {
			inst.CouponRate /= 100
		}
		if s := get(row, "coupon_frequency"); s != "" {
			if inst.CouponFrequency, err = strconv.Atoi(s); err != nil {
				return nil, bad("coupon_frequency", err)
			}
		}
		if s := get(row, "issue_date"); s != "" {
			if inst.IssueDate, err = parseDate(s); err != nil {
				return nil, bad("issue_date", err)
			}
		}
		if inst.MaturityDate, err = parseDate(get(row, "maturity_date")); err != nil {
			return nil, bad("maturity_date", err)
		}
		if s := get(row, "last_price"); s != "" {
			if inst.LastPrice, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, bad("last_price", err)
			}
		}
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("instruments csv line %d: %w", line, err)
		}
		out = append(out, inst)
	}
	return out, nil
}
