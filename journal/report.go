package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/portfolio"
	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/shopspring/decimal"
)

// money rounds to cents half away from zero.
func money(x float64) string {
	return decimal.NewFromFloat(x).Round(2).StringFixed(2)
}

func fixed(x float64, places int32) string {
	return decimal.NewFromFloat(x).Round(places).StringFixed(places)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteRiskSummary writes one row per run with the metric rounded to cents.
func WriteRiskSummary(w io.Writer, recs []RunRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		value := ""
		if r.Status != StatusFailed {
			value = money(r.Value)
		}
		rows = append(rows, []string{
			r.ConfigID, r.Spec, r.RunID, r.Status, r.Metric,
			strconv.Itoa(r.Horizon), fixed(r.Confidence, 4),
			value, strconv.Itoa(r.Scenarios), r.Breaches, r.Error,
		})
	}
	return writeAll(w, []string{
		"config_id", "spec", "run_id", "status", "metric", "horizon_days",
		"confidence", "value", "scenarios", "breaches", "error",
	}, rows)
}

// WritePnLVectors writes the PnL of every successful run in long format.
func WritePnLVectors(w io.Writer, recs []RunRecord) error {
	var rows [][]string
	for _, r := range recs {
		for i, v := range r.PnL {
			rows = append(rows, []string{r.ConfigID, r.RunID, strconv.Itoa(i), money(v)})
		}
	}
	return writeAll(w, []string{"config_id", "run_id", "scenario_id", "pnl"}, rows)
}

// WritePricedLegs writes base and scenario prices. Sensitivities are only
// filled on base rows.
func WritePricedLegs(w io.Writer, configID string, legs []pricing.PricedLeg) error {
	rows := make([][]string, 0, len(legs))
	for _, l := range legs {
		scen := "base"
		if l.Scenario != pricing.BaseScenario {
			scen = strconv.Itoa(l.Scenario)
		}
		row := []string{configID, l.Instrument, scen, l.Label, fixed(l.Price, 6), "", "", ""}
		if l.Scenario == pricing.BaseScenario {
			row[5] = fixed(l.DV01, 6)
			row[6] = fixed(l.Duration, 6)
			row[7] = fixed(l.Convexity, 6)
		}
		rows = append(rows, row)
	}
	return writeAll(w, []string{
		"config_id", "instrument", "scenario", "label", "price", "dv01", "modified_duration", "convexity",
	}, rows)
}

// WriteCashflows writes the position-scaled cash flow schedule.
func WriteCashflows(w io.Writer, flows []pricing.CashflowRow) error {
	rows := make([][]string, 0, len(flows))
	for _, cf := range flows {
		rows = append(rows, []string{
			cf.Instrument,
			cf.Date.Format(time.DateOnly),
			fixed(cf.Time, 6),
			fixed(cf.Coupon, 6),
			fixed(cf.Principal, 6),
			fixed(cf.Quantity, 6),
			money(cf.Amount),
			fixed(cf.ZeroRate, 8),
			fixed(cf.DiscountFactor, 8),
			money(cf.PresentValue),
		})
	}
	return writeAll(w, []string{
		"instrument", "date", "time", "coupon", "principal", "quantity",
		"amount", "zero_rate", "discount_factor", "present_value",
	}, rows)
}

// WritePositions writes the book as built at pf.AsOf.
func WritePositions(w io.Writer, pf *market.Portfolio) error {
	rows := make([][]string, 0, len(pf.Positions))
	for _, pos := range pf.Positions {
		rows = append(rows, []string{
			pos.Instrument.ID,
			pos.Ref.String(),
			fixed(pos.Weight, 6),
			money(pos.MarketValue),
			fixed(pos.Quantity, 6),
			fixed(portfolio.YearsToMaturity(pf.AsOf, pos.Instrument.MaturityDate), 4),
		})
	}
	return writeAll(w, []string{
		"instrument", "curve", "weight", "market_value", "quantity", "years_to_maturity",
	}, rows)
}

// WritePortfolioHistory writes one row per marked date with a market value
// column per instrument.
func WritePortfolioHistory(w io.Writer, h *portfolio.History) error {
	header := []string{"date"}
	for _, id := range h.Instruments {
		header = append(header, id+"_market_value")
	}
	header = append(header, "portfolio_value", "daily_pnl", "daily_yield")

	rows := make([][]string, 0, len(h.Points))
	for _, p := range h.Points {
		row := []string{p.Date.Format(time.DateOnly)}
		for _, mv := range p.MarketValues {
			row = append(row, money(mv))
		}
		row = append(row, money(p.Value), money(p.PnL), fixed(p.Yield, 8))
		rows = append(rows, row)
	}
	return writeAll(w, header, rows)
}

// PrintSummary renders runs as a table.
func PrintSummary(w io.Writer, recs []RunRecord) {
	table := tablewriter.NewWriter(w)
	table.Header("Config", "Run", "Metric", "Horizon", "Conf", "Value", "Scen", "Status")

	for _, r := range recs {
		value := "-"
		status := r.Status
		switch r.Status {
		case StatusFailed:
			status = "FAILED: " + truncate(r.Error, 60)
		case StatusBreach:
			value = money(r.Value)
			status = "BREACH " + r.Breaches
		default:
			value = money(r.Value)
		}
		horizon := "-"
		if r.Horizon > 0 {
			horizon = fmt.Sprintf("%dd", r.Horizon)
		}
		conf := "-"
		if r.Confidence > 0 {
			conf = fmt.Sprintf("%.2f%%", r.Confidence*100)
		}
		table.Append(
			r.ConfigID,
			short(r.RunID),
			r.Metric,
			horizon,
			conf,
			value,
			fmt.Sprintf("%d", r.Scenarios),
			status,
		)
	}
	table.Render()
}

func short(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
