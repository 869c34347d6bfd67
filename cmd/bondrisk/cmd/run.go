package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rustyeddy/bondrisk/config"
	"github.com/rustyeddy/bondrisk/engine"
	"github.com/rustyeddy/bondrisk/journal"
	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/portfolio"
	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every configured risk run",
	Long: `Build the portfolio, load curve history and execute every run config
in the config file. Results are journaled, written as reports and
summarised on stdout.

Example:
  bondrisk run -f bondrisk.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, sync, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer sync()

	asOf, err := cfg.AsOfDate()
	if err != nil {
		return err
	}
	start, end, err := cfg.Lookback()
	if err != nil {
		return err
	}
	runs, err := cfg.RunConfigs()
	if err != nil {
		return err
	}
	stress, err := cfg.StressShocks()
	if err != nil {
		return err
	}

	instruments, err := loadInstruments(cfg.Data.InstrumentsFile, cfg.Data.RatesInPercent)
	if err != nil {
		return fmt.Errorf("read instruments: %w", err)
	}
	mapping, err := market.ParseCurveMapping(cfg.Portfolio.CurveMapping)
	if err != nil {
		return err
	}
	pf, err := portfolio.Build(instruments, mapping, cfg.PortfolioOptions(), cfg.Portfolio.TotalFund, asOf)
	if err != nil {
		return err
	}
	log.Info("portfolio built", "positions", len(pf.Positions), "total_fund", pf.TotalFund, "weighting", cfg.Portfolio.Weighting)

	j, db, closeJournal, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer closeJournal()

	series, err := loadCurves(cfg, db, pf.Curves(), log)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(engine.Inputs{
		Portfolio:  pf,
		Series:     series,
		AsOf:       asOf,
		Start:      start,
		End:        end,
		Paths:      cfg.Risk.Paths,
		Seed:       cfg.Risk.Seed,
		Correlated: cfg.Risk.Correlated,
		Workers:    cfg.Risk.Workers,
		Runs:       cfg.Risk.ParallelRuns,
		Stress:     stress,
		MaxGapDays: cfg.Risk.MaxGapDays,
		Policy:     cfg.Policy(),
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep := eng.Run(ctx, runs)

	var recs []journal.RunRecord
	rep.Each(func(o *engine.Outcome) {
		r := journal.NewRunRecord(o)
		r.Portfolio = cfg.PortfolioName()
		if err := j.RecordRun(r); err != nil {
			log.Error("journal run", "config", r.ConfigID, "run_id", r.RunID, "err", err)
		}
		recs = append(recs, r)
	})

	if cfg.Reports.Dir != "" {
		if err := writeReports(cfg, eng, series, rep, recs, log); err != nil {
			return fmt.Errorf("write reports: %w", err)
		}
	}

	journal.PrintSummary(cmd.OutOrStdout(), recs)

	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d runs failed", len(failed), len(recs))
	}
	return nil
}

func writeReports(cfg *config.Config, eng *engine.Engine, series map[string]*market.CurveSeries, rep *engine.Report, recs []journal.RunRecord, log *slog.Logger) error {
	pf := eng.Portfolio()
	dir := cfg.Reports.Dir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, "risk_summary.csv"), func(w io.Writer) error {
		return journal.WriteRiskSummary(w, recs)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "pnl_vectors.csv"), func(w io.Writer) error {
		return journal.WritePnLVectors(w, recs)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, "positions.csv"), func(w io.Writer) error {
		return journal.WritePositions(w, pf)
	}); err != nil {
		return err
	}

	if cfg.Reports.PricedLegs {
		var werr error
		rep.Each(func(o *engine.Outcome) {
			if werr != nil || o.Legs == nil {
				return
			}
			werr = writeFile(filepath.Join(dir, "priced_legs_"+o.Config.ID+".csv"), func(w io.Writer) error {
				return journal.WritePricedLegs(w, o.Config.ID, o.Legs.Records())
			})
		})
		if werr != nil {
			return werr
		}
	}

	if cfg.Reports.Cashflows {
		flows, err := pricing.Cashflows(pf, eng.Curves())
		if err != nil {
			return fmt.Errorf("cashflows: %w", err)
		}
		if err := writeFile(filepath.Join(dir, "cashflows.csv"), func(w io.Writer) error {
			return journal.WriteCashflows(w, flows)
		}); err != nil {
			return err
		}
	}

	var notes []string
	if cfg.Reports.History {
		start, end, err := cfg.HistoryWindow()
		if err != nil {
			return err
		}
		h, err := portfolio.ValueHistory(pf, series, start, end)
		if err != nil {
			return fmt.Errorf("portfolio history: %w", err)
		}
		if err := writeFile(filepath.Join(dir, "portfolio_history.csv"), func(w io.Writer) error {
			return journal.WritePortfolioHistory(w, h)
		}); err != nil {
			return err
		}
		sum := h.Summary()
		log.Info("portfolio history", "points", len(h.Points), "start_value", sum.StartValue,
			"end_value", sum.EndValue, "appreciation", sum.Appreciation)
		notes = append(notes, historyNotes(sum)...)
	}

	if cfg.Reports.RunBook {
		book := &journal.RunBook{
			Title:     cfg.Title,
			AsOf:      pf.AsOf,
			Portfolio: fmt.Sprintf("%d positions, %s", len(pf.Positions), cfg.Portfolio.Weighting),
			TotalFund: pf.TotalFund,
			Runs:      recs,
			Created:   time.Now(),
			Notes:     notes,
		}
		return book.WriteOrg(filepath.Join(dir, "runbook.org"))
	}
	return nil
}

func historyNotes(s portfolio.HistorySummary) []string {
	notes := []string{fmt.Sprintf("Value %s to %s: %.2f -> %.2f (%+.2f%%)",
		s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly), s.StartValue, s.EndValue, s.Appreciation*100)}
	if len(s.Monthly) > 0 {
		notes = append(notes,
			fmt.Sprintf("Best month %s: %+.2f%%", s.Best.Month.Format("2006-01"), s.Best.Yield*100),
			fmt.Sprintf("Worst month %s: %+.2f%%", s.Worst.Month.Format("2006-01"), s.Worst.Yield*100))
	}
	return notes
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
