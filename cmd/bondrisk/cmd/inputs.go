package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rustyeddy/bondrisk/config"
	"github.com/rustyeddy/bondrisk/internal/logger"
	"github.com/rustyeddy/bondrisk/journal"
	"github.com/rustyeddy/bondrisk/market"
)

func newLogger(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	level := cfg.Level
	if logLevel != "" {
		level = logLevel
	}
	return logger.New(logger.Options{Level: level, Format: cfg.Format})
}

func loadInstruments(path string, percent bool) ([]market.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return journal.ReadInstrumentsCSV(f, percent)
}

func loadCurvesCSV(path string, percent bool) (map[string]*market.CurveSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return journal.ReadCurvesCSV(f, percent)
}

// loadCurves reads curve history for names. A curves file wins and is
// imported into db when one is open; otherwise db must hold the curves.
func loadCurves(cfg *config.Config, db *journal.SQLite, names []string, log *slog.Logger) (map[string]*market.CurveSeries, error) {
	if cfg.Data.CurvesFile != "" {
		series, err := loadCurvesCSV(cfg.Data.CurvesFile, cfg.Data.RatesInPercent)
		if err != nil {
			return nil, fmt.Errorf("read curves: %w", err)
		}
		if db != nil {
			all := make([]*market.CurveSeries, 0, len(series))
			for _, cs := range series {
				all = append(all, cs)
			}
			n, err := db.ImportCurves(all...)
			if err != nil {
				return nil, fmt.Errorf("import curves: %w", err)
			}
			log.Info("curves imported", "file", cfg.Data.CurvesFile, "rows", n)
		}
		return series, nil
	}
	if db == nil {
		return nil, fmt.Errorf("no curve source: set data.curves_file or journal.db_path")
	}
	return db.LoadCurves(names, time.Time{}, time.Time{})
}

// openJournal returns the configured journal and the SQLite curve store,
// which is the journal itself for the sqlite type. closeAll closes both.
func openJournal(cfg config.JournalConfig) (j journal.Journal, db *journal.SQLite, closeAll func(), err error) {
	switch cfg.Type {
	case "csv":
		c, err := journal.NewCSV(cfg.RunsFile, cfg.PnLFile)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.DBPath != "" {
			if db, err = journal.NewSQLite(cfg.DBPath); err != nil {
				c.Close()
				return nil, nil, nil, err
			}
		}
		return c, db, func() {
			c.Close()
			if db != nil {
				db.Close()
			}
		}, nil
	default:
		db, err = journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, func() { db.Close() }, nil
	}
}
