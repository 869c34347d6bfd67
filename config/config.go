package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/bondrisk/engine"
	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/portfolio"
	"github.com/rustyeddy/bondrisk/risk"
	"github.com/rustyeddy/bondrisk/scenario"
	"gopkg.in/yaml.v3"
)

// Config represents a complete risk engine setup
type Config struct {
	Title     string          `json:"title,omitempty" yaml:"title,omitempty"`
	AsOf      string          `json:"as_of" yaml:"as_of"`
	Data      DataConfig      `json:"data" yaml:"data"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Reports   ReportsConfig   `json:"reports" yaml:"reports"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// DataConfig locates the instrument and curve inputs. Curves come from the
// journal database when it holds them, otherwise from CurvesFile.
type DataConfig struct {
	InstrumentsFile string `json:"instruments_file" yaml:"instruments_file"`
	CurvesFile      string `json:"curves_file,omitempty" yaml:"curves_file,omitempty"`

	// RatesInPercent divides coupon and curve rates by 100 on load.
	RatesInPercent bool `json:"rates_in_percent" yaml:"rates_in_percent"`
}

// PortfolioConfig contains portfolio construction parameters
type PortfolioConfig struct {
	// Name tags journaled runs so portfolios can be compared per spec.
	Name      string             `json:"name,omitempty" yaml:"name,omitempty"`
	TotalFund float64            `json:"total_fund" yaml:"total_fund"`
	Weighting string             `json:"weighting" yaml:"weighting"`
	Weights   map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Seed      uint64             `json:"seed,omitempty" yaml:"seed,omitempty"`

	// CurveMapping is "id^curve^tenor|id^curve^tenor|...".
	CurveMapping string `json:"curve_mapping" yaml:"curve_mapping"`

	// HistoryStart opens the value history window; empty uses the
	// lookback start.
	HistoryStart string `json:"history_start,omitempty" yaml:"history_start,omitempty"`
}

// RunSpec is one named run config, e.g.
// "var|historical|full_revaluation^ytm|var_type^1^99".
type RunSpec struct {
	ID   string `json:"id" yaml:"id"`
	Spec string `json:"spec" yaml:"spec"`
}

// StressConfig is a named curve move in decimal rate units. ByTenor keys
// are month counts or "No Tenor".
type StressConfig struct {
	Parallel float64            `json:"parallel" yaml:"parallel"`
	ByTenor  map[string]float64 `json:"by_tenor,omitempty" yaml:"by_tenor,omitempty"`
}

// RiskConfig contains scenario generation and run parameters
type RiskConfig struct {
	Runs          []RunSpec               `json:"runs" yaml:"runs"`
	LookbackStart string                  `json:"lookback_start,omitempty" yaml:"lookback_start,omitempty"`
	LookbackEnd   string                  `json:"lookback_end,omitempty" yaml:"lookback_end,omitempty"`
	Paths         int                     `json:"paths" yaml:"paths"`
	Seed          uint64                  `json:"seed" yaml:"seed"`
	Correlated    bool                    `json:"correlated" yaml:"correlated"`
	Workers       int                     `json:"workers,omitempty" yaml:"workers,omitempty"`
	ParallelRuns  int                     `json:"parallel_runs,omitempty" yaml:"parallel_runs,omitempty"`
	MaxGapDays    int                     `json:"max_gap_days,omitempty" yaml:"max_gap_days,omitempty"`
	Stress        map[string]StressConfig `json:"stress,omitempty" yaml:"stress,omitempty"`
	Limits        LimitsConfig            `json:"limits" yaml:"limits"`
}

// LimitsConfig bounds acceptable losses. Zero disables a limit.
type LimitsConfig struct {
	MaxLoss    float64 `json:"max_loss" yaml:"max_loss"`
	MaxLossPct float64 `json:"max_loss_pct" yaml:"max_loss_pct"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type     string `json:"type" yaml:"type"` // "csv" or "sqlite"
	RunsFile string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	PnLFile  string `json:"pnl_file,omitempty" yaml:"pnl_file,omitempty"`
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ReportsConfig selects the files written after a run. An empty Dir
// writes nothing.
type ReportsConfig struct {
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	PricedLegs bool   `json:"priced_legs" yaml:"priced_legs"`
	Cashflows  bool   `json:"cashflows" yaml:"cashflows"`
	RunBook    bool   `json:"runbook" yaml:"runbook"`
	History    bool   `json:"history" yaml:"history"`
}

// LogConfig selects the logger level and encoding ("json" or "console").
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to
// JSON). A .env file in the working directory is loaded first and
// BONDRISK_* variables override the file.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BONDRISK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BONDRISK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BONDRISK_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("BONDRISK_MC_PATHS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BONDRISK_MC_PATHS: %w", err)
		}
		cfg.Risk.Paths = n
	}
	if v := os.Getenv("BONDRISK_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BONDRISK_SEED: %w", err)
		}
		cfg.Risk.Seed = n
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Portfolio.Weighting == "" {
		cfg.Portfolio.Weighting = portfolio.EqualWeight
	}
	if cfg.Risk.Paths == 0 {
		cfg.Risk.Paths = scenario.DefaultPaths
	}
	if cfg.Risk.MaxGapDays == 0 {
		cfg.Risk.MaxGapDays = market.DefaultMaxGapDays
	}
	if cfg.Journal.Type == "" {
		cfg.Journal.Type = "sqlite"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.AsOfDate(); err != nil {
		return err
	}
	if c.Data.InstrumentsFile == "" {
		return fmt.Errorf("data.instruments_file is required")
	}
	if c.Data.CurvesFile == "" && c.Journal.DBPath == "" {
		return fmt.Errorf("data.curves_file or journal.db_path is required")
	}
	if c.Portfolio.TotalFund <= 0 {
		return fmt.Errorf("portfolio.total_fund must be positive")
	}
	switch c.Portfolio.Weighting {
	case portfolio.EqualWeight, portfolio.RandomWeight:
	case portfolio.ExplicitWeight:
		if len(c.Portfolio.Weights) == 0 {
			return fmt.Errorf("portfolio.weights required for explicit weighting")
		}
	default:
		return fmt.Errorf("unknown portfolio.weighting %q", c.Portfolio.Weighting)
	}
	if _, err := market.ParseCurveMapping(c.Portfolio.CurveMapping); err != nil {
		return fmt.Errorf("portfolio.curve_mapping: %w", err)
	}

	if _, _, err := c.HistoryWindow(); err != nil {
		return err
	}

	if _, err := c.RunConfigs(); err != nil {
		return err
	}
	start, end, err := c.Lookback()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return fmt.Errorf("risk.lookback_start must be before risk.lookback_end")
	}
	if c.Risk.Paths < 0 {
		return fmt.Errorf("risk.paths must not be negative")
	}
	if _, err := c.StressShocks(); err != nil {
		return err
	}
	if c.Risk.Limits.MaxLoss < 0 || c.Risk.Limits.MaxLossPct < 0 || c.Risk.Limits.MaxLossPct > 1 {
		return fmt.Errorf("risk.limits: max_loss must be >= 0 and max_loss_pct in [0, 1]")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.PnLFile == "" {
			return fmt.Errorf("journal runs_file and pnl_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// AsOfDate parses the valuation date.
func (c *Config) AsOfDate() (time.Time, error) {
	if c.AsOf == "" {
		return time.Time{}, fmt.Errorf("as_of is required")
	}
	t, err := time.Parse(time.DateOnly, c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of: %w", err)
	}
	return t, nil
}

// Lookback parses the optional lookback window. Unset bounds are zero.
func (c *Config) Lookback() (start, end time.Time, err error) {
	if c.Risk.LookbackStart != "" {
		if start, err = time.Parse(time.DateOnly, c.Risk.LookbackStart); err != nil {
			return start, end, fmt.Errorf("risk.lookback_start: %w", err)
		}
	}
	if c.Risk.LookbackEnd != "" {
		if end, err = time.Parse(time.DateOnly, c.Risk.LookbackEnd); err != nil {
			return start, end, fmt.Errorf("risk.lookback_end: %w", err)
		}
	}
	return start, end, nil
}

// HistoryWindow is the portfolio value history range, ending at as_of.
func (c *Config) HistoryWindow() (start, end time.Time, err error) {
	if end, err = c.AsOfDate(); err != nil {
		return start, end, err
	}
	if c.Portfolio.HistoryStart == "" {
		start, _, err = c.Lookback()
		return start, end, err
	}
	if start, err = time.Parse(time.DateOnly, c.Portfolio.HistoryStart); err != nil {
		return start, end, fmt.Errorf("portfolio.history_start: %w", err)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("portfolio.history_start must be before as_of")
	}
	return start, end, nil
}

// PortfolioName is the tag journaled with every run.
func (c *Config) PortfolioName() string {
	if c.Portfolio.Name != "" {
		return c.Portfolio.Name
	}
	if c.Portfolio.Weighting == portfolio.RandomWeight {
		return fmt.Sprintf("%s_%d", c.Portfolio.Weighting, c.Portfolio.Seed)
	}
	return c.Portfolio.Weighting
}

// RunConfigs parses every configured run. Ids must be unique.
func (c *Config) RunConfigs() ([]engine.RunConfig, error) {
	if len(c.Risk.Runs) == 0 {
		return nil, fmt.Errorf("risk.runs: at least one run is required")
	}
	seen := map[string]bool{}
	out := make([]engine.RunConfig, 0, len(c.Risk.Runs))
	for _, r := range c.Risk.Runs {
		if r.ID == "" {
			return nil, fmt.Errorf("risk.runs: run with spec %q has no id", r.Spec)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("risk.runs: duplicate id %q", r.ID)
		}
		seen[r.ID] = true
		rc, err := engine.ParseRunConfig(r.ID, r.Spec)
		if err != nil {
			return nil, fmt.Errorf("risk.runs: %w", err)
		}
		out = append(out, rc)
	}
	return out, nil
}

// StressShocks converts the configured stress scenarios. They are merged
// over the built-in ones by the engine.
func (c *Config) StressShocks() (map[string]scenario.StressShock, error) {
	out := make(map[string]scenario.StressShock, len(c.Risk.Stress))
	for name, s := range c.Risk.Stress {
		shock := scenario.StressShock{Parallel: s.Parallel}
		if len(s.ByTenor) > 0 {
			shock.ByTenor = make(map[market.Tenor]float64, len(s.ByTenor))
			for k, v := range s.ByTenor {
				t, err := market.ParseTenor(k)
				if err != nil {
					return nil, fmt.Errorf("risk.stress.%s: %w", name, err)
				}
				shock.ByTenor[t] = v
			}
		}
		out[name] = shock
	}
	return out, nil
}

// Policy is the loss limit policy checked after every run.
func (c *Config) Policy() risk.Policy {
	return risk.Policy{MaxLoss: c.Risk.Limits.MaxLoss, MaxLossPct: c.Risk.Limits.MaxLossPct}
}

// PortfolioOptions maps the portfolio section onto portfolio.Build.
func (c *Config) PortfolioOptions() portfolio.Options {
	return portfolio.Options{
		Approach: c.Portfolio.Weighting,
		Weights:  c.Portfolio.Weights,
		Seed:     c.Portfolio.Seed,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Title: "Bond portfolio risk",
		AsOf:  "2024-12-31",
		Data: DataConfig{
			InstrumentsFile: "./data/instruments.csv",
			CurvesFile:      "./data/yield_curves.csv",
			RatesInPercent:  true,
		},
		Portfolio: PortfolioConfig{
			TotalFund:    1_000_000,
			Weighting:    portfolio.EqualWeight,
			CurveMapping: "UST2Y^UST^24|UST10Y^UST^120|CORP5Y^Corp^No Tenor",
		},
		Risk: RiskConfig{
			Runs: []RunSpec{
				{ID: "run_config_1", Spec: "var|historical|full_revaluation^ytm|var_type^1^99"},
				{ID: "run_config_2", Spec: "var|monte_carlo|sensitivity_approximation^zero_curve|expected_shortfall^10^99"},
				{ID: "run_config_3", Spec: "stress_testing|financial_crisis_2008|full_revaluation^ytm"},
			},
			LookbackStart: "2022-01-01",
			Paths:         scenario.DefaultPaths,
			Seed:          42,
			MaxGapDays:    market.DefaultMaxGapDays,
			Limits:        LimitsConfig{MaxLossPct: 0.05},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./bondrisk.db",
		},
		Reports: ReportsConfig{
			Dir:     "./reports",
			RunBook: true,
			History: true,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}
