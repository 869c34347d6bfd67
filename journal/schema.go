package journal

const Schema = `
CREATE TABLE IF NOT EXISTS yield_curves (
	curve TEXT NOT NULL,
	date TEXT NOT NULL,
	tenor INTEGER NOT NULL,
	rate REAL NOT NULL,
	PRIMARY KEY (curve, date, tenor)
);

CREATE TABLE IF NOT EXISTS risk_runs (
	run_id TEXT PRIMARY KEY,
	config_id TEXT NOT NULL,
	portfolio TEXT NOT NULL DEFAULT '',
	spec TEXT NOT NULL,
	status TEXT NOT NULL,
	metric TEXT NOT NULL,
	horizon INTEGER NOT NULL,
	confidence REAL NOT NULL,
	value REAL NOT NULL,
	scenarios INTEGER NOT NULL,
	breaches TEXT NOT NULL,
	error TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	created DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pnl_vectors (
	run_id TEXT NOT NULL,
	scenario_id INTEGER NOT NULL,
	pnl REAL NOT NULL,
	PRIMARY KEY (run_id, scenario_id)
);

CREATE INDEX IF NOT EXISTS idx_risk_runs_config ON risk_runs(config_id);
CREATE INDEX IF NOT EXISTS idx_risk_runs_spec ON risk_runs(spec);
`

// addPortfolioColumn upgrades journals created before runs were tagged
// with their portfolio.
const addPortfolioColumn = `ALTER TABLE risk_runs ADD COLUMN portfolio TEXT NOT NULL DEFAULT ''`
