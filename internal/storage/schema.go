package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// schemaSteps creates every table in dependency order. Each step is
// idempotent so migrations can replay it.
var schemaSteps = []func(*sql.Tx) error{
	createSchemaVersionTable,
	createFilesTable,
	createSymbolsTable,
	createSymbolSearchTable,
	createCallEdgesTable,
	createFileImportsTable,
	createModulesTable,
	createModuleMembersTable,
	createModuleKeySymbolsTable,
	createInteractionsTable,
	createFlowsTables,
	createAnalysisRunsTable,
}

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, step := range schemaSteps {
			if err := step(tx); err != nil {
				return err
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations brings an existing database up to currentSchemaVersion.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version == currentSchemaVersion:
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	case version > currentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	// Version 0 is a file created by an interrupted first run.
	return db.initializeSchema()
}

func (db *DB) getSchemaVersion() (int, error) {
	var name string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func execAll(tx *sql.Tx, table string, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}
	}
	return nil
}

func createSchemaVersionTable(tx *sql.Tx) error {
	return execAll(tx, "schema_version", `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
}

func createFilesTable(tx *sql.Tx) error {
	return execAll(tx, "files", `
		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			language TEXT NOT NULL DEFAULT ''
		)
	`)
}

func createSymbolsTable(tx *sql.Tx) error {
	return execAll(tx, "symbols", `
		CREATE TABLE IF NOT EXISTS symbols (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			start_line INTEGER NOT NULL DEFAULT 0,
			end_line INTEGER NOT NULL DEFAULT 0,
			scip_symbol TEXT UNIQUE
		)`,
		"CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
	)
}

// createSymbolSearchTable indexes symbol names with FTS5. The index reads its
// text from the symbols table and is kept in sync by triggers.
func createSymbolSearchTable(tx *sql.Tx) error {
	return execAll(tx, "symbols_fts", `
		CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
			name,
			kind,
			content='symbols',
			content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_ai AFTER INSERT ON symbols BEGIN
			INSERT INTO symbols_fts(rowid, name, kind) VALUES (new.id, new.name, new.kind);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_ad AFTER DELETE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, name, kind) VALUES ('delete', old.id, old.name, old.kind);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_au AFTER UPDATE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, name, kind) VALUES ('delete', old.id, old.name, old.kind);
			INSERT INTO symbols_fts(rowid, name, kind) VALUES (new.id, new.name, new.kind);
		END`,
	)
}

func createCallEdgesTable(tx *sql.Tx) error {
	return execAll(tx, "call_edges", `
		CREATE TABLE IF NOT EXISTS call_edges (
			from_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			to_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			weight INTEGER NOT NULL CHECK(weight > 0),
			min_line INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL CHECK(source IN ('internal', 'import')),

			PRIMARY KEY (from_id, to_id, source)
		)`,
		"CREATE INDEX IF NOT EXISTS idx_call_edges_to_id ON call_edges(to_id)",
	)
}

func createFileImportsTable(tx *sql.Tx) error {
	return execAll(tx, "file_imports", `
		CREATE TABLE IF NOT EXISTS file_imports (
			from_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			to_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			is_type_only INTEGER NOT NULL DEFAULT 0,

			PRIMARY KEY (from_file_id, to_file_id)
		)
	`)
}

func createModulesTable(tx *sql.Tx) error {
	return execAll(tx, "modules", `
		CREATE TABLE IF NOT EXISTS modules (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER REFERENCES modules(id) ON DELETE CASCADE,
			full_path TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			depth INTEGER NOT NULL,
			layer TEXT NOT NULL DEFAULT 'unknown',
			process_group INTEGER
		)`,
		"CREATE INDEX IF NOT EXISTS idx_modules_parent_id ON modules(parent_id)",
	)
}

func createModuleMembersTable(tx *sql.Tx) error {
	return execAll(tx, "module_members", `
		CREATE TABLE IF NOT EXISTS module_members (
			module_id INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
			symbol_id INTEGER NOT NULL UNIQUE REFERENCES symbols(id) ON DELETE CASCADE,
			cohesion REAL NOT NULL DEFAULT 0 CHECK(cohesion >= 0.0 AND cohesion <= 1.0),

			PRIMARY KEY (module_id, symbol_id)
		)
	`)
}

func createModuleKeySymbolsTable(tx *sql.Tx) error {
	return execAll(tx, "module_key_symbols", `
		CREATE TABLE IF NOT EXISTS module_key_symbols (
			module_id INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			score REAL NOT NULL,

			PRIMARY KEY (module_id, rank)
		)
	`)
}

func createInteractionsTable(tx *sql.Tx) error {
	return execAll(tx, "interactions", `
		CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY,
			from_module_id INTEGER NOT NULL,
			to_module_id INTEGER NOT NULL,
			weight INTEGER NOT NULL DEFAULT 0,
			call_sites INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL CHECK(source IN ('call', 'inferred')),
			same_process INTEGER NOT NULL DEFAULT 1,

			UNIQUE (from_module_id, to_module_id)
		)
	`)
}

// createFlowsTables creates flows and their child tables. Flow rows refer to
// interaction ids without a foreign key: candidates may be imported before
// interactions are derived.
func createFlowsTables(tx *sql.Tx) error {
	return execAll(tx, "flows", `
		CREATE TABLE IF NOT EXISTS flows (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			tier INTEGER NOT NULL CHECK(tier >= 0),
			action_type TEXT,
			target_entity TEXT
		)`, `
		CREATE TABLE IF NOT EXISTS flow_interactions (
			flow_id INTEGER NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
			interaction_id INTEGER NOT NULL,

			PRIMARY KEY (flow_id, interaction_id)
		)`, `
		CREATE TABLE IF NOT EXISTS flow_steps (
			flow_id INTEGER NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
			step_order INTEGER NOT NULL,
			symbol_id INTEGER,
			description TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (flow_id, step_order)
		)`,
		"CREATE INDEX IF NOT EXISTS idx_flows_tier ON flows(tier)",
	)
}

func createAnalysisRunsTable(tx *sql.Tx) error {
	return execAll(tx, "analysis_runs", `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			fingerprint TEXT NOT NULL DEFAULT '',
			stats_json TEXT NOT NULL DEFAULT '{}'
		)`,
		"CREATE INDEX IF NOT EXISTS idx_analysis_runs_kind_started ON analysis_runs(kind, started_at)",
	)
}
