// Package persistence stores runs and their sampling records in SQLite or
// PostgreSQL.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ugworld/internal/config"
	"github.com/talgya/ugworld/internal/experiment"
)

// DB wraps a database connection for run and record storage.
type DB struct {
	conn *sqlx.DB
}

// Run describes one simulation run.
type Run struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	Params    string `db:"params" json:"params"` // YAML snapshot
	StartedAt string `db:"started_at" json:"started_at"`
	FinalTick int64  `db:"final_tick" json:"final_tick"`
}

// Open opens or creates a database. DSNs starting with postgres:// or
// postgresql:// use PostgreSQL; anything else is a SQLite file path.
func Open(dsn string) (*DB, error) {
	driver, source := "sqlite", sqliteSource(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source = "pgx", dsn
	}

	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// sqliteSource appends the WAL and busy-timeout pragmas to a SQLite path,
// keeping any query string it already carries.
func sqliteSource(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// One statement per Exec so both drivers accept it.
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			params TEXT NOT NULL,
			started_at TEXT NOT NULL,
			final_tick BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			tick BIGINT NOT NULL,
			population INTEGER NOT NULL,
			groups_count INTEGER NOT NULL,
			offer_now REAL NOT NULL,
			accept_now REAL NOT NULL,
			rejection_rate REAL NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		)`,
		`CREATE TABLE IF NOT EXISTS run_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateRun registers a new run for p and returns it.
func (db *DB) CreateRun(p config.Params) (Run, error) {
	params, err := p.YAML()
	if err != nil {
		return Run{}, fmt.Errorf("encode params: %w", err)
	}
	run := Run{
		ID:        uuid.NewString(),
		Seed:      p.Seed,
		Params:    params,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err = db.conn.NamedExec(
		`INSERT INTO runs (id, seed, params, started_at, final_tick)
		 VALUES (:id, :seed, :params, :started_at, :final_tick)`, run)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run created", "run", run.ID, "seed", run.Seed)
	return run, nil
}

// FinishRun records the last tick reached by a run.
func (db *DB) FinishRun(id string, finalTick uint64) error {
	_, err := db.conn.Exec(db.conn.Rebind("UPDATE runs SET final_tick = ? WHERE id = ?"), int64(finalTick), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// GetRun returns one run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, db.conn.Rebind("SELECT id, seed, params, started_at, final_tick FROM runs WHERE id = ?"), id)
	return run, err
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, params, started_at, final_tick FROM runs ORDER BY started_at DESC, id")
	return runs, err
}

// WriteRecord stores one sampling record. A record for the same run and
// tick replaces the earlier one.
func (db *DB) WriteRecord(rec experiment.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(tx.Rebind("DELETE FROM records WHERE run_id = ? AND tick = ?"), rec.RunID, int64(rec.Tick)); err != nil {
		return fmt.Errorf("replace record %d: %w", rec.Tick, err)
	}
	_, err = tx.Exec(tx.Rebind(`INSERT INTO records
		(run_id, tick, population, groups_count, offer_now, accept_now, rejection_rate, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.RunID, int64(rec.Tick), rec.Population, rec.Groups,
		rec.OfferNow, rec.AcceptNow, rec.RejectionRate, string(body),
	)
	if err != nil {
		return fmt.Errorf("insert record %d: %w", rec.Tick, err)
	}

	return tx.Commit()
}

// LoadRecords returns a run's records in tick order.
func (db *DB) LoadRecords(runID string) ([]experiment.Record, error) {
	var bodies []string
	err := db.conn.Select(&bodies, db.conn.Rebind("SELECT body FROM records WHERE run_id = ? ORDER BY tick"), runID)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	out := make([]experiment.Record, 0, len(bodies))
	for _, b := range bodies {
		var rec experiment.Record
		if err := json.Unmarshal([]byte(b), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(db.conn.Rebind(
		`INSERT INTO run_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, db.conn.Rebind("SELECT value FROM run_meta WHERE key = ?"), key)
	return value, err
}
