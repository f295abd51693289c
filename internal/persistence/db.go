// Package persistence keeps a SQLite journal of simulation runs: periodic
// aggregate snapshots and the event log. The journal is write-only from the
// simulation's point of view; nothing is restored from it.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/labormarket/internal/engine"
)

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Run describes one simulation run.
type Run struct {
	ID        string `json:"id" db:"id"`
	Seed      int64  `json:"seed" db:"seed"`
	StartedAt string `json:"started_at" db:"started_at"`
	Config    string `json:"config" db:"config"`
}

// StatsRow is one journaled snapshot.
type StatsRow struct {
	RunID          string  `json:"run_id" db:"run_id"`
	Tick           uint64  `json:"tick" db:"tick"`
	Now            float64 `json:"now" db:"now"`
	SimTime        string  `json:"sim_time" db:"sim_time"`
	Population     int     `json:"population" db:"population"`
	Employed       int     `json:"employed" db:"employed"`
	Adverts        int     `json:"adverts" db:"adverts"`
	Seats          int     `json:"seats" db:"seats"`
	Births         int     `json:"births" db:"births"`
	Deaths         int     `json:"deaths" db:"deaths"`
	Hires          int     `json:"hires" db:"hires"`
	EmploymentRate float64 `json:"employment_rate" db:"employment_rate"`
	BirthRate      float64 `json:"birth_rate" db:"birth_rate"`
	DeathRate      float64 `json:"death_rate" db:"death_rate"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		now REAL NOT NULL,
		sim_time TEXT NOT NULL,
		population INTEGER NOT NULL,
		employed INTEGER NOT NULL,
		adverts INTEGER NOT NULL,
		seats INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		hires INTEGER NOT NULL,
		employment_rate REAL NOT NULL,
		birth_rate REAL NOT NULL,
		death_rate REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_stats_run_tick ON stats(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and makes it the target of later writes.
func (db *DB) BeginRun(seed int64, config []byte) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    string(config),
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO runs (id, seed, started_at, config) VALUES (:id, :seed, :started_at, :config)",
		run,
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	db.runID = run.ID
	return run, nil
}

// RunID returns the current run, or "" before BeginRun.
func (db *DB) RunID() string {
	return db.runID
}

// Runs lists every journaled run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, started_at, config FROM runs ORDER BY started_at DESC, rowid DESC")
	return runs, err
}

// SaveSnapshot journals one aggregate snapshot for the current run.
func (db *DB) SaveSnapshot(snap engine.Snapshot) error {
	row := StatsRow{
		RunID:          db.runID,
		Tick:           snap.Tick,
		Now:            snap.Now,
		SimTime:        snap.SimTime,
		Population:     snap.Population,
		Employed:       snap.Employed,
		Adverts:        snap.Adverts,
		Seats:          snap.Seats,
		Births:         snap.Records.Births,
		Deaths:         snap.Records.Deaths,
		Hires:          snap.Records.Hires,
		EmploymentRate: snap.Records.EmploymentRate,
		BirthRate:      snap.Records.BirthRate,
		DeathRate:      snap.Records.DeathRate,
	}
	_, err := db.conn.NamedExec(`INSERT INTO stats
		(run_id, tick, now, sim_time, population, employed, adverts, seats,
		 births, deaths, hires, employment_rate, birth_rate, death_rate)
		VALUES (:run_id, :tick, :now, :sim_time, :population, :employed, :adverts, :seats,
		 :births, :deaths, :hires, :employment_rate, :birth_rate, :death_rate)`, row)
	return err
}

// StatsHistory returns up to limit snapshots of the current run, oldest first.
func (db *DB) StatsHistory(limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, `SELECT run_id, tick, now, sim_time, population, employed, adverts, seats,
		births, deaths, hires, employment_rate, birth_rate, death_rate
		FROM (SELECT * FROM stats WHERE run_id = ? ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`,
		db.runID, limit,
	)
	return rows, err
}

// SaveEvents appends events to the current run's log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(db.runID, e.Tick, e.Description, e.Category); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of the current run, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		db.runID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair for the current run.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		db.runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value of the current run.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", db.runID, key)
	return value, err
}

// Flush journals pending events and a snapshot of sim.
func (db *DB) Flush(sim *engine.Simulation) error {
	snap := sim.Snapshot()
	events := sim.TakeEvents()

	if err := db.SaveEvents(events); err != nil {
		sim.RequeueEvents(events)
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(snap.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Debug("journal flushed", "tick", snap.Tick, "events", len(events))
	return nil
}
