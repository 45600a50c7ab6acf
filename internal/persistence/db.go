// Package persistence provides SQLite-based storage of generation runs.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-planet/internal/world"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
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

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		executed TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		seed TEXT NOT NULL,
		era TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		land INTEGER NOT NULL,
		sea INTEGER NOT NULL,
		land_ratio REAL NOT NULL,
		top_glacier_rows INTEGER NOT NULL,
		reproducible INTEGER NOT NULL,
		cache_hit INTEGER NOT NULL,
		drift_epoch INTEGER NOT NULL,
		temperature REAL NOT NULL,
		green_index REAL NOT NULL,
		config_json TEXT NOT NULL,
		centers_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_cells (
		run_id TEXT PRIMARY KEY REFERENCES runs(id),
		cells BLOB NOT NULL,
		palette_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RunRecord is the summary row of one stored run.
type RunRecord struct {
	ID             string  `db:"id" json:"id"`
	Mode           string  `db:"mode" json:"mode"`
	Executed       string  `db:"executed" json:"executed"`
	Fingerprint    string  `db:"fingerprint" json:"fingerprint"`
	Seed           string  `db:"seed" json:"seed"`
	Era            string  `db:"era" json:"era"`
	Width          int     `db:"width" json:"width"`
	Height         int     `db:"height" json:"height"`
	Land           int     `db:"land" json:"land"`
	Sea            int     `db:"sea" json:"sea"`
	LandRatio      float64 `db:"land_ratio" json:"land_ratio"`
	TopGlacierRows int     `db:"top_glacier_rows" json:"top_glacier_rows"`
	Reproducible   bool    `db:"reproducible" json:"reproducible"`
	CacheHit       bool    `db:"cache_hit" json:"cache_hit"`
	DriftEpoch     int     `db:"drift_epoch" json:"drift_epoch"`
	Temperature    float64 `db:"temperature" json:"temperature"`
	GreenIndex     float64 `db:"green_index" json:"green_index"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
}

const runColumns = `id, mode, executed, fingerprint, seed, era, width, height,
	land, sea, land_ratio, top_glacier_rows, reproducible, cache_hit, drift_epoch,
	temperature, green_index, created_at`

// StoredRun is a run read back in full.
type StoredRun struct {
	Record  RunRecord
	Config  world.GenConfig
	Centers []world.CenterParameter
	Cells   []world.TerrainCell
	Palette world.Palette
}

// SaveRun writes a run summary and its packed grid, and records it as the
// latest run.
func (db *DB) SaveRun(res *world.Result, cfg world.GenConfig) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	centersJSON, err := json.Marshal(res.Centers)
	if err != nil {
		return fmt.Errorf("marshal centers: %w", err)
	}
	paletteJSON, err := json.Marshal(res.Palette)
	if err != nil {
		return fmt.Errorf("marshal palette: %w", err)
	}
	epoch := 0
	if res.Drift != nil {
		epoch = res.Drift.Epoch
	}
	id := res.Run.ID.String()

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, mode, executed, fingerprint, seed, era, width, height,
		 land, sea, land_ratio, top_glacier_rows, reproducible, cache_hit, drift_epoch,
		 temperature, green_index, config_json, centers_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(res.Run.Mode), string(res.Executed), res.Fingerprint, cfg.Seed, string(cfg.Era),
		res.Width, res.Height,
		res.PreGlacier.Land, res.PreGlacier.Sea, res.PreGlacier.LandRatio, res.TopGlacierRows,
		boolInt(res.Reproducible), boolInt(res.CacheHit), epoch,
		cfg.AverageTemperature, cfg.GreenIndex,
		string(configJSON), string(centersJSON), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	if _, err := tx.Exec("INSERT INTO run_cells (run_id, cells, palette_json) VALUES (?, ?, ?)",
		id, EncodeCells(res.Cells), string(paletteJSON)); err != nil {
		return fmt.Errorf("insert cells for run %s: %w", id, err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES ('last_run', ?)", id); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("run saved", "run", id, "cells", len(res.Cells))
	return nil
}

// LoadRun reads a run back, recoloring its cells from the stored palette.
func (db *DB) LoadRun(id string) (*StoredRun, error) {
	var row struct {
		RunRecord
		ConfigJSON  string `db:"config_json"`
		CentersJSON string `db:"centers_json"`
	}
	err := db.conn.Get(&row, "SELECT "+runColumns+", config_json, centers_json FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	run := &StoredRun{Record: row.RunRecord}
	if err := json.Unmarshal([]byte(row.ConfigJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("parse config of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.CentersJSON), &run.Centers); err != nil {
		return nil, fmt.Errorf("parse centers of run %s: %w", id, err)
	}

	var cells struct {
		Cells       []byte `db:"cells"`
		PaletteJSON string `db:"palette_json"`
	}
	if err := db.conn.Get(&cells, "SELECT cells, palette_json FROM run_cells WHERE run_id = ?", id); err != nil {
		return nil, fmt.Errorf("load cells of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cells.PaletteJSON), &run.Palette); err != nil {
		return nil, fmt.Errorf("parse palette of run %s: %w", id, err)
	}
	run.Cells, err = DecodeCells(cells.Cells, run.Record.Width*run.Record.Height)
	if err != nil {
		return nil, fmt.Errorf("decode cells of run %s: %w", id, err)
	}
	run.Palette.Paint(run.Cells)
	return run, nil
}

// LatestRun loads the most recently saved run.
func (db *DB) LatestRun() (*StoredRun, error) {
	id, err := db.GetMeta("last_run")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.LoadRun(id)
}

// RecentRuns returns the most recent N run summaries, newest first.
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
