// Package store archives conversion runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/etlap/internal/menu"
	"github.com/msto63/etlap/internal/parser"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

// Run is an archived conversion
type Run struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Output    string        `json:"output"`
	Format    string        `json:"format"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
	Stats     menu.Stats    `json:"stats"`

	// Tables is only filled by LoadRun
	Tables []menu.Table `json:"tables,omitempty"`
}

// Store is a SQLite archive of conversion runs
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/etlap.db",
	}
}

// New opens or creates the archive at cfg.Path
func New(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dbError(err, "failed to create directory", "store.New").WithDetail("path", dir)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, dbError(err, "failed to open database", "store.New").WithDetail("path", cfg.Path)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema", "store.New").WithDetail("path", cfg.Path)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		output TEXT NOT NULL,
		format TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		tables INTEGER NOT NULL,
		rows INTEGER NOT NULL,
		cells INTEGER NOT NULL,
		foods INTEGER NOT NULL,
		nutrients INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_tables (
		run_id TEXT NOT NULL,
		table_index INTEGER NOT NULL,
		labels TEXT,
		PRIMARY KEY (run_id, table_index)
	);

	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL,
		table_index INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		header TEXT NOT NULL,
		PRIMARY KEY (run_id, table_index, row_index)
	);

	CREATE TABLE IF NOT EXISTS cells (
		run_id TEXT NOT NULL,
		table_index INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		cell_index INTEGER NOT NULL,
		label TEXT NOT NULL,
		energy REAL,
		carbohydrate REAL,
		protein REAL,
		sugar REAL,
		fat REAL,
		salt REAL,
		saturated_fat REAL,
		PRIMARY KEY (run_id, table_index, row_index, cell_index)
	);

	CREATE TABLE IF NOT EXISTS foods (
		run_id TEXT NOT NULL,
		table_index INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		cell_index INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		allergens TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_foods_run ON foods(run_id);
	CREATE INDEX IF NOT EXISTS idx_foods_name ON foods(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun archives a run with its tables. An empty ID is replaced by a new UUID.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction", "store.SaveRun")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, output, format, created_at, duration_ms,
			tables, rows, cells, foods, nutrients)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.Output, run.Format, run.CreatedAt.UTC(), run.Duration.Milliseconds(),
		run.Stats.Tables, run.Stats.Rows, run.Stats.Cells, run.Stats.Foods, run.Stats.Nutrients)
	if err != nil {
		return dbError(err, "failed to insert run", "store.SaveRun").WithDetail("run_id", run.ID)
	}

	tableStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_tables (run_id, table_index, labels) VALUES (?, ?, ?)`)
	if err != nil {
		return dbError(err, "failed to prepare statement", "store.SaveRun")
	}
	defer tableStmt.Close()

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_rows (run_id, table_index, row_index, header) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return dbError(err, "failed to prepare statement", "store.SaveRun")
	}
	defer rowStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (run_id, table_index, row_index, cell_index, label,
			energy, carbohydrate, protein, sugar, fat, salt, saturated_fat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbError(err, "failed to prepare statement", "store.SaveRun")
	}
	defer cellStmt.Close()

	foodStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO foods (run_id, table_index, row_index, cell_index, position, name, allergens)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbError(err, "failed to prepare statement", "store.SaveRun")
	}
	defer foodStmt.Close()

	for _, t := range run.Tables {
		var labels []byte
		if t.Labels != nil {
			if labels, err = json.Marshal(t.Labels); err != nil {
				return apperrors.Wrap(err, "failed to encode labels").WithOperation("store.SaveRun")
			}
		}
		if _, err := tableStmt.ExecContext(ctx, run.ID, t.Index, labels); err != nil {
			return dbError(err, "failed to insert table", "store.SaveRun")
		}

		for ri, r := range t.Rows {
			if _, err := rowStmt.ExecContext(ctx, run.ID, t.Index, ri, r.Header); err != nil {
				return dbError(err, "failed to insert row", "store.SaveRun")
			}

			for ci, c := range r.Cells {
				values := make([]interface{}, parser.MinNutrientValues)
				if c.Nutrient != nil {
					for i, v := range c.Nutrient.Values() {
						values[i] = v
					}
				}
				args := append([]interface{}{run.ID, t.Index, ri, ci, c.Label}, values...)
				if _, err := cellStmt.ExecContext(ctx, args...); err != nil {
					return dbError(err, "failed to insert cell", "store.SaveRun")
				}

				for fi, f := range c.Foods {
					if _, err := foodStmt.ExecContext(ctx, run.ID, t.Index, ri, ci, fi, f.Name, f.Allergens); err != nil {
						return dbError(err, "failed to insert food", "store.SaveRun")
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction", "store.SaveRun")
	}
	return nil
}

const runColumns = `id, source, output, format, created_at, duration_ms, tables, rows, cells, foods, nutrients`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var durationMS int64
	err := sc.Scan(&run.ID, &run.Source, &run.Output, &run.Format, &run.CreatedAt, &durationMS,
		&run.Stats.Tables, &run.Stats.Rows, &run.Stats.Cells, &run.Stats.Foods, &run.Stats.Nutrients)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

// ListRuns returns the newest runs first, without tables. A limit <= 0
// returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query runs", "store.ListRuns")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan run", "store.ListRuns")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRun returns a run with its tables
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf("run not found: %s", id).
			WithCode(apperrors.CodeNotFound).
			WithOperation("store.LoadRun").
			WithDetail("run_id", id)
	}
	if err != nil {
		return nil, dbError(err, "failed to load run", "store.LoadRun").WithDetail("run_id", id)
	}

	if run.Tables, err = s.loadTables(ctx, id); err != nil {
		return nil, dbError(err, "failed to load tables", "store.LoadRun").WithDetail("run_id", id)
	}
	return run, nil
}

type cellKey struct {
	table, row, cell int
}

func (s *Store) loadTables(ctx context.Context, id string) ([]menu.Table, error) {
	tables := []menu.Table{}
	tablePos := map[int]int{}

	rows, err := s.db.QueryContext(ctx, `SELECT table_index, labels FROM run_tables WHERE run_id = ? ORDER BY table_index`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t menu.Table
		var labels sql.NullString
		if err := rows.Scan(&t.Index, &labels); err != nil {
			rows.Close()
			return nil, err
		}
		if labels.Valid && labels.String != "" {
			if err := json.Unmarshal([]byte(labels.String), &t.Labels); err != nil {
				rows.Close()
				return nil, err
			}
		}
		t.Rows = []menu.Row{}
		tablePos[t.Index] = len(tables)
		tables = append(tables, t)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT table_index, header FROM run_rows WHERE run_id = ? ORDER BY table_index, row_index`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var table int
		var header string
		if err := rows.Scan(&table, &header); err != nil {
			rows.Close()
			return nil, err
		}
		if pos, ok := tablePos[table]; ok {
			tables[pos].Rows = append(tables[pos].Rows, menu.Row{Header: header, Cells: []menu.Cell{}})
		}
	}
	rows.Close()

	cells := map[cellKey]int{}
	rows, err = s.db.QueryContext(ctx, `
		SELECT table_index, row_index, cell_index, label,
			energy, carbohydrate, protein, sugar, fat, salt, saturated_fat
		FROM cells WHERE run_id = ? ORDER BY table_index, row_index, cell_index
	`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k cellKey
		var c menu.Cell
		values := make([]sql.NullFloat64, parser.MinNutrientValues)
		dest := []interface{}{&k.table, &k.row, &k.cell, &c.Label}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return nil, err
		}
		if values[0].Valid {
			numbers := make([]float64, len(values))
			for i, v := range values {
				numbers[i] = v.Float64
			}
			if n, ok := parser.NutrientFromNumbers(numbers); ok {
				c.Nutrient = &n
			}
		}
		c.Foods = []parser.Food{}

		pos, ok := tablePos[k.table]
		if !ok || k.row >= len(tables[pos].Rows) {
			continue
		}
		row := &tables[pos].Rows[k.row]
		cells[k] = len(row.Cells)
		row.Cells = append(row.Cells, c)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT table_index, row_index, cell_index, name, allergens
		FROM foods WHERE run_id = ? ORDER BY table_index, row_index, cell_index, position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k cellKey
		var f parser.Food
		if err := rows.Scan(&k.table, &k.row, &k.cell, &f.Name, &f.Allergens); err != nil {
			return nil, err
		}
		if i, ok := cells[k]; ok {
			c := &tables[tablePos[k.table]].Rows[k.row].Cells[i]
			c.Foods = append(c.Foods, f)
		}
	}
	return tables, rows.Err()
}

// DeleteRun removes a run and its tables
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction", "store.DeleteRun")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return dbError(err, "failed to delete run", "store.DeleteRun").WithDetail("run_id", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.Newf("run not found: %s", id).
			WithCode(apperrors.CodeNotFound).
			WithOperation("store.DeleteRun").
			WithDetail("run_id", id)
	}

	for _, table := range []string{"run_tables", "run_rows", "cells", "foods"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return dbError(err, "failed to delete run data", "store.DeleteRun").WithDetail("table", table)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction", "store.DeleteRun")
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func dbError(err error, msg, op string) *apperrors.Error {
	return apperrors.Wrap(err, msg).
		WithCode(apperrors.CodeDatabaseError).
		WithOperation(op)
}
