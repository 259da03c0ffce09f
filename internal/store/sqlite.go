package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			trials INTEGER NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			win_rate REAL NOT NULL DEFAULT 0,
			verdict TEXT NOT NULL DEFAULT '',
			mean_turns REAL NOT NULL DEFAULT 0,
			config_json TEXT NOT NULL DEFAULT '{}',
			report_json TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun saves a simulation run to the database
func (s *SQLiteDB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO runs (
		id, seed, trials, wins, win_rate, verdict, mean_turns,
		config_json, report_json, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.ID, run.Seed, run.Trials, run.Wins, run.WinRate, run.Verdict,
		run.MeanTurns, run.ConfigJSON, run.ReportJSON, run.CreatedAt,
	)
	return err
}

// GetRun retrieves a run by ID
func (s *SQLiteDB) GetRun(id string) (*Run, error) {
	query := `SELECT id, seed, trials, wins, win_rate, verdict, mean_turns,
		config_json, report_json, created_at
		FROM runs WHERE id = ?`

	var run Run
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.Seed, &run.Trials, &run.Wins, &run.WinRate,
		&run.Verdict, &run.MeanTurns, &run.ConfigJSON, &run.ReportJSON,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first, optionally filtered by verdict
func (s *SQLiteDB) ListRuns(query RunsQuery) (*RunsList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}

	where := ""
	args := []any{}
	if query.Verdict != "" {
		where = " WHERE verdict = ?"
		args = append(args, query.Verdict)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (query.Page - 1) * query.PerPage
	listQuery := `SELECT id, seed, trials, wins, win_rate, verdict, mean_turns,
		config_json, report_json, created_at
		FROM runs` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.Query(listQuery, append(args, query.PerPage, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Seed, &run.Trials, &run.Wins, &run.WinRate,
			&run.Verdict, &run.MeanTurns, &run.ConfigJSON, &run.ReportJSON,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + query.PerPage - 1) / query.PerPage
	return &RunsList{
		Runs:       runs,
		TotalCount: total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// DeleteRun removes a run by ID
func (s *SQLiteDB) DeleteRun(id string) error {
	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
