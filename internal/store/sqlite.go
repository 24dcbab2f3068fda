package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/hh-interviewer/internal/common"
)

const jobDescriptionSetting = "job_description"

// SQLiteStore keeps the snapshot in two tables. Save rewrites both inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", common.ErrStorage, dsn, err)
	}
	// In-memory databases are per connection.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate sqlite %s: %v", common.ErrStorage, dsn, err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			position INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			resume TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var jd string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, jobDescriptionSetting).Scan(&jd)
	if errors.Is(err, sql.ErrNoRows) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read job description: %v", common.ErrStorage, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone, resume FROM candidates ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: read candidates: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	candidates := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Resume); err != nil {
			return nil, fmt.Errorf("%w: scan candidate: %v", common.ErrStorage, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read candidates: %v", common.ErrStorage, err)
	}

	return &Snapshot{Candidates: candidates, JobDescription: jd}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", common.ErrStorage)
	}
	if err := validateSnapshot(snapshot); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates`); err != nil {
		return fmt.Errorf("%w: clear candidates: %v", common.ErrStorage, err)
	}

	for pos, c := range snapshot.Candidates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO candidates (position, id, name, email, phone, resume) VALUES (?, ?, ?, ?, ?, ?)`,
			pos, c.ID, c.Name, c.Email, c.Phone, c.Resume,
		)
		if err != nil {
			return fmt.Errorf("%w: insert candidate %s: %v", common.ErrStorage, c.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		jobDescriptionSetting, snapshot.JobDescription,
	)
	if err != nil {
		return fmt.Errorf("%w: write job description: %v", common.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStorage, err)
	}

	return nil
}
