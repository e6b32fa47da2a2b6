//go:build sqlite
// +build sqlite

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"heraldbot/internal/broadcast"
	logx "heraldbot/pkg/logx"
)

// sqliteStore keeps the same id->record document model as the file driver,
// one JSON blob per row. Full-overwrite SaveJobs runs in a transaction so a
// reader never sees a half-replaced document.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS templates (
	name TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
`

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadJobs(ctx context.Context) map[string]Job {
	out := map[string]Job{}
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM jobs`)
	if err != nil {
		s.log.Warn("jobs query failed; starting empty", logx.Err(err))
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			continue
		}
		var j Job
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			s.log.Warn("corrupt job row skipped", logx.String("job", id), logx.Err(err))
			continue
		}
		out[id] = j
	}
	return out
}

func (s *sqliteStore) SaveJobs(ctx context.Context, jobs map[string]Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return err
	}
	for id, j := range jobs {
		b, err := json.Marshal(j)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO jobs (id, data) VALUES (?, ?)`, id, string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) UpsertJob(ctx context.Context, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		j.JobID, string(b))
	return err
}

func (s *sqliteStore) LoadTemplates(ctx context.Context) map[string]broadcast.Payload {
	out := map[string]broadcast.Payload{}
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM templates`)
	if err != nil {
		s.log.Warn("templates query failed; starting empty", logx.Err(err))
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			continue
		}
		var p broadcast.Payload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			continue
		}
		out[name] = p
	}
	return out
}

func (s *sqliteStore) SaveTemplate(ctx context.Context, name string, p broadcast.Payload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		name, string(b))
	return err
}

func (s *sqliteStore) DeleteTemplate(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, name)
	return err
}
