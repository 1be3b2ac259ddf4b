package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS presets (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	encoded    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_presets_name ON presets(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePreset(ctx context.Context, name, encoded string) (*Preset, error) {
	p := &Preset{
		Code:      newCode(),
		Name:      name,
		Encoded:   encoded,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO presets (code, name, encoded, created_at) VALUES (?, ?, ?, ?)`,
		p.Code, p.Name, p.Encoded, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert preset")
	}
	return p, nil
}

func (s *SQLiteStore) GetPreset(ctx context.Context, code string) (*Preset, error) {
	var p Preset
	err := s.db.QueryRowContext(ctx,
		`SELECT code, name, encoded, created_at FROM presets WHERE code = ?`, code,
	).Scan(&p.Code, &p.Name, &p.Encoded, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get preset")
	}
	return &p, nil
}

func (s *SQLiteStore) ListPresets(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, encoded, created_at FROM presets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list presets")
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.Code, &p.Name, &p.Encoded, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan preset")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate presets")
}

func (s *SQLiteStore) DeletePreset(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE code = ?`, code)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete preset")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// newCode derives a short shareable code from a fresh UUID.
func newCode() string {
	return uuid.New().String()[:8]
}
