package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PostgresStore implements Store using pgxpool, for shared multi-user
// deployments where preset codes are exchanged between machines.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS presets (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	encoded    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_presets_name ON presets(name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SavePreset(ctx context.Context, name, encoded string) (*Preset, error) {
	p := &Preset{
		Code:      newCode(),
		Name:      name,
		Encoded:   encoded,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO presets (code, name, encoded, created_at) VALUES ($1, $2, $3, $4)`,
		p.Code, p.Name, p.Encoded, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert preset")
	}
	return p, nil
}

func (s *PostgresStore) GetPreset(ctx context.Context, code string) (*Preset, error) {
	var p Preset
	err := s.pool.QueryRow(ctx,
		`SELECT code, name, encoded, created_at FROM presets WHERE code = $1`, code,
	).Scan(&p.Code, &p.Name, &p.Encoded, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get preset")
	}
	return &p, nil
}

func (s *PostgresStore) ListPresets(ctx context.Context) ([]Preset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, encoded, created_at FROM presets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list presets")
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.Code, &p.Name, &p.Encoded, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan preset")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate presets")
}

func (s *PostgresStore) DeletePreset(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM presets WHERE code = $1`, code)
	if err != nil {
		return eris.Wrap(err, "postgres: delete preset")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
