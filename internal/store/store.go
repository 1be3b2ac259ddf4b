// Package store persists shareable filter presets. A preset is a named,
// encoded filter specification retrievable by a short code, which is what the
// URL-sharing layer exchanges.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Preset is one saved filter specification.
type Preset struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Encoded   string    `json:"encoded"` // filter.Encode output
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned when no preset exists under a code.
var ErrNotFound = eris.New("store: preset not found")

// Store is the persistence interface for presets.
type Store interface {
	Migrate(ctx context.Context) error
	SavePreset(ctx context.Context, name, encoded string) (*Preset, error)
	GetPreset(ctx context.Context, code string) (*Preset, error)
	ListPresets(ctx context.Context) ([]Preset, error)
	DeletePreset(ctx context.Context, code string) error
	Close() error
}

// Open selects a backend by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
