package main

import (
	"context"

	"github.com/openroads/crashmap/internal/dataset"
	"github.com/openroads/crashmap/internal/session"
)

// newSession builds a session from the loaded configuration. Shared by every
// command that needs the enriched record collections.
func newSession(ctx context.Context) (*session.Session, error) {
	return session.New(ctx, session.Options{
		Data: dataset.Paths{
			Crashes:    cfg.Data.CrashCSV,
			Casualties: cfg.Data.CasualtyCSV,
			Units:      cfg.Data.UnitCSV,
		},
		BoundaryShp: cfg.Data.BoundaryShp,
		BoundaryFld: cfg.Data.BoundaryField,
		AliasTable:  cfg.Data.AliasTable,
		ChunkSize:   cfg.Filter.ChunkSize,
	})
}
