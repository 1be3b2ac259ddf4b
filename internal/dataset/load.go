// Package dataset loads the three crash tables from CSV into typed records.
// Header-to-field mapping happens exactly once per file via csvutil struct
// tags; unexpected headers are logged once at load, never per access.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openroads/crashmap/internal/model"
)

// Paths names the three source files. All three are required; an unreachable
// file is the one fatal load error in the system.
type Paths struct {
	Crashes    string
	Casualties string
	Units      string
}

// Tables holds the fully loaded raw collections, pre-linking.
type Tables struct {
	Crashes    []model.Crash
	Casualties []model.Casualty
	Units      []model.Unit
}

// Load reads all three tables concurrently and returns them fully
// materialized. Linking must not begin until Load returns.
func Load(ctx context.Context, p Paths) (*Tables, error) {
	var t Tables

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readCSV[model.Crash](ctx, p.Crashes)
		if err != nil {
			return eris.Wrap(err, "dataset: load crashes")
		}
		t.Crashes = dropUnlocated(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := readCSV[model.Casualty](ctx, p.Casualties)
		if err != nil {
			return eris.Wrap(err, "dataset: load casualties")
		}
		t.Casualties = rows
		return nil
	})
	g.Go(func() error {
		rows, err := readCSV[model.Unit](ctx, p.Units)
		if err != nil {
			return eris.Wrap(err, "dataset: load units")
		}
		t.Units = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("datasets loaded",
		zap.Int("crashes", len(t.Crashes)),
		zap.Int("casualties", len(t.Casualties)),
		zap.Int("units", len(t.Units)),
	)
	return &t, nil
}

// readCSV decodes a whole file into typed rows. A row that fails to decode is
// skipped and counted; it never aborts the load.
func readCSV[T any](ctx context.Context, path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	return decode[T](ctx, f, path)
}

func decode[T any](ctx context.Context, r io.Reader, name string) ([]T, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, eris.Wrapf(err, "read header of %s", name)
	}

	if unused := dec.Unused(); len(unused) > 0 {
		names := make([]string, 0, len(unused))
		for _, i := range unused {
			names = append(names, dec.Header()[i])
		}
		zap.L().Debug("ignoring unmapped CSV columns",
			zap.String("file", name),
			zap.String("columns", strings.Join(names, ",")),
		)
	}

	var rows []T
	var skipped int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var row T
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			if !recordScopedErr(err) {
				// A reader failure reproduces on every subsequent call;
				// retrying would spin forever.
				return nil, eris.Wrapf(err, "read %s", name)
			}
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		zap.L().Warn("skipped undecodable rows",
			zap.String("file", name),
			zap.Int("skipped", skipped),
		)
	}
	return rows, nil
}

// recordScopedErr reports whether a decode failure is confined to a single
// record: a malformed CSV line or a field that fails to unmarshal. Anything
// else is a stream-level error and aborts the load.
func recordScopedErr(err error) bool {
	var parseErr *csv.ParseError
	var typeErr *csvutil.UnmarshalTypeError
	return errors.As(err, &parseErr) || errors.As(err, &typeErr)
}

// dropUnlocated removes crash rows that carry no native coordinates at all.
// Such rows cannot participate in any layer and are unusable by contract.
func dropUnlocated(rows []model.Crash) []model.Crash {
	kept := rows[:0]
	var dropped int
	for _, r := range rows {
		if strings.TrimSpace(r.XCoord) == "" && strings.TrimSpace(r.YCoord) == "" {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	if dropped > 0 {
		zap.L().Warn("dropped crashes with no native coordinates", zap.Int("dropped", dropped))
	}
	return kept
}
