// Package session owns the loaded record collections and the active layer
// toggles for one analysis session. There is no package-global state:
// everything flows through an explicit Session, and filtering and aggregation
// stay pure functions of (records, specification).
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/aggregate"
	"github.com/openroads/crashmap/internal/boundary"
	"github.com/openroads/crashmap/internal/dataset"
	"github.com/openroads/crashmap/internal/filter"
	"github.com/openroads/crashmap/internal/link"
	"github.com/openroads/crashmap/internal/model"
	"github.com/openroads/crashmap/internal/viz"
)

// Layers are the renderer's active-layer toggles. A disabled layer's
// projection is skipped, never computed and discarded.
type Layers struct {
	Points     bool `json:"points"`
	Density    bool `json:"density"`
	Choropleth bool `json:"choropleth"`
}

// Session holds the immutable enriched collections for one run of the tool.
type Session struct {
	records []*model.Crash
	bounds  *boundary.Index
	canon   *aggregate.Canonicalizer
	runner  *filter.Runner

	mu     sync.RWMutex
	layers Layers
	latest *View // last non-stale filter outcome
}

// View is the complete outcome of one filter application: the subset plus
// everything derived from it. A View is immutable once published.
type View struct {
	Spec    *filter.Spec
	Records []*model.Crash
	Totals  aggregate.Totals
	ByArea  map[string]int
}

// Options configures session construction.
type Options struct {
	Data        dataset.Paths
	BoundaryShp string
	BoundaryFld string
	AliasTable  string // empty = embedded table
	ChunkSize   int
}

// New loads all datasets, links records and prepares the session. Only a
// completely unreachable required dataset fails; a missing boundary file
// degrades to name-only aggregation.
func New(ctx context.Context, opts Options) (*Session, error) {
	canon, err := loadCanonicalizer(opts.AliasTable)
	if err != nil {
		return nil, err
	}

	tables, err := dataset.Load(ctx, opts.Data)
	if err != nil {
		return nil, err
	}
	records := link.Build(tables)

	bounds := boundary.None()
	if opts.BoundaryShp != "" {
		idx, berr := boundary.Load(opts.BoundaryShp, opts.BoundaryFld, canon)
		if berr != nil {
			zap.L().Warn("boundary dataset unavailable; choropleth degrades to name-only",
				zap.Error(berr))
		} else {
			bounds = idx
		}
	}

	return &Session{
		records: records,
		bounds:  bounds,
		canon:   canon,
		runner:  filter.NewRunner(opts.ChunkSize),
		layers:  Layers{Points: true, Density: true, Choropleth: true},
	}, nil
}

func loadCanonicalizer(path string) (*aggregate.Canonicalizer, error) {
	if path == "" {
		return aggregate.NewCanonicalizer()
	}
	return aggregate.NewCanonicalizerFromFile(path)
}

// Records returns the full enriched collection.
func (s *Session) Records() []*model.Crash { return s.records }

// Boundaries returns the boundary index, possibly degraded.
func (s *Session) Boundaries() *boundary.Index { return s.bounds }

// Canonicalizer returns the area-name resolver.
func (s *Session) Canonicalizer() *aggregate.Canonicalizer { return s.canon }

// SetLayers replaces the active-layer toggles.
func (s *Session) SetLayers(l Layers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = l
}

// ActiveLayers returns the current toggles.
func (s *Session) ActiveLayers() Layers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers
}

// ApplyFilter runs spec over the session's records in chunks and publishes
// the resulting View unless a newer run superseded it mid-flight. The
// returned View is always complete for the given spec even when stale.
func (s *Session) ApplyFilter(ctx context.Context, spec *filter.Spec, progress filter.Progress) (*View, error) {
	res, err := s.runner.Run(ctx, s.records, spec, progress)
	if err != nil {
		return nil, err
	}

	view := &View{
		Spec:    spec,
		Records: res.Records,
		Totals:  aggregate.Summarize(res.Records),
		ByArea:  aggregate.CountByArea(res.Records, s.canon),
	}

	if res.Stale {
		zap.L().Debug("discarding stale view", zap.Uint64("generation", res.Generation))
		return view, nil
	}

	s.mu.Lock()
	s.latest = view
	s.mu.Unlock()
	return view, nil
}

// Latest returns the most recently published View, or nil before the first
// filter application.
func (s *Session) Latest() *View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Choropleth renders the view's area counts as colored buckets, including
// zero-count areas known to the boundary index.
func (s *Session) Choropleth(v *View) []viz.Bucket {
	return viz.Choropleth(v.ByArea, s.bounds.Names())
}
