package filter

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/model"
)

// DefaultChunkSize is the number of records evaluated between progress
// callbacks.
const DefaultChunkSize = 2000

// Progress is invoked after each completed chunk with the number of records
// evaluated so far and the total.
type Progress func(done, total int)

// Runner executes filter applications in bounded chunks and stamps each run
// with a generation number. A newer run supersedes older in-flight ones:
// there is no cancellation, but a superseded run's result is discarded rather
// than allowed to overwrite a newer one. Partial results are never exposed.
type Runner struct {
	chunkSize  int
	generation atomic.Uint64
}

// NewRunner creates a Runner; chunkSize <= 0 selects DefaultChunkSize.
func NewRunner(chunkSize int) *Runner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Runner{chunkSize: chunkSize}
}

// Result is the outcome of one filter run.
type Result struct {
	Generation uint64
	Records    []*model.Crash
	// Stale is true when a newer run started before this one finished; the
	// caller must discard a stale result.
	Stale bool
}

// Run evaluates spec against all records in chunks, reporting progress
// between chunks. The context is checked at chunk boundaries so a caller can
// abandon work it no longer wants rendered.
func (r *Runner) Run(ctx context.Context, records []*model.Crash, spec *Spec, progress Progress) (*Result, error) {
	gen := r.generation.Add(1)
	ev := newEvaluator(spec)

	total := len(records)
	out := make([]*model.Crash, 0, total)

	for start := 0; start < total; start += r.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + r.chunkSize
		if end > total {
			end = total
		}
		for _, c := range records[start:end] {
			if ev.matchSafe(c) {
				out = append(out, c)
			}
		}
		if progress != nil {
			progress(end, total)
		}
	}

	res := &Result{Generation: gen, Records: out}
	if r.generation.Load() != gen {
		res.Stale = true
		zap.L().Debug("filter run superseded",
			zap.Uint64("generation", gen),
			zap.Uint64("current", r.generation.Load()),
		)
	}
	return res, nil
}
