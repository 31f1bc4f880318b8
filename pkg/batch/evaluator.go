// Package batch evaluates and samples phase functions over many independent
// scattering events in parallel. Every lane produces exactly the result of
// the corresponding scalar call.
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

// DefaultChunkSize is the number of lanes a worker handles per task
const DefaultChunkSize = 1024

// EvalRequest is one Eval lane
type EvalRequest struct {
	Ctx         phase.Context
	Interaction *medium.Interaction
	Wo          core.Vec3
}

// SampleRequest is one Sample lane
type SampleRequest struct {
	Ctx         phase.Context
	Interaction *medium.Interaction
	Sample1     float64
	Sample2     core.Vec2
}

// SampleResult is the outcome of one Sample lane
type SampleResult struct {
	Wo  core.Vec3
	PDF float64
}

// Evaluator splits lanes into chunks and runs them on a bounded number of
// goroutines
type Evaluator struct {
	numWorkers int
	chunkSize  int
}

// NewEvaluator creates an evaluator. numWorkers <= 0 uses one worker per CPU,
// chunkSize <= 0 uses DefaultChunkSize.
func NewEvaluator(numWorkers, chunkSize int) *Evaluator {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Evaluator{numWorkers: numWorkers, chunkSize: chunkSize}
}

// NumWorkers returns the maximum number of concurrent workers
func (e *Evaluator) NumWorkers() int {
	return e.numWorkers
}

// Eval evaluates pf for every request. Results are in request order.
func (e *Evaluator) Eval(ctx context.Context, pf phase.PhaseFunction, reqs []EvalRequest) ([]float64, error) {
	out := make([]float64, len(reqs))
	err := e.forEachChunk(ctx, len(reqs), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			r := &reqs[i]
			out[i] = pf.Eval(r.Ctx, r.Interaction, r.Wo)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sample samples pf for every request. Results are in request order.
func (e *Evaluator) Sample(ctx context.Context, pf phase.PhaseFunction, reqs []SampleRequest) ([]SampleResult, error) {
	out := make([]SampleResult, len(reqs))
	err := e.forEachChunk(ctx, len(reqs), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			r := &reqs[i]
			wo, pdf := pf.Sample(r.Ctx, r.Interaction, r.Sample1, r.Sample2)
			out[i] = SampleResult{Wo: wo, PDF: pdf}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachChunk runs fn over [0, n) in chunks. Chunks never overlap, so fn may
// write to its own index range of a shared slice without locking.
func (e *Evaluator) forEachChunk(ctx context.Context, n int, fn func(lo, hi int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.numWorkers)

	for lo := 0; lo < n; lo += e.chunkSize {
		if gctx.Err() != nil {
			break
		}
		lo, hi := lo, min(lo+e.chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Cancellation before any chunk started leaves nothing for Wait to report
	return ctx.Err()
}
