package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

func testPhase(t *testing.T) phase.PhaseFunction {
	t.Helper()
	hg, err := phase.NewHenyeyGreenstein(0.6)
	require.NoError(t, err)
	field, err := medium.NewGradientField(core.NewVec3(-1, 0, 0), core.NewVec3(1, 0, 0), 0.1, 0.9)
	require.NoError(t, err)
	blend, err := phase.NewBlend(field, hg, phase.NewRayleigh())
	require.NoError(t, err)
	return blend
}

func sampleRequests(n int) []SampleRequest {
	sampler := core.NewSeededSampler(21)
	reqs := make([]SampleRequest, n)
	for i := range reqs {
		p := core.NewVec3(2*sampler.Get1D()-1, 0, 0)
		wi := core.SampleOnUnitSphere(sampler.Get2D())
		ctx := phase.NewContext()
		if i%5 == 0 {
			ctx = ctx.WithComponent(i % 2)
		}
		reqs[i] = SampleRequest{
			Ctx:         ctx,
			Interaction: medium.NewInteraction(p, wi),
			Sample1:     sampler.Get1D(),
			Sample2:     sampler.Get2D(),
		}
	}
	return reqs
}

func TestEvaluator_SampleMatchesScalar(t *testing.T) {
	pf := testPhase(t)
	reqs := sampleRequests(5000)

	results, err := NewEvaluator(4, 128).Sample(context.Background(), pf, reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))

	for i, r := range reqs {
		wo, pdf := pf.Sample(r.Ctx, r.Interaction, r.Sample1, r.Sample2)
		require.Equal(t, wo, results[i].Wo, "lane %d", i)
		require.Equal(t, pdf, results[i].PDF, "lane %d", i)
	}
}

func TestEvaluator_EvalMatchesScalar(t *testing.T) {
	pf := testPhase(t)
	sampled := sampleRequests(3000)

	reqs := make([]EvalRequest, len(sampled))
	for i, s := range sampled {
		reqs[i] = EvalRequest{Ctx: s.Ctx, Interaction: s.Interaction, Wo: core.SampleOnUnitSphere(s.Sample2)}
	}

	// Chunk size that does not divide the lane count
	results, err := NewEvaluator(3, 77).Eval(context.Background(), pf, reqs)
	require.NoError(t, err)
	for i, r := range reqs {
		require.Equal(t, pf.Eval(r.Ctx, r.Interaction, r.Wo), results[i], "lane %d", i)
	}
}

func TestEvaluator_Empty(t *testing.T) {
	results, err := NewEvaluator(0, 0).Eval(context.Background(), testPhase(t), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEvaluator_Defaults(t *testing.T) {
	e := NewEvaluator(-1, -1)
	assert.Greater(t, e.NumWorkers(), 0)
	assert.Equal(t, DefaultChunkSize, e.chunkSize)
}

func TestEvaluator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator(2, 16).Sample(ctx, testPhase(t), sampleRequests(100))
	assert.ErrorIs(t, err, context.Canceled)
}
