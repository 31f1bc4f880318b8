package phase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
)

// testInteraction returns a scattering event with an oblique incident direction
func testInteraction() *medium.Interaction {
	return medium.NewInteraction(core.NewVec3(0.1, 0.2, 0.3), core.NewVec3(0.3, -0.5, 0.8))
}

func mustHG(t *testing.T, g float64) *HenyeyGreenstein {
	t.Helper()
	hg, err := NewHenyeyGreenstein(g)
	require.NoError(t, err)
	return hg
}

func mustBlend(t *testing.T, w float64, p0, p1 PhaseFunction) *Blend {
	t.Helper()
	b, err := NewBlend(medium.NewConstantField(w), p0, p1)
	require.NoError(t, err)
	return b
}

// sphereIntegral integrates pf.Eval over the sphere with a midpoint rule in
// cos(theta) and phi around wi
func sphereIntegral(pf PhaseFunction, ctx Context, mi *medium.Interaction) float64 {
	const nMu, nPhi = 20000, 4
	dMu := 2.0 / nMu
	dPhi := 2 * math.Pi / nPhi

	sum := 0.0
	for i := 0; i < nMu; i++ {
		mu := -1 + (float64(i)+0.5)*dMu
		for j := 0; j < nPhi; j++ {
			phi := (float64(j) + 0.5) * dPhi
			wo := mi.ToWorld(core.SphericalDirection(mu, phi))
			sum += pf.Eval(ctx, mi, wo)
		}
	}
	return sum * dMu * dPhi
}

// recordingPhase returns a fixed direction and counts how it was sampled
type recordingPhase struct {
	dir      core.Vec3
	pdf      float64
	samples  int
	sample1s []float64
}

func (r *recordingPhase) Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64 {
	return r.pdf
}

func (r *recordingPhase) Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64) {
	r.samples++
	r.sample1s = append(r.sample1s, sample1)
	return r.dir, r.pdf
}

func (r *recordingPhase) ComponentCount() int        { return 1 }
func (r *recordingPhase) Flags() Flags               { return FlagIsotropic }
func (r *recordingPhase) ComponentFlags(i int) Flags { return FlagIsotropic }
func (r *recordingPhase) String() string             { return "recordingPhase" }
