// Package integrator estimates integrals over phase functions. The estimates
// check the identities renderers rely on: unit normalization, agreement
// between sampled and evaluated densities, and component decomposition.
package integrator

import (
	"math"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

// Normalization estimates the integral of pf over the sphere of outgoing
// directions using uniform sphere sampling. It should be 1.
func Normalization(pf phase.PhaseFunction, mi *medium.Interaction, sampler core.Sampler, n int) Estimate {
	ctx := phase.NewContext()
	var acc Accumulator
	for i := 0; i < n; i++ {
		wo := core.SampleOnUnitSphere(sampler.Get2D())
		acc.AddSample(pf.Eval(ctx, mi, wo) / core.UniformSpherePDF())
	}
	return acc.Estimate()
}

// MeanCosine estimates the mean cosine between the propagation direction
// (-Wi) and sampled outgoing directions. For Henyey-Greenstein it equals g.
func MeanCosine(pf phase.PhaseFunction, mi *medium.Interaction, sampler core.Sampler, n int) Estimate {
	ctx := phase.NewContext()
	forward := mi.Wi.Negate()
	var acc Accumulator
	for i := 0; i < n; i++ {
		wo, _ := pf.Sample(ctx, mi, sampler.Get1D(), sampler.Get2D())
		acc.AddSample(wo.Dot(forward))
	}
	return acc.Estimate()
}

// SampleConsistency returns the largest relative difference between the
// density returned by Sample and Eval of the sampled direction. Each
// component is checked on its own under a restricted context, since an
// unrestricted mixture sample reports the chosen branch's density.
func SampleConsistency(pf phase.PhaseFunction, mi *medium.Interaction, sampler core.Sampler, n int) float64 {
	worst := 0.0
	for k := 0; k < pf.ComponentCount(); k++ {
		ctx := phase.NewContext()
		if pf.ComponentCount() > 1 {
			ctx = ctx.WithComponent(k)
		}
		for i := 0; i < n; i++ {
			wo, pdf := pf.Sample(ctx, mi, sampler.Get1D(), sampler.Get2D())
			worst = math.Max(worst, RelativeDifference(pdf, pf.Eval(ctx, mi, wo)))
		}
	}
	return worst
}

// ComponentSum returns the largest absolute difference between the
// unrestricted Eval and the sum of restricted Evals over all components,
// for n uniformly distributed directions
func ComponentSum(pf phase.PhaseFunction, mi *medium.Interaction, sampler core.Sampler, n int) float64 {
	ctx := phase.NewContext()
	worst := 0.0
	for i := 0; i < n; i++ {
		wo := core.SampleOnUnitSphere(sampler.Get2D())
		sum := 0.0
		for k := 0; k < pf.ComponentCount(); k++ {
			sum += pf.Eval(ctx.WithComponent(k), mi, wo)
		}
		worst = math.Max(worst, math.Abs(sum-pf.Eval(ctx, mi, wo)))
	}
	return worst
}

// RelativeDifference returns |a-b| / max(|a|,|b|), or 0 when both are zero
func RelativeDifference(a, b float64) float64 {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return 0
	}
	return math.Abs(a-b) / scale
}
