package phase

import (
	"fmt"
	"math"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/params"
)

// DefaultAsymmetry is the g used when a configuration does not set one
const DefaultAsymmetry = 0.8

// Below this |g| the inversion formula divides by nearly zero, so sampling
// falls back to the isotropic cosine.
const isotropicThreshold = 1e-6

// HenyeyGreenstein is the Henyey-Greenstein phase function. g is the mean
// cosine of the scattering angle: g > 0 scatters forward, g < 0 backward.
type HenyeyGreenstein struct {
	leaf
	g float64
}

// NewHenyeyGreenstein creates an HG phase function with g in (-1, 1)
func NewHenyeyGreenstein(g float64) (*HenyeyGreenstein, error) {
	if err := validateAsymmetry(g); err != nil {
		return nil, err
	}
	return &HenyeyGreenstein{leaf: leaf{flags: FlagAnisotropic}, g: g}, nil
}

func validateAsymmetry(g float64) error {
	if math.IsNaN(g) || g >= 1 || g <= -1 {
		return fmt.Errorf("henyey-greenstein: g = %g: %w", g, ErrInvalidAsymmetry)
	}
	return nil
}

// G returns the asymmetry parameter
func (h *HenyeyGreenstein) G() float64 {
	return h.g
}

// evalHG is the closed-form density for the cosine between wo and wi
func (h *HenyeyGreenstein) evalHG(cosTheta float64) float64 {
	g := h.g
	temp := 1.0 + g*g + 2.0*g*cosTheta
	return core.InvFourPi * (1 - g*g) / (temp * math.Sqrt(temp))
}

// Eval implements PhaseFunction
func (h *HenyeyGreenstein) Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64 {
	return h.evalHG(wo.Dot(mi.Wi))
}

// Sample implements PhaseFunction by inverting the HG CDF over the deflection
// angle. Only sample2 is used.
func (h *HenyeyGreenstein) Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64) {
	g := h.g

	var cosTheta float64
	if math.Abs(g) < isotropicThreshold {
		cosTheta = 1 - 2*sample2.X
	} else {
		sqrTerm := (1 - g*g) / (1 - g + 2*g*sample2.X)
		cosTheta = (1 + g*g - sqrTerm*sqrTerm) / (2 * g)
	}

	// Local +Z is wi, which points back along the incoming path
	local := core.SphericalDirection(-cosTheta, 2*math.Pi*sample2.Y)
	wo := mi.ToWorld(local)
	return wo, h.evalHG(-cosTheta)
}

func (h *HenyeyGreenstein) Traverse(cb params.Callback) {
	cb.PutParameter("g", &h.g, params.NonDifferentiable)
}

// ParametersChanged rejects an updated g outside (-1, 1)
func (h *HenyeyGreenstein) ParametersChanged(keys []string) error {
	return validateAsymmetry(h.g)
}

func (h *HenyeyGreenstein) String() string {
	return fmt.Sprintf("HGPhaseFunction[\n  g = %g\n]", h.g)
}
