package phase

import (
	"math"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
)

// Rayleigh models scattering by particles much smaller than the wavelength
type Rayleigh struct {
	leaf
}

// NewRayleigh creates a Rayleigh phase function
func NewRayleigh() *Rayleigh {
	return &Rayleigh{leaf: leaf{flags: FlagAnisotropic}}
}

func evalRayleigh(cosTheta float64) float64 {
	return (3.0 / (16.0 * math.Pi)) * (1.0 + cosTheta*cosTheta)
}

// Eval implements PhaseFunction
func (p *Rayleigh) Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64 {
	return evalRayleigh(wo.Dot(mi.Wi))
}

// Sample implements PhaseFunction. The CDF (mu^3 + 3mu + 4)/8 = u is a
// depressed cubic solved in closed form.
func (p *Rayleigh) Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64) {
	z := 2 * (2*sample2.X - 1)
	tmp := math.Sqrt(z*z + 1)
	cosTheta := math.Cbrt(z+tmp) + math.Cbrt(z-tmp)
	cosTheta = math.Max(-1, math.Min(1, cosTheta))

	wo := mi.ToWorld(core.SphericalDirection(cosTheta, 2*math.Pi*sample2.Y))
	return wo, evalRayleigh(cosTheta)
}

func (p *Rayleigh) String() string {
	return "RayleighPhaseFunction[]"
}
