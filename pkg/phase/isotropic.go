package phase

import (
	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
)

// Isotropic scatters uniformly over the sphere
type Isotropic struct {
	leaf
}

// NewIsotropic creates an isotropic phase function
func NewIsotropic() *Isotropic {
	return &Isotropic{leaf: leaf{flags: FlagIsotropic}}
}

// Eval implements PhaseFunction
func (p *Isotropic) Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64 {
	return core.InvFourPi
}

// Sample implements PhaseFunction
func (p *Isotropic) Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64) {
	return core.SampleOnUnitSphere(sample2), core.UniformSpherePDF()
}

func (p *Isotropic) String() string {
	return "IsotropicPhaseFunction[]"
}
