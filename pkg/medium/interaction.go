package medium

import (
	"github.com/df07/go-phase-functions/pkg/core"
)

// Interaction describes a scattering event inside a participating medium
type Interaction struct {
	P     core.Vec3  // Position of the scattering event
	Wi    core.Vec3  // Incident direction, pointing away from P (unit length)
	T     float64    // Ray distance at which the event happened
	Frame core.Frame // Local frame with Wi as its normal
}

// NewInteraction creates an interaction at p with incident direction wi.
// wi is normalized and used as the local frame's normal.
func NewInteraction(p, wi core.Vec3) *Interaction {
	wi = wi.Normalize()
	return &Interaction{
		P:     p,
		Wi:    wi,
		Frame: core.NewFrame(wi),
	}
}

// NewRayInteraction creates the interaction for a ray travelling along dir
// that scatters at distance t from origin. The incident direction is -dir.
func NewRayInteraction(origin, dir core.Vec3, t float64) *Interaction {
	mi := NewInteraction(origin.Add(dir.Normalize().Multiply(t)), dir.Negate())
	mi.T = t
	return mi
}

// ToWorld maps a direction from the local frame into world space
func (mi *Interaction) ToWorld(v core.Vec3) core.Vec3 {
	return mi.Frame.ToWorld(v)
}

// ToLocal maps a world direction into the local frame
func (mi *Interaction) ToLocal(v core.Vec3) core.Vec3 {
	return mi.Frame.ToLocal(v)
}
