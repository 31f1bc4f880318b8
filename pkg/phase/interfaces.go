// Package phase implements phase functions: angular scattering densities used
// at scattering events inside participating media.
//
// Directions follow the convention that both the incident direction
// (Interaction.Wi) and the outgoing direction point away from the scattering
// point, so forward scattering corresponds to wo·wi = -1.
package phase

import (
	"strings"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
)

// PhaseFunction is an importance-sampleable angular scattering distribution.
// Implementations are immutable during evaluation and safe for concurrent use.
type PhaseFunction interface {
	// Eval returns the density of scattering into wo
	Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64

	// Sample draws an outgoing direction and returns it with its density.
	// sample1 is a uniform draw used for discrete choices (e.g. mixture
	// branches); sample2 drives the continuous direction sampling.
	Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64)

	// ComponentCount returns the number of addressable components
	ComponentCount() int

	// Flags returns the union of all component flags
	Flags() Flags

	// ComponentFlags returns the flags of component i
	ComponentFlags(i int) Flags

	String() string
}

// AllComponents selects every component of a phase function
const AllComponents = -1

// TransportMode tells which quantity a path carries
type TransportMode int

const (
	Radiance TransportMode = iota
	Importance
)

// Context carries per-call options for Eval and Sample
type Context struct {
	// Component restricts the call to one component, or AllComponents
	Component int
	Mode      TransportMode
}

// NewContext returns an unrestricted radiance context
func NewContext() Context {
	return Context{Component: AllComponents, Mode: Radiance}
}

// WithComponent returns a copy of the context restricted to component k
func (c Context) WithComponent(k int) Context {
	c.Component = k
	return c
}

// Unrestricted reports whether the context addresses every component
func (c Context) Unrestricted() bool {
	return c.Component == AllComponents
}

// Flags describe the angular behavior of a phase function or component
type Flags uint32

const (
	FlagIsotropic Flags = 1 << iota
	FlagAnisotropic
	FlagMicroflake
)

// Has reports whether all bits of other are set
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	if f.Has(FlagIsotropic) {
		names = append(names, "isotropic")
	}
	if f.Has(FlagAnisotropic) {
		names = append(names, "anisotropic")
	}
	if f.Has(FlagMicroflake) {
		names = append(names, "microflake")
	}
	return strings.Join(names, "|")
}

// leaf holds the component bookkeeping shared by single-component phase functions
type leaf struct {
	flags Flags
}

func (l leaf) ComponentCount() int {
	return 1
}

func (l leaf) Flags() Flags {
	return l.flags
}

func (l leaf) ComponentFlags(i int) Flags {
	return l.flags
}
