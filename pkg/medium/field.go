package medium

import (
	"fmt"
	"math"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/params"
)

// ScalarField provides spatially-varying scalar values inside a medium,
// such as the blend weight of a mixture phase function
type ScalarField interface {
	// Evaluate returns the field value at the interaction point
	Evaluate(mi *Interaction) float64
}

// ConstantField provides the same value everywhere
type ConstantField struct {
	Value float64
}

// NewConstantField creates a new constant field
func NewConstantField(value float64) *ConstantField {
	return &ConstantField{Value: value}
}

// Evaluate returns the constant value regardless of position
func (c *ConstantField) Evaluate(mi *Interaction) float64 {
	return c.Value
}

func (c *ConstantField) Traverse(cb params.Callback) {
	cb.PutParameter("value", &c.Value, params.Differentiable)
}

func (c *ConstantField) String() string {
	return fmt.Sprintf("ConstantField[value = %g]", c.Value)
}

// GradientField interpolates linearly from Start at point From to End at
// point To. Points are projected onto the From-To segment and clamped to it.
type GradientField struct {
	From, To   core.Vec3
	Start, End float64

	axis      core.Vec3
	invLenSqr float64
}

// NewGradientField creates a gradient between two distinct points
func NewGradientField(from, to core.Vec3, start, end float64) (*GradientField, error) {
	g := &GradientField{From: from, To: to, Start: start, End: end}
	if err := g.ParametersChanged(nil); err != nil {
		return nil, err
	}
	return g, nil
}

// Evaluate returns the interpolated value at the interaction point
func (g *GradientField) Evaluate(mi *Interaction) float64 {
	t := mi.P.Subtract(g.From).Dot(g.axis) * g.invLenSqr
	t = math.Max(0, math.Min(1, t))
	return g.Start*(1-t) + g.End*t
}

func (g *GradientField) Traverse(cb params.Callback) {
	cb.PutParameter("start", &g.Start, params.Differentiable)
	cb.PutParameter("end", &g.End, params.Differentiable)
}

// ParametersChanged re-derives the projection axis
func (g *GradientField) ParametersChanged(keys []string) error {
	axis := g.To.Subtract(g.From)
	lenSqr := axis.LengthSquared()
	if lenSqr == 0 {
		return fmt.Errorf("gradient field: from and to must differ, both are %v", g.From)
	}
	g.axis = axis
	g.invLenSqr = 1 / lenSqr
	return nil
}

func (g *GradientField) String() string {
	return fmt.Sprintf("GradientField[from = %v, to = %v, start = %g, end = %g]", g.From, g.To, g.Start, g.End)
}

// GridField stores values on a regular voxel grid spanning the box [Min, Max].
// Lookups use the nearest voxel; points outside the box clamp to the border.
type GridField struct {
	Min, Max core.Vec3
	Res      [3]int
	Data     []float64 // Data[(z*Res[1]+y)*Res[0]+x]
	Scale    float64   // Multiplier applied to every lookup
}

// NewGridField creates a grid field and validates its dimensions
func NewGridField(min, max core.Vec3, res [3]int, data []float64) (*GridField, error) {
	for i, r := range res {
		if r <= 0 {
			return nil, fmt.Errorf("grid field: resolution along axis %d must be positive, got %d", i, r)
		}
		if max.Component(i) <= min.Component(i) {
			return nil, fmt.Errorf("grid field: empty bounds along axis %d", i)
		}
	}
	if want := res[0] * res[1] * res[2]; len(data) != want {
		return nil, fmt.Errorf("grid field: expected %d values for resolution %v, got %d", want, res, len(data))
	}
	return &GridField{Min: min, Max: max, Res: res, Data: data, Scale: 1}, nil
}

// Evaluate returns the value of the voxel containing the interaction point
func (g *GridField) Evaluate(mi *Interaction) float64 {
	var idx [3]int
	for i := 0; i < 3; i++ {
		lo, hi := g.Min.Component(i), g.Max.Component(i)
		u := (mi.P.Component(i) - lo) / (hi - lo)
		v := int(u * float64(g.Res[i]))

		// Clamp to grid bounds
		if v >= g.Res[i] {
			v = g.Res[i] - 1
		}
		if v < 0 {
			v = 0
		}
		idx[i] = v
	}
	return g.Scale * g.Data[(idx[2]*g.Res[1]+idx[1])*g.Res[0]+idx[0]]
}

func (g *GridField) Traverse(cb params.Callback) {
	cb.PutParameter("scale", &g.Scale, params.Differentiable)
}

func (g *GridField) String() string {
	return fmt.Sprintf("GridField[min = %v, max = %v, res = %v, scale = %g]", g.Min, g.Max, g.Res, g.Scale)
}
