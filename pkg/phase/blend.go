package phase

import (
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/params"
)

// DefaultBlendWeight is the constant weight used when none is configured
const DefaultBlendWeight = 0.5

// Blend mixes two phase functions with a spatially varying weight w in [0,1].
// w = 0 selects the first child only, w = 1 the second.
//
// The components of a Blend are those of its first child followed by those
// of its second, so a restricted Context can address any leaf of a nested
// tree of blends.
type Blend struct {
	weight medium.ScalarField
	nested [2]PhaseFunction

	flags      Flags
	components []Flags
}

// NewBlend creates a blend of p0 and p1 weighted by weight
func NewBlend(weight medium.ScalarField, p0, p1 PhaseFunction) (*Blend, error) {
	if weight == nil {
		return nil, fmt.Errorf("blendphase: %w", ErrMissingWeight)
	}
	if p0 == nil || p1 == nil {
		return nil, fmt.Errorf("blendphase: %w", ErrNilPhase)
	}

	b := &Blend{weight: weight, nested: [2]PhaseFunction{p0, p1}}
	b.updateComponents()
	return b, nil
}

// NewBlendFromList creates a blend from a list that must hold exactly two
// phase functions
func NewBlendFromList(weight medium.ScalarField, phases []PhaseFunction) (*Blend, error) {
	if len(phases) != 2 {
		return nil, fmt.Errorf("blendphase: got %d: %w", len(phases), ErrPhaseCount)
	}
	return NewBlend(weight, phases[0], phases[1])
}

func (b *Blend) updateComponents() {
	b.components = b.components[:0]
	for _, p := range b.nested {
		for j := 0; j < p.ComponentCount(); j++ {
			b.components = append(b.components, p.ComponentFlags(j))
		}
	}
	b.flags = b.nested[0].Flags() | b.nested[1].Flags()
}

// Nested returns child i (0 or 1)
func (b *Blend) Nested(i int) PhaseFunction {
	return b.nested[i]
}

// Weight returns the weight field
func (b *Blend) Weight() medium.ScalarField {
	return b.weight
}

func (b *Blend) ComponentCount() int {
	return len(b.components)
}

func (b *Blend) Flags() Flags {
	return b.flags
}

func (b *Blend) ComponentFlags(i int) Flags {
	return b.components[i]
}

// evalWeight queries the weight field once and clamps it to [0,1]
func (b *Blend) evalWeight(mi *medium.Interaction) float64 {
	w := b.weight.Evaluate(mi)
	if math.IsNaN(w) {
		return 0
	}
	return math.Max(0, math.Min(1, w))
}

// route resolves a restricted context to the child owning the component,
// the context rebased into that child's component range, and the factor the
// child's result is scaled by.
func (b *Blend) route(ctx Context, w float64) (PhaseFunction, Context, float64) {
	n0 := b.nested[0].ComponentCount()
	if ctx.Component < n0 {
		return b.nested[0], ctx, 1 - w
	}
	ctx.Component -= n0
	return b.nested[1], ctx, w
}

// Eval implements PhaseFunction. Unrestricted, it returns the full mixture
// density (1-w)·p0 + w·p1.
func (b *Blend) Eval(ctx Context, mi *medium.Interaction, wo core.Vec3) float64 {
	w := b.evalWeight(mi)

	if !ctx.Unrestricted() {
		child, childCtx, scale := b.route(ctx, w)
		return scale * child.Eval(childCtx, mi, wo)
	}

	return b.nested[0].Eval(ctx, mi, wo)*(1-w) + b.nested[1].Eval(ctx, mi, wo)*w
}

// Sample implements PhaseFunction. Unrestricted, sample1 picks a child
// (above w: first child, otherwise second) and is rescaled into a fresh
// uniform for that child. The returned density is the chosen child's own
// density, not the mixture density; Eval gives the latter.
func (b *Blend) Sample(ctx Context, mi *medium.Interaction, sample1 float64, sample2 core.Vec2) (core.Vec3, float64) {
	w := b.evalWeight(mi)

	if !ctx.Unrestricted() {
		child, childCtx, scale := b.route(ctx, w)
		wo, pdf := child.Sample(childCtx, mi, sample1, sample2)
		return wo, pdf * scale
	}

	switch {
	case w <= 0:
		return b.nested[0].Sample(ctx, mi, sample1, sample2)
	case w >= 1:
		return b.nested[1].Sample(ctx, mi, sample1, sample2)
	case sample1 > w:
		return b.nested[0].Sample(ctx, mi, (sample1-w)/(1-w), sample2)
	default:
		return b.nested[1].Sample(ctx, mi, sample1/w, sample2)
	}
}

func (b *Blend) Traverse(cb params.Callback) {
	cb.PutObject("weight", b.weight, params.Differentiable)
	cb.PutObject("phase_0", b.nested[0], params.Differentiable)
	cb.PutObject("phase_1", b.nested[1], params.Differentiable)
}

// ParametersChanged refreshes the component table from the children
func (b *Blend) ParametersChanged(keys []string) error {
	b.updateComponents()
	return nil
}

func (b *Blend) String() string {
	var sb strings.Builder
	sb.WriteString("BlendPhase[\n")
	fmt.Fprintf(&sb, "  weight = %s,\n", indent(describe(b.weight)))
	fmt.Fprintf(&sb, "  nested_phase[0] = %s,\n", indent(b.nested[0].String()))
	fmt.Fprintf(&sb, "  nested_phase[1] = %s\n", indent(b.nested[1].String()))
	sb.WriteString("]")
	return sb.String()
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
