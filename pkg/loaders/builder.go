package loaders

import (
	"fmt"
	"log/slog"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

// Phase type names accepted in configuration files
const (
	TypeHG        = "hg"
	TypeIsotropic = "isotropic"
	TypeRayleigh  = "rayleigh"
	TypeBlend     = "blendphase"
)

// Field type names accepted in configuration files
const (
	FieldConstant = "constant"
	FieldGradient = "gradient"
	FieldGrid     = "grid"
)

// Builder turns configurations into phase functions
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a builder that reports defaulted parameters to logger.
// A nil logger discards everything.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{logger: logger}
}

// Build constructs the phase function described by cfg
func (b *Builder) Build(cfg *PhaseConfig) (phase.PhaseFunction, error) {
	return b.build(cfg, "phase")
}

func (b *Builder) build(cfg *PhaseConfig, path string) (phase.PhaseFunction, error) {
	if cfg.Type != TypeBlend && (len(cfg.Phases) > 0 || cfg.Weight != nil) {
		b.logger.Warn("ignoring nested phases and weight on a leaf phase function", "path", path, "type", cfg.Type)
	}

	switch cfg.Type {
	case TypeHG:
		g := phase.DefaultAsymmetry
		if cfg.G != nil {
			g = *cfg.G
		} else {
			b.logger.Debug("using default asymmetry", "path", path, "g", g)
		}
		hg, err := phase.NewHenyeyGreenstein(g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return hg, nil

	case TypeIsotropic:
		return phase.NewIsotropic(), nil

	case TypeRayleigh:
		return phase.NewRayleigh(), nil

	case TypeBlend:
		return b.buildBlend(cfg, path)
	}

	return nil, fmt.Errorf("%s: %q: %w", path, cfg.Type, ErrUnknownPhaseType)
}

func (b *Builder) buildBlend(cfg *PhaseConfig, path string) (phase.PhaseFunction, error) {
	var weight medium.ScalarField
	if cfg.Weight != nil {
		field, err := b.buildField(cfg.Weight, path+".weight")
		if err != nil {
			return nil, err
		}
		weight = field
	} else {
		b.logger.Debug("using default blend weight", "path", path, "weight", phase.DefaultBlendWeight)
		weight = medium.NewConstantField(phase.DefaultBlendWeight)
	}

	children := make([]phase.PhaseFunction, 0, len(cfg.Phases))
	for i := range cfg.Phases {
		child, err := b.build(&cfg.Phases[i], fmt.Sprintf("%s.phase_%d", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	blend, err := phase.NewBlendFromList(weight, children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return blend, nil
}

func (b *Builder) buildField(cfg *FieldConfig, path string) (medium.ScalarField, error) {
	switch cfg.Type {
	case FieldConstant, "":
		value := phase.DefaultBlendWeight
		if cfg.Value != nil {
			value = *cfg.Value
		} else {
			b.logger.Debug("using default constant value", "path", path, "value", value)
		}
		return medium.NewConstantField(value), nil

	case FieldGradient:
		from, err := vec3(cfg.From, path+".from")
		if err != nil {
			return nil, err
		}
		to, err := vec3(cfg.To, path+".to")
		if err != nil {
			return nil, err
		}
		field, err := medium.NewGradientField(from, to, cfg.Start, cfg.End)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return field, nil

	case FieldGrid:
		lo, err := vec3(cfg.Min, path+".min")
		if err != nil {
			return nil, err
		}
		hi, err := vec3(cfg.Max, path+".max")
		if err != nil {
			return nil, err
		}
		if len(cfg.Res) != 3 {
			return nil, fmt.Errorf("%s.res: expected 3 values, got %d", path, len(cfg.Res))
		}
		field, err := medium.NewGridField(lo, hi, [3]int{cfg.Res[0], cfg.Res[1], cfg.Res[2]}, cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if cfg.Scale != nil {
			field.Scale = *cfg.Scale
		}
		return field, nil
	}

	return nil, fmt.Errorf("%s: %q: %w", path, cfg.Type, ErrUnknownFieldType)
}

func vec3(values []float64, path string) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("%s: expected 3 values, got %d", path, len(values))
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}

// LoadPhase reads a TOML or YAML file and builds the phase function it describes
func LoadPhase(filename string, logger *slog.Logger) (phase.PhaseFunction, error) {
	cfg, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	return NewBuilder(logger).Build(cfg)
}
