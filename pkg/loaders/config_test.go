package loaders

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

const blendTOML = `
type = "blendphase"

[weight]
type = "constant"
value = 0.3

[[phase]]
type = "hg"
g = 0.2

[[phase]]
type = "isotropic"
`

const blendYAML = `
type: blendphase
weight:
  type: gradient
  from: [0.0, 0.0, 0.0]
  to: [0.0, 0.0, 1.0]
  start: 0.0
  end: 1.0
phase:
  - type: blendphase
    phase:
      - type: hg
        g: -0.5
      - type: rayleigh
  - type: hg
`

func TestParseTOML(t *testing.T) {
	cfg, err := ParseTOML(strings.NewReader(blendTOML))
	require.NoError(t, err)

	assert.Equal(t, TypeBlend, cfg.Type)
	require.NotNil(t, cfg.Weight)
	assert.Equal(t, FieldConstant, cfg.Weight.Type)
	require.NotNil(t, cfg.Weight.Value)
	assert.Equal(t, 0.3, *cfg.Weight.Value)

	require.Len(t, cfg.Phases, 2)
	assert.Equal(t, TypeHG, cfg.Phases[0].Type)
	require.NotNil(t, cfg.Phases[0].G)
	assert.Equal(t, 0.2, *cfg.Phases[0].G)
	assert.Equal(t, TypeIsotropic, cfg.Phases[1].Type)
}

func TestParseTOML_UnknownField(t *testing.T) {
	_, err := ParseTOML(strings.NewReader("type = \"hg\"\nasymmetry = 0.5\n"))
	assert.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML(strings.NewReader(blendYAML))
	require.NoError(t, err)

	assert.Equal(t, TypeBlend, cfg.Type)
	assert.Equal(t, FieldGradient, cfg.Weight.Type)
	assert.Equal(t, []float64{0, 0, 1}, cfg.Weight.To)
	require.Len(t, cfg.Phases, 2)
	require.Len(t, cfg.Phases[0].Phases, 2)
	assert.Nil(t, cfg.Phases[1].G)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("type: hg\nasymmetry: 0.5\n"))
	assert.Error(t, err)
}

func TestBuild_TOMLBlend(t *testing.T) {
	cfg, err := ParseTOML(strings.NewReader(blendTOML))
	require.NoError(t, err)

	pf, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)

	blend, ok := pf.(*phase.Blend)
	require.True(t, ok, "expected *phase.Blend, got %T", pf)
	assert.Equal(t, 2, blend.ComponentCount())
	assert.Equal(t, 0.2, blend.Nested(0).(*phase.HenyeyGreenstein).G())
	assert.IsType(t, &phase.Isotropic{}, blend.Nested(1))

	mi := medium.NewInteraction(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1))
	wo := core.NewVec3(1, 0, 0)
	ctx := phase.NewContext()
	want := 0.7*blend.Nested(0).Eval(ctx, mi, wo) + 0.3*core.InvFourPi
	assert.InDelta(t, want, pf.Eval(ctx, mi, wo), 1e-12)
}

func TestBuild_YAMLNested(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := ParseYAML(strings.NewReader(blendYAML))
	require.NoError(t, err)

	pf, err := NewBuilder(logger).Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, pf.ComponentCount())

	outer := pf.(*phase.Blend)
	assert.IsType(t, &medium.GradientField{}, outer.Weight())
	assert.Equal(t, phase.DefaultAsymmetry, outer.Nested(1).(*phase.HenyeyGreenstein).G())

	// Inner blend has no weight, second HG has no g
	assert.Contains(t, logs.String(), "using default blend weight")
	assert.Contains(t, logs.String(), "path=phase.phase_0")
	assert.Contains(t, logs.String(), "using default asymmetry")
	assert.Contains(t, logs.String(), "path=phase.phase_1")
}

func TestBuild_Errors(t *testing.T) {
	g := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		cfg  PhaseConfig
		is   error
	}{
		{
			name: "unknown phase",
			cfg:  PhaseConfig{Type: "microflake"},
			is:   ErrUnknownPhaseType,
		},
		{
			name: "invalid g",
			cfg:  PhaseConfig{Type: TypeHG, G: g(1.5)},
			is:   phase.ErrInvalidAsymmetry,
		},
		{
			name: "blend with one child",
			cfg:  PhaseConfig{Type: TypeBlend, Phases: []PhaseConfig{{Type: TypeIsotropic}}},
			is:   phase.ErrPhaseCount,
		},
		{
			name: "blend with three children",
			cfg: PhaseConfig{Type: TypeBlend, Phases: []PhaseConfig{
				{Type: TypeIsotropic}, {Type: TypeIsotropic}, {Type: TypeIsotropic},
			}},
			is: phase.ErrPhaseCount,
		},
		{
			name: "invalid nested g",
			cfg: PhaseConfig{Type: TypeBlend, Phases: []PhaseConfig{
				{Type: TypeIsotropic}, {Type: TypeHG, G: g(-1)},
			}},
			is: phase.ErrInvalidAsymmetry,
		},
		{
			name: "unknown field",
			cfg: PhaseConfig{Type: TypeBlend, Weight: &FieldConfig{Type: "perlin"}, Phases: []PhaseConfig{
				{Type: TypeIsotropic}, {Type: TypeRayleigh},
			}},
			is: ErrUnknownFieldType,
		},
		{
			name: "short gradient point",
			cfg: PhaseConfig{Type: TypeBlend, Weight: &FieldConfig{Type: FieldGradient, From: []float64{0, 0}, To: []float64{1, 1, 1}}, Phases: []PhaseConfig{
				{Type: TypeIsotropic}, {Type: TypeRayleigh},
			}},
		},
		{
			name: "grid data mismatch",
			cfg: PhaseConfig{Type: TypeBlend, Weight: &FieldConfig{
				Type: FieldGrid, Min: []float64{0, 0, 0}, Max: []float64{1, 1, 1}, Res: []int{2, 1, 1}, Data: []float64{0.5},
			}, Phases: []PhaseConfig{{Type: TypeIsotropic}, {Type: TypeRayleigh}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := NewBuilder(nil).Build(&tt.cfg)
			require.Error(t, err)
			assert.Nil(t, pf)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestBuild_GridWeight(t *testing.T) {
	scale := 0.5
	cfg := PhaseConfig{
		Type: TypeBlend,
		Weight: &FieldConfig{
			Type: FieldGrid, Min: []float64{0, 0, 0}, Max: []float64{2, 1, 1},
			Res: []int{2, 1, 1}, Data: []float64{0, 1}, Scale: &scale,
		},
		Phases: []PhaseConfig{{Type: TypeIsotropic}, {Type: TypeRayleigh}},
	}
	pf, err := NewBuilder(nil).Build(&cfg)
	require.NoError(t, err)

	grid := pf.(*phase.Blend).Weight().(*medium.GridField)
	assert.Equal(t, 0.5, grid.Evaluate(medium.NewInteraction(core.NewVec3(1.5, 0.5, 0.5), core.NewVec3(0, 0, 1))))
}

func TestLoadPhase(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "blend.toml")
	yamlPath := filepath.Join(dir, "blend.yml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(blendTOML), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(blendYAML), 0o644))

	pf, err := LoadPhase(tomlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pf.ComponentCount())

	pf, err = LoadPhase(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, pf.ComponentCount())

	_, err = LoadPhase(filepath.Join(dir, "blend.json"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadPhase(filepath.Join(dir, "scene.pbrt"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadPhase("", nil)
	assert.Error(t, err)

	_, err = LoadPhase(filepath.Join(dir, "missing.toml"), nil)
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.toml":        FormatTOML,
		"b.YAML":        FormatYAML,
		"c.yml":         FormatYAML,
		"scenes/d.pbrt": FormatPBRT,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFormat("e.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
