package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for files that are not TOML, YAML or PBRT
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	// ErrUnknownPhaseType is returned for an unrecognized phase type name
	ErrUnknownPhaseType = errors.New("unknown phase function type")
	// ErrUnknownFieldType is returned for an unrecognized field type name
	ErrUnknownFieldType = errors.New("unknown field type")
)

// PhaseConfig describes a phase function and, for blends, its children
type PhaseConfig struct {
	Type   string        `toml:"type" yaml:"type"`
	G      *float64      `toml:"g" yaml:"g"`
	Weight *FieldConfig  `toml:"weight" yaml:"weight"`
	Phases []PhaseConfig `toml:"phase" yaml:"phase"`
}

// FieldConfig describes a scalar field. Which keys apply depends on Type:
// constant uses Value; gradient uses From, To, Start, End; grid uses Min,
// Max, Res, Data and Scale.
type FieldConfig struct {
	Type  string    `toml:"type" yaml:"type"`
	Value *float64  `toml:"value" yaml:"value"`
	From  []float64 `toml:"from" yaml:"from"`
	To    []float64 `toml:"to" yaml:"to"`
	Start float64   `toml:"start" yaml:"start"`
	End   float64   `toml:"end" yaml:"end"`
	Min   []float64 `toml:"min" yaml:"min"`
	Max   []float64 `toml:"max" yaml:"max"`
	Res   []int     `toml:"res" yaml:"res"`
	Data  []float64 `toml:"data" yaml:"data"`
	Scale *float64  `toml:"scale" yaml:"scale"`
}

// Format identifies a configuration file format
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
	FormatPBRT
)

// DetectFormat picks the format from the file extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".pbrt":
		return FormatPBRT, nil
	}
	return 0, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
}

// ParseTOML decodes a phase configuration from TOML
func ParseTOML(r io.Reader) (*PhaseConfig, error) {
	var cfg PhaseConfig
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing TOML phase config: %w", err)
	}
	return &cfg, nil
}

// ParseYAML decodes a phase configuration from YAML
func ParseYAML(r io.Reader) (*PhaseConfig, error) {
	var cfg PhaseConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML phase config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads a TOML or YAML phase configuration file
func LoadConfig(filename string) (*PhaseConfig, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	if format == FormatPBRT {
		return nil, fmt.Errorf("%s: PBRT files describe media, not a phase tree: %w", filename, ErrUnsupportedFormat)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open phase config: %w", err)
	}
	defer file.Close()

	if format == FormatYAML {
		return ParseYAML(file)
	}
	return ParseTOML(file)
}

// validateFilePath rejects paths that cannot name a configuration file
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Null bytes could indicate path manipulation
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	if len(filepath.Clean(filename)) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}
	return nil
}
