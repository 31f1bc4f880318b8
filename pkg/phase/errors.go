package phase

import "errors"

var (
	// ErrInvalidAsymmetry is returned when a Henyey-Greenstein g is outside (-1, 1)
	ErrInvalidAsymmetry = errors.New("asymmetry parameter must lie in the interval (-1, 1)")
	// ErrMissingWeight is returned when a blend has no weight field
	ErrMissingWeight = errors.New("blend phase needs a weight field")
	// ErrPhaseCount is returned when a blend is not given exactly two children
	ErrPhaseCount = errors.New("blend phase needs exactly two child phase functions")
	// ErrNilPhase is returned when a blend child is nil
	ErrNilPhase = errors.New("blend phase child is nil")
)
