package core

import (
	"math"
	"math/rand"
)

// InvFourPi is the density of the uniform distribution over the unit sphere
const InvFourPi = 1.0 / (4.0 * math.Pi)

// Sampler provides random sampling for Monte Carlo estimators
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	return NewVec3(x, y, z)
}

// UniformSpherePDF returns the solid-angle density of SampleOnUnitSphere
func UniformSpherePDF() float64 {
	return InvFourPi
}

// SphericalDirection builds a local direction from a polar cosine and an azimuth
func SphericalDirection(cosTheta, phi float64) Vec3 {
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	sinPhi, cosPhi := math.Sincos(phi)
	return NewVec3(sinTheta*cosPhi, sinTheta*sinPhi, cosTheta)
}
