package integrator

import (
	"fmt"
	"math"
)

// Accumulator tracks running sums for a Monte Carlo estimate
type Accumulator struct {
	Sum         float64 // Sum of samples
	SumSq       float64 // Sum of squared samples
	SampleCount int     // Number of samples taken
}

// AddSample adds a new sample value
func (a *Accumulator) AddSample(v float64) {
	a.Sum += v
	a.SumSq += v * v
	a.SampleCount++
}

// Mean returns the current sample mean
func (a *Accumulator) Mean() float64 {
	if a.SampleCount == 0 {
		return 0
	}
	return a.Sum / float64(a.SampleCount)
}

// Variance returns the unbiased sample variance
func (a *Accumulator) Variance() float64 {
	if a.SampleCount < 2 {
		return 0
	}
	n := float64(a.SampleCount)
	mean := a.Sum / n
	return math.Max(0, (a.SumSq-n*mean*mean)/(n-1))
}

// Estimate summarizes the accumulator
func (a *Accumulator) Estimate() Estimate {
	e := Estimate{Mean: a.Mean(), Samples: a.SampleCount}
	if a.SampleCount > 0 {
		e.StdError = math.Sqrt(a.Variance() / float64(a.SampleCount))
	}
	return e
}

// Estimate is a Monte Carlo estimate with its standard error
type Estimate struct {
	Mean     float64
	StdError float64
	Samples  int
}

// Within reports whether want lies within k standard errors of the mean
func (e Estimate) Within(want, k float64) bool {
	return math.Abs(e.Mean-want) <= k*e.StdError
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.6f ± %.6f (n=%d)", e.Mean, e.StdError, e.Samples)
}
