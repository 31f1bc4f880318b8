package integrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator(t *testing.T) {
	var acc Accumulator
	assert.Equal(t, 0.0, acc.Mean())
	assert.Equal(t, 0.0, acc.Variance())
	assert.Equal(t, Estimate{}, acc.Estimate())

	for _, v := range []float64{1, 2, 3, 4} {
		acc.AddSample(v)
	}
	assert.Equal(t, 4, acc.SampleCount)
	assert.InDelta(t, 2.5, acc.Mean(), 1e-15)
	assert.InDelta(t, 5.0/3.0, acc.Variance(), 1e-12)

	est := acc.Estimate()
	assert.InDelta(t, 0.6454972, est.StdError, 1e-6)
	assert.True(t, est.Within(3, 1))
	assert.False(t, est.Within(5, 1))
	assert.Contains(t, est.String(), "n=4")
}
