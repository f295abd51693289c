package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestDraw_DependsOnlyOnInputs(t *testing.T) {
	a := NewSource(7)
	b := NewSource(7)

	// Advancing the shared stream must not change per-agent draws.
	for i := 0; i < 10; i++ {
		a.Float()
	}

	for agent := uint64(1); agent <= 50; agent++ {
		assert.Equal(t, b.Draw(agent, 3), a.Draw(agent, 3))
	}
	assert.NotEqual(t, a.Draw(1, 3), a.Draw(1, 4))
	assert.NotEqual(t, a.Draw(1, 3), NewSource(8).Draw(1, 3))
}

func TestDraw_Range(t *testing.T) {
	for agent := uint64(0); agent < 2000; agent++ {
		v := Draw(42, agent, agent*7)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestPoisson(t *testing.T) {
	src := NewSource(1)
	assert.Equal(t, 0, src.Poisson(0))
	assert.Equal(t, 0, src.Poisson(-3))

	tests := []struct {
		name   string
		lambda float64
	}{
		{"small", 0.5},
		{"medium", 4},
		{"large", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 4000
			samples := make([]float64, n)
			for i := range samples {
				k := src.Poisson(tt.lambda)
				require.GreaterOrEqual(t, k, 0)
				samples[i] = float64(k)
			}
			mean, variance := stat.MeanVariance(samples, nil)
			assert.InEpsilon(t, tt.lambda, mean, 0.1)
			// Poisson counts have variance equal to their mean.
			assert.InEpsilon(t, tt.lambda, variance, 0.2)
		})
	}
}

func TestSource_Deterministic(t *testing.T) {
	a := NewSource(99)
	b := NewSource(99)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Poisson(2.5), b.Poisson(2.5))
		assert.Equal(t, a.Float(), b.Float())
	}
	assert.Equal(t, int64(99), a.Seed())
}
