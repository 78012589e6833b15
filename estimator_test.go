package montecarlo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCube(n int) []Bound {
	bounds := make([]Bound, n)
	for i := range bounds {
		bounds[i] = Bound{Lo: 0, Hi: 1}
	}
	return bounds
}

// TestNewPrimesPerWorkerState verifies the observers are meaningful right
// after construction: one call per prospective worker, maximal variance.
func TestNewPrimesPerWorkerState(t *testing.T) {
	f := func(x []float64) float64 { return 3 }
	cfg := Config{Threads: 4, Seed: 42}

	mc, err := New(f, unitCube(3), 1e-3, cfg)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), mc.Calls())
	assert.Equal(t, 3.0, mc.CurrentEstimate())
	assert.Equal(t, math.MaxFloat64, mc.Variance())
	assert.Less(t, mc.Progress(), 1.0)
	assert.Positive(t, mc.EstimatedTimeToCompletion())
}

// TestNewRejectsInvalidBounds verifies construction fails on hi <= lo.
func TestNewRejectsInvalidBounds(t *testing.T) {
	f := func(x []float64) float64 { return 1 }

	_, err := New(f, []Bound{{Lo: 0, Hi: 1}, {Lo: 2, Hi: 2}}, 1e-3, DefaultConfig())
	require.Error(t, err)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Axis)
	assert.Nil(t, de.Point)
	assert.Contains(t, de.Error(), "axis 1")
}

// TestThreadsCoercedToOne verifies thread counts below 1 become 1.
func TestThreadsCoercedToOne(t *testing.T) {
	f := func(x []float64) float64 { return 1 }

	for _, threads := range []int{0, -3} {
		mc, err := New(f, unitCube(1), 1e-3, Config{Threads: threads})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), mc.Calls())
	}
}

// TestSingularVolumeOffByOneStep verifies singular mode shrinks the box only
// by the endpoint perturbation (a zero lower bound moves to ε, an upper
// bound one representable step down) and nothing more.
func TestSingularVolumeOffByOneStep(t *testing.T) {
	f := func(x []float64) float64 { return 1 }

	cfg := Config{Threads: 1, Seed: 1, Singular: true}
	mc, err := New(f, unitCube(2), 1e-3, cfg)
	require.NoError(t, err)

	est := mc.CurrentEstimate()
	assert.Less(t, est, 1.0)
	assert.InDelta(t, 1.0, est, 1e-12)
}

// TestUpdateTargetError verifies the goal is replaced atomically and the
// progress observer tracks it.
func TestUpdateTargetError(t *testing.T) {
	f := func(x []float64) float64 { return 1 }

	mc, err := New(f, unitCube(1), 1e-3, Config{Threads: 2, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, 1e-3, mc.ErrorGoal())

	mc.UpdateTargetError(1e-6)
	assert.Equal(t, 1e-6, mc.ErrorGoal())

	// A goal far above the (maximal) primed error estimate reads as done.
	mc.UpdateTargetError(1e200)
	assert.Equal(t, 1.0, mc.Progress())
	assert.Equal(t, time.Duration(0), mc.EstimatedTimeToCompletion())
}

// TestPrimingDeterministicUnderSeed verifies a fixed seed and thread count
// reproduce the primed state bit for bit.
func TestPrimingDeterministicUnderSeed(t *testing.T) {
	f := func(x []float64) float64 { return x[0] * x[0] }
	cfg := Config{Threads: 3, Seed: 7}

	a, err := New(f, unitCube(2), 1e-3, cfg)
	require.NoError(t, err)
	b, err := New(f, unitCube(2), 1e-3, cfg)
	require.NoError(t, err)

	assert.Equal(t, a.CurrentEstimate(), b.CurrentEstimate())

	cfg.Seed = 8
	c, err := New(f, unitCube(2), 1e-3, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.CurrentEstimate(), c.CurrentEstimate())
}
