package contract

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/facility"
	"github.com/hupe1980/coreset/testutil"
)

func buildSet(t *testing.T, vectors [][]float32, weights []float64) *facility.Set {
	t.Helper()
	s := facility.NewSet(distance.L2)
	for i, v := range vectors {
		s.Open(v, uint64(i), 1).Absorb(weights[i], 0)
	}
	return s
}

func randomSet(t *testing.T, seed int64, n, dim int) *facility.Set {
	t.Helper()
	rng := testutil.NewRNG(seed)
	vectors := rng.UniformVectors(n, dim)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = float64(1 + rng.Intn(10))
	}
	return buildSet(t, vectors, weights)
}

func TestReduceInfeasibleTarget(t *testing.T) {
	s := randomSet(t, 1, 10, 3)

	_, err := Reduce(context.Background(), s, 0)
	require.ErrorIs(t, err, ErrInfeasibleContraction)

	_, err = Reduce(context.Background(), s, -5)
	require.ErrorIs(t, err, ErrInfeasibleContraction)
}

func TestReduceNonExpansion(t *testing.T) {
	s := randomSet(t, 2, 10, 3)

	out, err := Reduce(context.Background(), s, 10)
	require.NoError(t, err)
	assert.Same(t, s, out)

	out, err = Reduce(context.Background(), s, 50)
	require.NoError(t, err)
	assert.Same(t, s, out)
}

func TestReduceGreedy(t *testing.T) {
	s := randomSet(t, 3, 130, 8)
	before := s.TotalWeight()

	out, err := Reduce(context.Background(), s, 70)
	require.NoError(t, err)

	assert.Equal(t, 70, out.Len())
	assert.InDelta(t, before, out.TotalWeight(), 1e-6*before)

	// Input set untouched.
	assert.Equal(t, 130, s.Len())
}

func TestReduceGreedyMergesClosestPair(t *testing.T) {
	// Two near-identical facilities and two far outliers: the near pair
	// must merge first.
	s := buildSet(t,
		[][]float32{{0, 0}, {0.01, 0}, {100, 0}, {0, 100}},
		[]float64{1, 1, 1, 1},
	)

	out, err := Reduce(context.Background(), s, 3)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	// The merged survivor sits between the near pair.
	f := out.Facility(0)
	assert.InDelta(t, 0.005, float64(f.Representative[0]), 1e-4)
	assert.Equal(t, float64(2), f.Weight)
}

func TestReduceGreedyMaxCostIncrease(t *testing.T) {
	s := buildSet(t,
		[][]float32{{0, 0}, {0.01, 0}, {100, 0}, {0, 100}},
		[]float64{1, 1, 1, 1},
	)

	// Merging the near pair costs ~0.01; everything else costs >= 100.
	out, err := Reduce(context.Background(), s, 1, func(o *Options) {
		o.MaxCostIncrease = 1.0
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}

func TestReduceGreedyInvalidMetric(t *testing.T) {
	nan := func(a, b []float32) float32 { return float32(math.NaN()) }
	s := facility.NewSet(nan)
	for i := 0; i < 4; i++ {
		s.Open([]float32{float32(i)}, uint64(i), 1)
	}

	_, err := Reduce(context.Background(), s, 2)
	require.ErrorIs(t, err, distance.ErrInvalidMetric)
}

func TestReduceGreedyDeterministicAcrossParallelism(t *testing.T) {
	run := func(parallelism int) ([][]float32, []float64) {
		s := randomSet(t, 4, 60, 6)
		out, err := Reduce(context.Background(), s, 20, func(o *Options) {
			o.Parallelism = parallelism
		})
		require.NoError(t, err)
		return out.WeightedPoints()
	}

	p1, w1 := run(1)
	p2, w2 := run(8)
	assert.Equal(t, p1, p2)
	assert.Equal(t, w1, w2)
}

func TestReduceKMeans(t *testing.T) {
	s := randomSet(t, 5, 100, 4)
	before := s.TotalWeight()

	out, err := Reduce(context.Background(), s, 10, func(o *Options) {
		o.Policy = PolicyKMeans
		o.Seed = 42
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, out.Len(), 10)
	assert.Greater(t, out.Len(), 0)
	assert.InDelta(t, before, out.TotalWeight(), 1e-6*before)
}

func TestReduceKMeansDeterministic(t *testing.T) {
	run := func() ([][]float32, []float64) {
		s := randomSet(t, 6, 80, 4)
		out, err := Reduce(context.Background(), s, 12, func(o *Options) {
			o.Policy = PolicyKMeans
			o.Seed = 7
		})
		require.NoError(t, err)
		return out.WeightedPoints()
	}

	p1, w1 := run()
	p2, w2 := run()
	assert.Equal(t, p1, p2)
	assert.Equal(t, w1, w2)
}

func TestReduceCancelled(t *testing.T) {
	s := randomSet(t, 7, 100, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Reduce(ctx, s, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "greedy", PolicyGreedy.String())
	assert.Equal(t, "kmeans", PolicyKMeans.String())
}
