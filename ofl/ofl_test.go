package ofl

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/stream"
	"github.com/hupe1980/coreset/testutil"
)

func newProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	p, err := New(distance.L2, opts)
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := New(distance.L2, Options{})
	require.Error(t, err) // no bound and no derivation inputs

	_, err = New(distance.L2, Options{Bound: 10, InitialThreshold: -1})
	require.Error(t, err)

	_, err = New(distance.L2, Options{Bound: 10, DoublingFactor: 0.5})
	require.Error(t, err)

	p, err := New(distance.L2, Options{K: 4, ExpectedSize: 1024})
	require.NoError(t, err)
	assert.Equal(t, DeriveBound(4, 1024, DefaultGamma), p.Bound())
}

func TestDeriveBound(t *testing.T) {
	// gamma * (1+log2(n)) * k = 2 * 11 * 4 = 88.
	assert.Equal(t, 88, DeriveBound(4, 1024, 2))
	assert.Equal(t, 0, DeriveBound(0, 1024, 2))
	assert.Equal(t, 0, DeriveBound(4, 1, 2))
}

func TestFirstPointOpensFacility(t *testing.T) {
	p := newProcessor(t, Options{Bound: 10})

	require.NoError(t, p.Add([]float32{1, 2}))

	require.Equal(t, 1, p.Set().Len())
	f := p.Set().Facility(0)
	assert.Equal(t, float64(1), f.Weight)
	assert.Equal(t, float64(0), f.Cost)
	assert.Equal(t, float64(0), p.TotalCost())
}

func TestDuplicatesAbsorbAtZeroDistance(t *testing.T) {
	p := newProcessor(t, Options{Bound: 10, InitialThreshold: 0.1})

	pt := []float32{3, 4}
	for n := 0; n < 5; n++ {
		require.NoError(t, p.Add(pt))
	}

	require.Equal(t, 1, p.Set().Len())
	assert.Equal(t, float64(5), p.Set().Facility(0).Weight)
	assert.Equal(t, float64(0), p.TotalCost())
}

func TestWeightConservation(t *testing.T) {
	p := newProcessor(t, Options{Bound: 8, InitialThreshold: 0.05})

	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(500, 4)
	for _, v := range vectors {
		require.NoError(t, p.Add(v))
	}

	assert.Equal(t, uint64(500), p.Processed())
	assert.InDelta(t, 500.0, p.Set().TotalWeight(), 1e-6)
}

func TestBoundEnforcedAfterDoubling(t *testing.T) {
	p := newProcessor(t, Options{Bound: 4, InitialThreshold: 0.001})

	rng := testutil.NewRNG(11)
	for _, v := range rng.UniformVectors(200, 3) {
		require.NoError(t, p.Add(v))
		assert.LessOrEqual(t, p.Set().Len(), 4)
	}

	assert.Greater(t, p.Doublings(), 0)
	assert.Greater(t, p.Threshold(), 0.001)
}

func TestWellSeparatedClusters(t *testing.T) {
	const eps = 0.05

	rng := testutil.NewRNG(3)
	centers := [][]float32{
		{0, 0}, {100, 0}, {0, 100}, {100, 100},
	}
	var vectors [][]float32
	for n := 0; n < 100; n++ {
		for _, c := range centers {
			v := make([]float32, len(c))
			for j := range v {
				v[j] = c[j] + (rng.Float32()*2-1)*eps/2
			}
			vectors = append(vectors, v)
		}
	}

	tests := []struct {
		name string
		opts Options
	}{
		// Threshold already wider than the cluster spread.
		{"threshold above spread", Options{Bound: 16, InitialThreshold: 0.5}},
		// Threshold below the spread: every cluster churns out facilities
		// that doubling must coalesce back to one per cluster.
		{"threshold below spread tight bound", Options{Bound: 4, InitialThreshold: 0.005}},
		{"threshold below spread loose bound", Options{Bound: 16, InitialThreshold: 0.005}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(t, tt.opts)
			for _, v := range vectors {
				require.NoError(t, p.Add(v))
			}

			require.Equal(t, 4, p.Set().Len())
			meanCost := p.TotalCost() / float64(len(vectors))
			assert.LessOrEqual(t, meanCost, float64(eps))
		})
	}
}

func TestCostBoundTriggersDoubling(t *testing.T) {
	var events []DoublingEvent
	p := newProcessor(t, Options{
		Bound:            100,
		InitialThreshold: 10,
		CostBound:        0.5,
		OnDoubling:       func(e DoublingEvent) { events = append(events, e) },
	})

	// All points land in one facility; the accumulated cost trips the bound.
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Add([]float32{float32(i) * 0.1}))
	}

	assert.NotEmpty(t, events)
	assert.Equal(t, p.Doublings(), len(events))
}

func TestProcessStream(t *testing.T) {
	p := newProcessor(t, Options{Bound: 8, InitialThreshold: 0.1})

	rng := testutil.NewRNG(5)
	src := stream.FromVectors(rng.UniformVectors(100, 2))
	require.NoError(t, p.Process(context.Background(), src))

	assert.Equal(t, uint64(100), p.Processed())
	assert.InDelta(t, 100.0, p.Set().TotalWeight(), 1e-6)
}

func TestProcessCancelKeepsPartialState(t *testing.T) {
	p := newProcessor(t, Options{Bound: 8, InitialThreshold: 0.1})

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan stream.Point, 1)
	ch <- stream.Point{Vector: []float32{1, 1}}
	src := stream.NewChannelSource(ch)

	require.NoError(t, p.Add([]float32{0, 0}))
	pt, err := src.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Add(pt.Vector))

	cancel()
	err = p.Process(ctx, src)
	require.ErrorIs(t, err, context.Canceled)

	// Partial state keeps the invariants.
	assert.InDelta(t, float64(p.Processed()), p.Set().TotalWeight(), 1e-6)
}

func TestInvalidMetricAborts(t *testing.T) {
	nan := func(a, b []float32) float32 { return float32(math.NaN()) }
	p, err := New(nan, Options{Bound: 4})
	require.NoError(t, err)

	require.NoError(t, p.Add([]float32{0})) // first point never evaluates the metric

	err = p.Add([]float32{1})
	require.ErrorIs(t, err, distance.ErrInvalidMetric)
}

func TestDeterminism(t *testing.T) {
	rng := testutil.NewRNG(13)
	vectors := rng.UniformVectors(300, 4)

	run := func() ([][]float32, []float64) {
		p := newProcessor(t, Options{Bound: 6, InitialThreshold: 0.01})
		for _, v := range vectors {
			require.NoError(t, p.Add(v))
		}
		return p.Set().WeightedPoints()
	}

	p1, w1 := run()
	p2, w2 := run()
	assert.Equal(t, p1, p2)
	assert.Equal(t, w1, w2)
}

func TestWeightedInsertion(t *testing.T) {
	p := newProcessor(t, Options{Bound: 4, InitialThreshold: 0.1})

	require.NoError(t, p.AddWeighted([]float32{0, 0}, 10))
	require.NoError(t, p.AddWeighted([]float32{0.05, 0}, 5))

	require.Equal(t, 1, p.Set().Len())
	assert.InDelta(t, 15.0, p.Set().TotalWeight(), 1e-9)
}
