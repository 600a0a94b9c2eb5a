package coreset

import (
	"context"
	"testing"

	"github.com/hupe1980/coreset/blobstore"
	"github.com/hupe1980/coreset/stream"
	"github.com/hupe1980/coreset/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterCenters(dim int) [][]float32 {
	centers := make([][]float32, 4)
	for c := range centers {
		centers[c] = make([]float32, dim)
		for j := range centers[c] {
			centers[c][j] = float32(c * 10)
		}
	}
	return centers
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	dim := 8
	num := 400

	rng := testutil.NewRNG(42)
	vectors, labels := rng.ClusteredVectors(num, clusterCenters(dim), 0.1)

	cs, err := Streaming(dim).
		SquaredL2().
		K(4).
		ExpectedSize(num).
		Target(4).
		Build()
	require.NoError(t, err)

	summary, err := cs.RunVectors(ctx, vectors)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Len())
	assert.Equal(t, uint64(num), summary.Processed)
	assert.InDelta(t, float64(num), summary.TotalWeight(), 1e-6*float64(num))

	result, err := summary.Evaluate(ctx, vectors, labels)
	require.NoError(t, err)

	// Four well-separated clusters: each point lands near its center.
	assert.Less(t, result.MeanCost, 1.0)
	assert.Less(t, result.MeanEntropy, 0.01)
}

func TestRunEmptyStream(t *testing.T) {
	cs, err := Streaming(8).Bound(16).Build()
	require.NoError(t, err)

	summary, err := cs.RunVectors(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, summary.Len())
	assert.Zero(t, summary.Processed)
	assert.Zero(t, summary.TotalWeight())
}

func TestRunDeterminism(t *testing.T) {
	ctx := context.Background()
	dim := 6
	num := 300

	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(num, dim)

	build := func() *Coreset {
		return Streaming(dim).
			SquaredL2().
			InitialThreshold(0.05).
			K(5).
			ExpectedSize(num).
			Target(10).
			MustBuild()
	}

	first, err := build().RunVectors(ctx, vectors)
	require.NoError(t, err)

	second, err := build().RunVectors(ctx, vectors)
	require.NoError(t, err)

	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Doublings, second.Doublings)
}

func TestRunDimensionMismatch(t *testing.T) {
	cs, err := Streaming(8).Bound(16).Build()
	require.NoError(t, err)

	_, err = cs.RunVectors(context.Background(), [][]float32{
		make([]float32, 8),
		make([]float32, 5),
	})

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 8, dm.Expected)
	assert.Equal(t, 5, dm.Actual)
}

func TestRunCancelled(t *testing.T) {
	cs, err := Streaming(4).Bound(16).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := testutil.NewRNG(1)
	_, err = cs.RunVectors(ctx, rng.UniformVectors(100, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}

	rng := testutil.NewRNG(3)
	vectors, _ := rng.ClusteredVectors(200, clusterCenters(4), 0.1)

	cs, err := Streaming(4).
		K(4).
		ExpectedSize(200).
		Target(4).
		Metrics(mc).
		Build()
	require.NoError(t, err)

	_, err = cs.RunVectors(ctx, vectors)
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.ProcessCount)
	assert.Equal(t, int64(200), stats.ProcessPoints)
	assert.Zero(t, stats.ProcessErrors)
}

func TestSummarySaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	rng := testutil.NewRNG(11)
	vectors, _ := rng.ClusteredVectors(200, clusterCenters(8), 0.1)

	cs, err := Streaming(8).K(4).ExpectedSize(200).Target(4).Build()
	require.NoError(t, err)

	summary, err := cs.RunVectors(ctx, vectors)
	require.NoError(t, err)

	require.NoError(t, summary.Save(ctx, store, "snapshots/cs"))

	loaded, err := Load(ctx, store, "snapshots/cs")
	require.NoError(t, err)

	assert.Equal(t, summary.Points, loaded.Points)
	assert.Equal(t, summary.Weights, loaded.Weights)
	assert.Equal(t, summary.Processed, loaded.Processed)

	// A loaded summary can still dispatch points.
	result, err := loaded.Evaluate(ctx, vectors, nil)
	require.NoError(t, err)
	assert.Less(t, result.MeanCost, 1.0)
}

func TestRunWithChannelSource(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(5)
	vectors, _ := rng.ClusteredVectors(100, clusterCenters(4), 0.1)

	ch := make(chan stream.Point)
	go func() {
		defer close(ch)
		for i, v := range vectors {
			ch <- stream.Point{Vector: v, ID: uint64(i)}
		}
	}()

	cs, err := Streaming(4).K(4).ExpectedSize(100).Build()
	require.NoError(t, err)

	summary, err := cs.Run(ctx, stream.NewChannelSource(ch))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), summary.Processed)
}
