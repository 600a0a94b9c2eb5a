package coreset

import (
	"testing"

	"github.com/hupe1980/coreset/contract"
	"github.com/hupe1980/coreset/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	cs, err := Streaming(16).Bound(32).Build()
	require.NoError(t, err)

	assert.Equal(t, 16, cs.Dimension())
	assert.Equal(t, distance.MetricSquaredL2, cs.opts.Metric)
	assert.Zero(t, cs.opts.Target)
	assert.Equal(t, contract.PolicyGreedy, cs.opts.Contraction.Policy)
}

func TestBuilderImmutable(t *testing.T) {
	base := Streaming(8).Bound(16)
	_ = base.K(4).Target(2).Cosine()

	assert.Zero(t, base.k)
	assert.False(t, base.targetSet)
	assert.Equal(t, distance.MetricSquaredL2, base.metric)
}

func TestBuilderInvalidDimension(t *testing.T) {
	_, err := Streaming(0).Bound(16).Build()

	var id *ErrInvalidDimension
	require.ErrorAs(t, err, &id)
	assert.Zero(t, id.Dimension)
}

func TestBuilderInfeasibleTarget(t *testing.T) {
	_, err := Streaming(8).Bound(16).Target(0).Build()
	assert.ErrorIs(t, err, ErrInfeasibleContraction)

	_, err = Streaming(8).Bound(16).Target(-3).Build()
	assert.ErrorIs(t, err, ErrInfeasibleContraction)
}

func TestBuilderMissingBound(t *testing.T) {
	// Neither an explicit bound nor K and ExpectedSize for derivation.
	_, err := Streaming(8).Build()
	assert.Error(t, err)
}

func TestBuilderInvalidDoublingFactor(t *testing.T) {
	_, err := Streaming(8).Bound(16).DoublingFactor(0.5).Build()
	assert.Error(t, err)
}

func TestBuilderKMeansContraction(t *testing.T) {
	cs, err := Streaming(8).
		Bound(16).
		Target(4).
		KMeansContraction().
		Seed(42).
		Iterations(10).
		Build()
	require.NoError(t, err)

	assert.Equal(t, contract.PolicyKMeans, cs.opts.Contraction.Policy)
	assert.Equal(t, int64(42), cs.opts.Contraction.Seed)
	assert.Equal(t, 10, cs.opts.Contraction.Iterations)
	assert.Equal(t, 4, cs.opts.Target)
}

func TestMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		Streaming(0).Bound(16).MustBuild()
	})
}
