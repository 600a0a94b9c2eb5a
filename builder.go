// This file implements the fluent builder API for configuring pipelines.
// The builder is immutable - each method returns a new builder with the
// updated configuration.
package coreset

import (
	"fmt"

	"github.com/hupe1980/coreset/contract"
	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/ofl"
)

// Streaming creates a new pipeline builder with the specified dimension.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents accidental
// state sharing.
//
// Example:
//
//	cs, err := coreset.Streaming(128).
//	    SquaredL2().
//	    K(10).
//	    ExpectedSize(70_000).
//	    Target(70).
//	    Build()
func Streaming(dimension int) StreamingBuilder {
	return StreamingBuilder{
		dimension:        dimension,
		metric:           distance.MetricSquaredL2,
		initialThreshold: ofl.DefaultInitialThreshold,
		doublingFactor:   ofl.DefaultDoublingFactor,
		gamma:            ofl.DefaultGamma,
		policy:           contract.PolicyGreedy,
	}
}

// StreamingBuilder is an immutable fluent builder for creating Coreset
// pipelines. Each method returns a new builder with the updated
// configuration.
type StreamingBuilder struct {
	dimension        int
	metric           distance.Metric
	initialThreshold float64
	doublingFactor   float64
	bound            int
	k                int
	expectedSize     int
	gamma            float64
	costBound        float64
	target           int
	targetSet        bool
	policy           contract.Policy
	maxCostIncrease  float64
	seed             int64
	iterations       int
	parallelism      int
	logger           *Logger
	metrics          MetricsCollector
}

// SquaredL2 sets the distance metric to Squared Euclidean distance.
func (b StreamingBuilder) SquaredL2() StreamingBuilder {
	b.metric = distance.MetricSquaredL2
	return b
}

// L2 sets the distance metric to Euclidean distance.
func (b StreamingBuilder) L2() StreamingBuilder {
	b.metric = distance.MetricL2
	return b
}

// L1 sets the distance metric to Manhattan distance.
func (b StreamingBuilder) L1() StreamingBuilder {
	b.metric = distance.MetricL1
	return b
}

// Cosine sets the distance metric to Cosine distance (normalized vectors).
func (b StreamingBuilder) Cosine() StreamingBuilder {
	b.metric = distance.MetricCosine
	return b
}

// InitialThreshold sets L0, the initial facility-opening threshold.
// Default: 1.0.
func (b StreamingBuilder) InitialThreshold(l0 float64) StreamingBuilder {
	b.initialThreshold = l0
	return b
}

// DoublingFactor sets the growth factor applied to the threshold on each
// doubling event. Must be > 1. Default: 2.0.
func (b StreamingBuilder) DoublingFactor(factor float64) StreamingBuilder {
	b.doublingFactor = factor
	return b
}

// Bound sets the maximum facility count B explicitly. When unset, B is
// derived from K, ExpectedSize and Gamma.
func (b StreamingBuilder) Bound(n int) StreamingBuilder {
	b.bound = n
	return b
}

// K sets the target cluster count used for bound derivation.
func (b StreamingBuilder) K(k int) StreamingBuilder {
	b.k = k
	return b
}

// ExpectedSize sets the expected stream length used for bound derivation.
// The pass itself does not depend on the actual stream length.
func (b StreamingBuilder) ExpectedSize(n int) StreamingBuilder {
	b.expectedSize = n
	return b
}

// Gamma sets the slack factor in the bound derivation
// B = gamma * (1+log2(n)) * k. Default: 2.0.
func (b StreamingBuilder) Gamma(gamma float64) StreamingBuilder {
	b.gamma = gamma
	return b
}

// CostBound enables the cost trigger: the threshold also doubles whenever
// the accumulated assignment cost exceeds the bound. Default: disabled.
func (b StreamingBuilder) CostBound(bound float64) StreamingBuilder {
	b.costBound = bound
	return b
}

// Target sets the facility count the contraction pass reduces toward.
// When unset, contraction is skipped and the streaming pass output is
// returned as-is.
func (b StreamingBuilder) Target(n int) StreamingBuilder {
	b.target = n
	b.targetSet = true
	return b
}

// GreedyContraction selects pairwise greedy merging for contraction.
// This is the default policy.
func (b StreamingBuilder) GreedyContraction() StreamingBuilder {
	b.policy = contract.PolicyGreedy
	return b
}

// KMeansContraction selects seeded weighted k-means for contraction.
func (b StreamingBuilder) KMeansContraction() StreamingBuilder {
	b.policy = contract.PolicyKMeans
	return b
}

// MaxCostIncrease stops greedy contraction early once the cheapest
// remaining merge would add more than this estimated cost.
func (b StreamingBuilder) MaxCostIncrease(limit float64) StreamingBuilder {
	b.maxCostIncrease = limit
	return b
}

// Seed sets the seed for the k-means contraction policy.
func (b StreamingBuilder) Seed(seed int64) StreamingBuilder {
	b.seed = seed
	return b
}

// Iterations caps the Lloyd iterations for the k-means contraction policy.
func (b StreamingBuilder) Iterations(n int) StreamingBuilder {
	b.iterations = n
	return b
}

// Parallelism bounds the workers used during contraction. The result does
// not depend on this value.
func (b StreamingBuilder) Parallelism(n int) StreamingBuilder {
	b.parallelism = n
	return b
}

// Logger sets the structured logger for operation tracing.
func (b StreamingBuilder) Logger(l *Logger) StreamingBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b StreamingBuilder) Metrics(mc MetricsCollector) StreamingBuilder {
	b.metrics = mc
	return b
}

// Build creates the Coreset pipeline.
func (b StreamingBuilder) Build() (*Coreset, error) {
	if b.targetSet && b.target <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInfeasibleContraction, b.target)
	}

	return New(b.dimension, func(o *Options) {
		o.Metric = b.metric
		o.OFL = ofl.Options{
			InitialThreshold: b.initialThreshold,
			DoublingFactor:   b.doublingFactor,
			Bound:            b.bound,
			K:                b.k,
			ExpectedSize:     b.expectedSize,
			Gamma:            b.gamma,
			CostBound:        b.costBound,
		}
		if b.targetSet {
			o.Target = b.target
		}
		o.Contraction.Policy = b.policy
		o.Contraction.MaxCostIncrease = b.maxCostIncrease
		o.Contraction.Seed = b.seed
		if b.iterations > 0 {
			o.Contraction.Iterations = b.iterations
		}
		if b.parallelism > 0 {
			o.Contraction.Parallelism = b.parallelism
		}
		if b.logger != nil {
			o.Logger = b.logger
		}
		if b.metrics != nil {
			o.Metrics = b.metrics
		}
	})
}

// MustBuild creates the Coreset pipeline, panicking on error.
func (b StreamingBuilder) MustBuild() *Coreset {
	cs, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cs
}
