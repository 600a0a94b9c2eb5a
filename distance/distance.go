// Package distance provides the metric-space contract for the clustering
// pipeline: pairwise distance functions over float32 vectors.
//
// Facility location and contraction rely on the metric axioms
// (non-negativity, symmetry, triangle inequality) for their approximation
// guarantees. SquaredL2 violates the triangle inequality but is accepted for
// k-means style workloads; L2 and L1 are true metrics.
package distance

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/coreset/internal/math32"
)

// ErrInvalidMetric is returned when a distance function produces a negative
// or NaN value. This is a caller contract violation: the streaming pass
// aborts rather than corrupt facility weights.
var ErrInvalidMetric = errors.New("metric returned negative or NaN distance")

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// L2 calculates the L2 (Euclidean) distance between two vectors.
func L2(a, b []float32) float32 {
	return math32.Sqrt(math32.SquaredL2(a, b))
}

// L1 calculates the L1 (Manhattan) distance between two vectors.
func L1(a, b []float32) float32 {
	return math32.L1(a, b)
}

// Cosine calculates the cosine distance (1 - cosine similarity).
// Zero-norm vectors are treated as maximally distant.
func Cosine(a, b []float32) float32 {
	na := math32.Dot(a, a)
	nb := math32.Dot(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - math32.Dot(a, b)/(math32.Sqrt(na)*math32.Sqrt(nb))
}

// Metric represents the distance metric used for point comparison.
type Metric int

const (
	MetricSquaredL2 Metric = iota
	MetricL2
	MetricL1
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
// Implementations must be deterministic and side-effect-free.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricL2:
		return L2, nil
	case MetricL1:
		return L1, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Validate checks a computed distance against the metric contract.
// Returns ErrInvalidMetric for negative or NaN values.
func Validate(d float32) error {
	if d < 0 || math.IsNaN(float64(d)) {
		return fmt.Errorf("%w: %v", ErrInvalidMetric, d)
	}
	return nil
}
