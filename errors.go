package coreset

import (
	"fmt"

	"github.com/hupe1980/coreset/contract"
	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/evaluate"
)

// Sentinel errors from the subpackages, re-exported for callers that only
// import the root package.
var (
	// ErrInvalidMetric indicates the distance function produced a negative
	// or NaN distance. The pass is aborted and its partial result must not
	// be trusted.
	ErrInvalidMetric = distance.ErrInvalidMetric

	// ErrInfeasibleContraction indicates a non-positive contraction target.
	ErrInfeasibleContraction = contract.ErrInfeasibleContraction

	// ErrWeightInvariant indicates the total weight changed during
	// contraction or summary construction. This is an internal defect
	// surfaced by defensive checks, not a user error.
	ErrWeightInvariant = contract.ErrWeightInvariant

	// ErrEmptySet indicates an evaluation against an empty facility set.
	ErrEmptySet = evaluate.ErrEmptySet
)

// ErrDimensionMismatch indicates a point whose dimensionality differs from
// the configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}
