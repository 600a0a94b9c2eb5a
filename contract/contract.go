// Package contract reduces an over-provisioned facility set toward a target
// count after the streaming pass has finished.
//
// The default policy greedily merges the pair of facilities whose merge is
// estimated to increase the weighted assignment cost the least. The estimate
// Δ(a,b) = min(w_a, w_b) · d(r_a, r_b) upper-bounds the k-median cost
// increase via the triangle inequality: the lighter facility's points travel
// at most the representative distance. Ties are broken by the lowest pair
// index, so results are reproducible regardless of parallelism.
//
// The alternative k-means policy treats each facility as a weighted point
// and runs seeded weighted Lloyd iterations; see kmeans.go.
//
// Both policies preserve the total facility weight. Contraction never
// expands: a target at or above the current count returns the input
// unchanged.
package contract

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/facility"
)

// ErrInfeasibleContraction is returned for a non-positive target count.
var ErrInfeasibleContraction = errors.New("contraction target must be positive")

// ErrWeightInvariant indicates the total facility weight changed during
// contraction. This is an internal defect, not a recoverable condition.
var ErrWeightInvariant = errors.New("facility weight sum changed during contraction")

// Policy selects the contraction algorithm.
type Policy int

const (
	// PolicyGreedy merges the cheapest facility pair until the target count
	// is reached.
	PolicyGreedy Policy = iota
	// PolicyKMeans clusters the facilities as weighted points with seeded
	// k-means and uses the resulting centers.
	PolicyKMeans
)

func (p Policy) String() string {
	switch p {
	case PolicyGreedy:
		return "greedy"
	case PolicyKMeans:
		return "kmeans"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Options configures contraction.
type Options struct {
	// Policy selects the algorithm. Default: PolicyGreedy.
	Policy Policy

	// Parallelism bounds the workers used for candidate evaluation.
	// Defaults to GOMAXPROCS. The result does not depend on this value.
	Parallelism int

	// MaxCostIncrease, when positive, stops greedy merging early once the
	// cheapest remaining merge would add more than this estimated cost.
	MaxCostIncrease float64

	// Seed drives the k-means++ seeding for PolicyKMeans.
	Seed int64

	// Iterations caps the Lloyd iterations for PolicyKMeans. Default: 25.
	Iterations int
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Policy:      PolicyGreedy,
		Parallelism: runtime.GOMAXPROCS(0),
		Iterations:  25,
	}
}

// Reduce contracts set toward target facilities and returns a new set; the
// input set is left untouched. A target at or above the current count
// returns the input set unchanged (same pointer).
func Reduce(ctx context.Context, set *facility.Set, target int, optFns ...func(*Options)) (*facility.Set, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInfeasibleContraction, target)
	}
	if target >= set.Len() {
		return set, nil
	}

	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 25
	}

	before := set.TotalWeight()

	var (
		out *facility.Set
		err error
	)
	switch opts.Policy {
	case PolicyGreedy:
		out, err = reduceGreedy(ctx, set, target, opts)
	case PolicyKMeans:
		out, err = reduceKMeans(ctx, set, target, opts)
	default:
		return nil, fmt.Errorf("unsupported contraction policy: %v", opts.Policy)
	}
	if err != nil {
		return nil, err
	}

	if !weightsMatch(before, out.TotalWeight()) {
		return nil, fmt.Errorf("%w: before %v, after %v", ErrWeightInvariant, before, out.TotalWeight())
	}
	return out, nil
}

func weightsMatch(before, after float64) bool {
	diff := before - after
	if diff < 0 {
		diff = -diff
	}
	tol := 1e-6
	if before > 1 {
		tol *= before
	}
	return diff <= tol
}

// candidate is a merge candidate; ordering is (delta, i, j) ascending.
type candidate struct {
	delta float64
	i, j  int
}

func (c candidate) better(o candidate) bool {
	if c.delta != o.delta {
		return c.delta < o.delta
	}
	if c.i != o.i {
		return c.i < o.i
	}
	return c.j < o.j
}

func reduceGreedy(ctx context.Context, set *facility.Set, target int, opts Options) (*facility.Set, error) {
	work := set.Clone()

	for work.Len() > target {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best, err := bestPair(ctx, work, opts.Parallelism)
		if err != nil {
			return nil, err
		}
		if opts.MaxCostIncrease > 0 && best.delta > opts.MaxCostIncrease {
			break
		}
		if _, err := work.Merge(best.i, best.j); err != nil {
			return nil, err
		}
	}
	return work, nil
}

// bestPair finds the merge candidate with minimal estimated cost increase.
// Rows are partitioned across workers; each worker's partial argmin is
// deterministic, and partials are folded in worker order, so the result is
// independent of scheduling.
func bestPair(ctx context.Context, set *facility.Set, parallelism int) (candidate, error) {
	n := set.Len()
	facilities := set.Facilities()

	workers := parallelism
	if workers > n-1 {
		workers = n - 1
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([]candidate, workers)
	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			best := candidate{i: -1}
			for i := w; i < n-1; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				a := facilities[i]
				for j := i + 1; j < n; j++ {
					b := facilities[j]
					d32 := set.Distance(a.Representative, b.Representative)
					if err := distance.Validate(d32); err != nil {
						return err
					}
					d := float64(d32)
					delta := a.Weight * d
					if b.Weight < a.Weight {
						delta = b.Weight * d
					}
					c := candidate{delta: delta, i: i, j: j}
					if best.i < 0 || c.better(best) {
						best = c
					}
				}
			}
			partials[w] = best
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidate{}, err
	}

	best := candidate{i: -1}
	for _, c := range partials {
		if c.i < 0 {
			continue
		}
		if best.i < 0 || c.better(best) {
			best = c
		}
	}
	if best.i < 0 {
		return candidate{}, errors.New("no merge candidate found")
	}
	return best, nil
}
