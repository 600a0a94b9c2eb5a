// Package evaluate dispatches the original points onto a final facility set
// and reports aggregate quality: mean assignment cost and, when labels are
// supplied, the Shannon entropy (natural log) of the label distribution per
// facility. It performs no clustering work and has no effect on the
// pipeline; the streaming core stays applicable to unlabeled data.
package evaluate

import (
	"context"
	"errors"
	"math"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/coreset/facility"
)

// ErrEmptySet is returned when dispatching onto an empty facility set with a
// non-empty point list.
var ErrEmptySet = errors.New("cannot dispatch points onto an empty facility set")

// Result holds the evaluation of a facility set against the original points.
type Result struct {
	// TotalCost is the sum over points of distance to the assigned facility.
	TotalCost float64

	// MeanCost is TotalCost divided by the number of points.
	MeanCost float64

	// Weights is the re-derived per-facility weight (point count).
	Weights []float64

	// Members is the per-facility membership as bitmaps over point ranks.
	Members []*roaring.Bitmap

	// LabelCounts is the per-facility label histogram. Nil when no labels
	// were supplied.
	LabelCounts []map[string]uint64

	// Entropies is the per-facility label entropy (natural log). Nil when
	// no labels were supplied.
	Entropies []float64

	// MeanEntropy is the facility-weight weighted mean of Entropies.
	MeanEntropy float64
}

// Options configures dispatch.
type Options struct {
	// Parallelism bounds the dispatch workers. Defaults to GOMAXPROCS.
	// The result does not depend on this value.
	Parallelism int
}

// Dispatch assigns every point to its nearest facility and aggregates cost,
// membership and (when labels is non-nil, parallel to points) label
// statistics. It is a pure function over its inputs: the facility set's
// weights and costs are not modified.
func Dispatch(ctx context.Context, set *facility.Set, points [][]float32, labels []string, optFns ...func(*Options)) (*Result, error) {
	opts := Options{Parallelism: runtime.GOMAXPROCS(0)}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}

	n := len(points)
	nf := set.Len()

	res := &Result{
		Weights: make([]float64, nf),
		Members: make([]*roaring.Bitmap, nf),
	}
	for i := range res.Members {
		res.Members[i] = roaring.New()
	}
	if labels != nil {
		res.LabelCounts = make([]map[string]uint64, nf)
		for i := range res.LabelCounts {
			res.LabelCounts[i] = make(map[string]uint64)
		}
	}

	if n == 0 {
		return res, nil
	}
	if nf == 0 {
		return nil, ErrEmptySet
	}

	workers := opts.Parallelism
	if workers > n {
		workers = n
	}

	// Workers only fill per-point slots; all accumulation happens in the
	// fold below, so float addition grouping is fixed and the result is
	// identical for any worker count.
	assign := make([]int, n)
	dists := make([]float64, n)

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				idx, d, err := set.Nearest(points[i])
				if err != nil {
					return err
				}
				assign[i] = idx
				dists[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fold in point order.
	for i := 0; i < n; i++ {
		idx := assign[i]
		res.TotalCost += dists[i]
		res.Weights[idx]++
		res.Members[idx].Add(uint32(i))
		if labels != nil {
			res.LabelCounts[idx][labels[i]]++
		}
	}
	res.MeanCost = res.TotalCost / float64(n)

	if labels != nil {
		res.Entropies = make([]float64, nf)
		var weighted, mass float64
		for f := 0; f < nf; f++ {
			res.Entropies[f] = entropy(res.LabelCounts[f])
			weighted += res.Weights[f] * res.Entropies[f]
			mass += res.Weights[f]
		}
		if mass > 0 {
			res.MeanEntropy = weighted / mass
		}
	}
	return res, nil
}

// entropy computes the Shannon entropy (natural log) of a label histogram.
func entropy(counts map[string]uint64) float64 {
	var mass, h float64
	for _, c := range counts {
		mass += float64(c)
		h -= float64(c) * math.Log(float64(c))
	}
	if mass == 0 {
		return 0
	}
	return h/mass + math.Log(mass)
}
