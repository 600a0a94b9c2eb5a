package coreset

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/coreset/blobstore"
	"github.com/hupe1980/coreset/contract"
	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/evaluate"
	"github.com/hupe1980/coreset/facility"
	"github.com/hupe1980/coreset/ofl"
	"github.com/hupe1980/coreset/snapshot"
	"github.com/hupe1980/coreset/stream"
)

// Coreset is a configured summarization pipeline. It is safe for concurrent
// use; every Run owns its own pass state.
type Coreset struct {
	dimension int
	dist      distance.Func
	opts      Options
}

// New creates a pipeline for points of the given dimension.
func New(dimension int, optFns ...func(o *Options)) (*Coreset, error) {
	if dimension <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}

	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}
	if opts.Target < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInfeasibleContraction, opts.Target)
	}

	def := contract.DefaultOptions()
	if opts.Contraction.Parallelism <= 0 {
		opts.Contraction.Parallelism = def.Parallelism
	}
	if opts.Contraction.Iterations <= 0 {
		opts.Contraction.Iterations = def.Iterations
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	// Surface configuration errors now rather than on first Run.
	if _, err := ofl.New(dist, opts.OFL); err != nil {
		return nil, err
	}

	return &Coreset{
		dimension: dimension,
		dist:      dist,
		opts:      opts,
	}, nil
}

// Dimension returns the configured point dimension.
func (c *Coreset) Dimension() int {
	return c.dimension
}

// Run consumes the stream and returns the resulting summary. An empty
// stream yields an empty summary, not an error.
func (c *Coreset) Run(ctx context.Context, src stream.Source) (*Summary, error) {
	oflOpts := c.opts.OFL
	userHook := oflOpts.OnDoubling
	oflOpts.OnDoubling = func(ev ofl.DoublingEvent) {
		c.opts.Logger.LogDoubling(ctx, ev.Threshold, ev.Before, ev.After, ev.Merged)
		c.opts.Metrics.RecordDoubling(ev.Threshold, ev.Merged)
		if userHook != nil {
			userHook(ev)
		}
	}

	proc, err := ofl.New(c.dist, oflOpts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = proc.Process(ctx, &dimCheckSource{src: src, dim: c.dimension})
	duration := time.Since(start)

	c.opts.Logger.LogProcess(ctx, proc.Processed(), proc.Set().Len(), duration, err)
	c.opts.Metrics.RecordProcess(proc.Processed(), proc.Set().Len(), duration, err)
	if err != nil {
		return nil, err
	}

	set := proc.Set()
	if c.opts.Target > 0 && set.Len() > c.opts.Target {
		before := set.Len()
		cstart := time.Now()
		reduced, err := contract.Reduce(ctx, set, c.opts.Target, func(o *contract.Options) {
			*o = c.opts.Contraction
		})
		cduration := time.Since(cstart)

		after := 0
		if reduced != nil {
			after = reduced.Len()
		}
		c.opts.Logger.LogContraction(ctx, before, after, cduration, err)
		c.opts.Metrics.RecordContraction(before, after, cduration, err)
		if err != nil {
			return nil, err
		}
		set = reduced
	}

	return c.newSummary(set, proc)
}

// RunVectors is a convenience wrapper over Run for in-memory data.
func (c *Coreset) RunVectors(ctx context.Context, vectors [][]float32) (*Summary, error) {
	return c.Run(ctx, stream.FromVectors(vectors))
}

func (c *Coreset) newSummary(set *facility.Set, proc *ofl.Processor) (*Summary, error) {
	points, weights := set.WeightedPoints()

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if !weightsMatch(total, float64(proc.Processed())) {
		return nil, fmt.Errorf("%w: weight sum %v, ingested %d", ErrWeightInvariant, total, proc.Processed())
	}

	return &Summary{
		Points:    points,
		Weights:   weights,
		Processed: proc.Processed(),
		TotalCost: proc.TotalCost(),
		Threshold: proc.Threshold(),
		Doublings: proc.Doublings(),

		set:     set,
		logger:  c.opts.Logger,
		metrics: c.opts.Metrics,
	}, nil
}

// weightsMatch compares weight sums with a relative tolerance, since
// centroid merging accumulates float error.
func weightsMatch(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= 1e-6*math.Max(scale, 1)
}

// dimCheckSource rejects points whose dimension differs from the
// configured one before they reach the pass.
type dimCheckSource struct {
	src stream.Source
	dim int
}

func (s *dimCheckSource) Next(ctx context.Context) (stream.Point, error) {
	p, err := s.src.Next(ctx)
	if err != nil {
		return p, err
	}
	if len(p.Vector) != s.dim {
		return stream.Point{}, &ErrDimensionMismatch{Expected: s.dim, Actual: len(p.Vector)}
	}
	return p, nil
}

// Summary is the weighted point set produced by a pipeline run. Points and
// Weights are parallel slices; the weight sum equals the number of points
// ingested.
type Summary struct {
	Points    [][]float32
	Weights   []float64
	Processed uint64
	TotalCost float64
	Threshold float64
	Doublings int

	set     *facility.Set
	logger  *Logger
	metrics MetricsCollector
}

// Len returns the number of weighted points in the summary.
func (s *Summary) Len() int {
	return len(s.Points)
}

// TotalWeight returns the weight sum of the summary.
func (s *Summary) TotalWeight() float64 {
	total := 0.0
	for _, w := range s.Weights {
		total += w
	}
	return total
}

// Set returns the underlying facility set.
func (s *Summary) Set() *facility.Set {
	return s.set
}

// Evaluate dispatches the given points onto the summary and reports cost
// and purity statistics. labels may be nil.
func (s *Summary) Evaluate(ctx context.Context, points [][]float32, labels []string, optFns ...func(o *evaluate.Options)) (*evaluate.Result, error) {
	start := time.Now()
	result, err := evaluate.Dispatch(ctx, s.set, points, labels, optFns...)
	duration := time.Since(start)

	meanCost := 0.0
	if result != nil {
		meanCost = result.MeanCost
	}
	s.logger.LogEvaluate(ctx, len(points), meanCost, err)
	s.metrics.RecordEvaluate(len(points), duration, err)

	return result, err
}

// Save writes the summary as a snapshot blob to the store.
func (s *Summary) Save(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *snapshot.Options)) error {
	err := snapshot.Save(ctx, store, name, s.Points, s.Weights, optFns...)
	s.logger.LogSnapshot(ctx, name, err)
	return err
}

// Load reads a snapshot blob back into a summary. Only the weighted points
// survive a snapshot round-trip; pass statistics are not persisted.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *Options)) (*Summary, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	points, weights, err := snapshot.Load(ctx, store, name)
	if err != nil {
		return nil, err
	}

	set := facility.NewSet(dist)
	for i := range points {
		f := set.Open(points[i], 0, 0)
		f.Absorb(weights[i], 0)
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}

	return &Summary{
		Points:    points,
		Weights:   weights,
		Processed: uint64(math.Round(total)),

		set:     set,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}, nil
}
