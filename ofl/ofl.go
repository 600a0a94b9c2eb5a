// Package ofl implements the single-pass online facility location procedure:
// each incoming point is either assigned to its nearest open facility or
// opens a new one, and the opening threshold is doubled whenever the
// facility count (or, optionally, the accumulated cost) exceeds its bound.
//
// The pass is strictly sequential: every assignment decision depends on the
// facility set state left by the previous point. Interrupting between points
// leaves a valid (possibly degraded) facility set; all invariants hold.
package ofl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/facility"
	"github.com/hupe1980/coreset/stream"
)

const (
	// DefaultInitialThreshold is the default opening threshold L0.
	DefaultInitialThreshold = 1.0

	// DefaultDoublingFactor is the default growth factor applied to the
	// threshold on every doubling event.
	DefaultDoublingFactor = 2.0

	// DefaultGamma is the default slack factor in the facility bound
	// derivation B = gamma * (1+log2(n)) * k.
	DefaultGamma = 2.0
)

// DoublingEvent describes one completed threshold-doubling event.
type DoublingEvent struct {
	// Threshold is the opening threshold after the event.
	Threshold float64
	// Before and After are the facility counts around the event.
	Before, After int
	// Merged is the number of merges performed.
	Merged int
}

// Options configures a streaming pass.
type Options struct {
	// InitialThreshold is L0, the lower bound on facility-opening cost.
	// Defaults to DefaultInitialThreshold.
	InitialThreshold float64

	// DoublingFactor multiplies the threshold on each doubling event.
	// Must be > 1. Defaults to DefaultDoublingFactor.
	DoublingFactor float64

	// Bound is the maximum facility count B. If zero, it is derived as
	// ceil(Gamma * (1+log2(ExpectedSize)) * K).
	Bound int

	// K is the target cluster count used for bound derivation.
	K int

	// ExpectedSize is the expected stream length used for bound derivation.
	ExpectedSize int

	// Gamma is the slack factor for bound derivation.
	// Defaults to DefaultGamma.
	Gamma float64

	// CostBound, when positive, also triggers doubling whenever the
	// accumulated assignment cost exceeds it; the bound itself grows by
	// DoublingFactor each time. Zero disables the cost trigger.
	CostBound float64

	// OnDoubling, if set, is invoked after each completed doubling event.
	OnDoubling func(DoublingEvent)
}

// DeriveBound computes the facility bound B = ceil(gamma*(1+log2(n))*k).
func DeriveBound(k, n int, gamma float64) int {
	if k <= 0 || n <= 1 {
		return 0
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	return int(math.Ceil(gamma * (1 + math.Log2(float64(n))) * float64(k)))
}

// Processor runs the streaming pass. Not safe for concurrent use; each pass
// owns its facility set exclusively.
type Processor struct {
	set  *facility.Set
	opts Options

	bound     int
	threshold float64
	costBound float64

	totalCost float64
	processed uint64
	doublings int
}

// New creates a pass processor over the given distance function.
func New(dist distance.Func, opts Options) (*Processor, error) {
	if opts.InitialThreshold == 0 {
		opts.InitialThreshold = DefaultInitialThreshold
	}
	if opts.InitialThreshold <= 0 {
		return nil, fmt.Errorf("initial threshold must be positive, got %v", opts.InitialThreshold)
	}
	if opts.DoublingFactor == 0 {
		opts.DoublingFactor = DefaultDoublingFactor
	}
	if opts.DoublingFactor <= 1 {
		return nil, fmt.Errorf("doubling factor must be > 1, got %v", opts.DoublingFactor)
	}

	bound := opts.Bound
	if bound == 0 {
		bound = DeriveBound(opts.K, opts.ExpectedSize, opts.Gamma)
	}
	if bound <= 0 {
		return nil, errors.New("facility bound must be positive: set Bound or K and ExpectedSize")
	}

	return &Processor{
		set:       facility.NewSet(dist),
		opts:      opts,
		bound:     bound,
		threshold: opts.InitialThreshold,
		costBound: opts.CostBound,
	}, nil
}

// Add processes a single unit-weight point.
func (p *Processor) Add(point []float32) error {
	return p.AddWeighted(point, 1)
}

// AddWeighted processes a single point carrying the given weight. Weighted
// insertion is used when facilities from a previous phase are re-fed into a
// pass.
func (p *Processor) AddWeighted(point []float32, weight float64) error {
	idx, d, err := p.set.Nearest(point)
	if err != nil {
		return err
	}

	if idx >= 0 && d <= p.threshold {
		p.set.Facility(idx).Absorb(weight, d)
		p.totalCost += weight * d
	} else {
		// First point, or too far from every open facility: open here.
		f := p.set.Open(point, p.processed, p.threshold)
		f.Absorb(weight, 0)
	}
	p.processed++

	return p.enforceBounds()
}

// enforceBounds runs threshold-doubling events until both the facility count
// and the cost bound hold again. Each doubling widens the merge radius, so
// the facility count is non-increasing across events and the loop
// terminates: once the radius reaches the set diameter everything collapses
// to one facility.
func (p *Processor) enforceBounds() error {
	for p.set.Len() > p.bound || (p.costBound > 0 && p.totalCost > p.costBound) {
		before := p.set.Len()
		p.threshold *= p.opts.DoublingFactor
		if p.costBound > 0 {
			p.costBound *= p.opts.DoublingFactor
		}

		merged, added, err := p.set.MergeWithin(p.threshold)
		if err != nil {
			return err
		}
		p.totalCost += added
		p.doublings++

		if p.opts.OnDoubling != nil {
			p.opts.OnDoubling(DoublingEvent{
				Threshold: p.threshold,
				Before:    before,
				After:     p.set.Len(),
				Merged:    merged,
			})
		}

		if p.set.Len() <= 1 {
			break
		}
	}
	return nil
}

// Process consumes the source until io.EOF, checking ctx between points.
// On cancellation the partial facility set remains valid and accessible.
func (p *Processor) Process(ctx context.Context, src stream.Source) error {
	for {
		pt, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.Add(pt.Vector); err != nil {
			return err
		}
	}
}

// Set returns the current facility set. The set stays owned by the processor
// while a pass is running.
func (p *Processor) Set() *facility.Set {
	return p.set
}

// Processed returns the number of points processed so far.
func (p *Processor) Processed() uint64 {
	return p.processed
}

// TotalCost returns the accumulated assignment cost, an upper bound on the
// true assignment cost of the stream against the current facility set.
func (p *Processor) TotalCost() float64 {
	return p.totalCost
}

// Threshold returns the current opening threshold.
func (p *Processor) Threshold() float64 {
	return p.threshold
}

// Bound returns the facility-count bound B in force.
func (p *Processor) Bound() int {
	return p.bound
}

// Doublings returns the number of completed doubling events.
func (p *Processor) Doublings() int {
	return p.doublings
}
