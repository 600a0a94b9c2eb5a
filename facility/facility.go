// Package facility holds the bounded set of open facilities maintained by
// the streaming pass: nearest-facility lookup, opening, weight accumulation
// and deterministic merging.
package facility

import (
	"math"

	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/internal/math32"
)

// Facility is a representative point opened during the streaming pass. It
// accumulates the weight (point count) and assignment cost of everything
// dispatched to it. Weight and cost are mutated only by the owning pass or by
// contraction; facilities are never shared across concurrent writers.
type Facility struct {
	// Representative is the facility location. Owned by the facility
	// (copied on open), never aliased to caller data.
	Representative []float32

	// Weight is the accumulated weight of points assigned to this facility.
	Weight float64

	// Cost is sum over assigned points of weight*distance.
	Cost float64

	// OpenedAt is the stream position (points processed) when the facility
	// was opened.
	OpenedAt uint64

	// OpenedThreshold is the opening threshold in force when the facility
	// was opened.
	OpenedThreshold float64

	seq uint64
}

// Absorb assigns weight at the given distance to the facility.
func (f *Facility) Absorb(weight, dist float64) {
	f.Weight += weight
	f.Cost += weight * dist
}

// Set is an ordered collection of facilities with linear-scan nearest
// lookup. For the facility counts the pipeline operates at (well under a
// thousand) a scan is faster and simpler than a spatial index.
type Set struct {
	dist       distance.Func
	facilities []*Facility
	nextSeq    uint64
}

// NewSet creates an empty facility set using the given distance function.
func NewSet(dist distance.Func) *Set {
	return &Set{dist: dist}
}

// NewLike returns an empty set sharing this set's distance function.
func (s *Set) NewLike() *Set {
	return &Set{dist: s.dist}
}

// Len returns the number of open facilities.
func (s *Set) Len() int {
	return len(s.facilities)
}

// Facility returns the facility at index i, or nil if out of range.
func (s *Set) Facility(i int) *Facility {
	if i < 0 || i >= len(s.facilities) {
		return nil
	}
	return s.facilities[i]
}

// Facilities returns the facilities in insertion order. The slice is shared;
// callers must not reorder it.
func (s *Set) Facilities() []*Facility {
	return s.facilities
}

// Distance evaluates the set's distance function between two vectors.
func (s *Set) Distance(a, b []float32) float32 {
	return s.dist(a, b)
}

// Nearest returns the index of and distance to the nearest facility.
// Returns (-1, +Inf, nil) when the set is empty. Ties are broken toward the
// earlier-opened facility, so lookup order is deterministic.
func (s *Set) Nearest(p []float32) (int, float64, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, f := range s.facilities {
		d := s.dist(p, f.Representative)
		if err := distance.Validate(d); err != nil {
			return -1, 0, err
		}
		if float64(d) < bestDist {
			bestDist = float64(d)
			best = i
		}
	}
	return best, bestDist, nil
}

// Open creates a new facility at p with zero weight and appends it to the
// set. The vector is copied.
func (s *Set) Open(p []float32, openedAt uint64, threshold float64) *Facility {
	rep := make([]float32, len(p))
	copy(rep, p)

	f := &Facility{
		Representative:  rep,
		OpenedAt:        openedAt,
		OpenedThreshold: threshold,
		seq:             s.nextSeq,
	}
	s.nextSeq++
	s.facilities = append(s.facilities, f)
	return f
}

// Merge folds facility j into facility i. The survivor keeps the lower
// index, its representative moves to the weight-weighted centroid of the two
// representatives, weights and costs are summed, and the smaller weight is
// charged the representative distance as travel cost.
// Returns the travel cost added.
func (s *Set) Merge(i, j int) (float64, error) {
	if i > j {
		i, j = j, i
	}
	a := s.facilities[i]
	b := s.facilities[j]

	d := s.dist(a.Representative, b.Representative)
	if err := distance.Validate(d); err != nil {
		return 0, err
	}

	total := a.Weight + b.Weight
	if total > 0 {
		// Weighted centroid of the two representatives.
		math32.ScaleInPlace(a.Representative, float32(a.Weight/total))
		math32.AddScaledInPlace(a.Representative, b.Representative, float32(b.Weight/total))
	}

	travel := math.Min(a.Weight, b.Weight) * float64(d)
	a.Weight = total
	a.Cost += b.Cost + travel

	s.facilities = append(s.facilities[:j], s.facilities[j+1:]...)
	return travel, nil
}

// MergeWithin merges every facility that lies within radius of an
// earlier-opened facility into that facility, scanning in insertion order.
// Used by threshold doubling to shrink the set after the opening threshold
// is raised. Returns the number of merges and the total travel cost added.
func (s *Set) MergeWithin(radius float64) (int, float64, error) {
	merged := 0
	var added float64
	for i := 0; i < len(s.facilities); i++ {
		for j := i + 1; j < len(s.facilities); {
			d := s.dist(s.facilities[i].Representative, s.facilities[j].Representative)
			if err := distance.Validate(d); err != nil {
				return merged, added, err
			}
			if float64(d) <= radius {
				travel, err := s.Merge(i, j)
				if err != nil {
					return merged, added, err
				}
				merged++
				added += travel
			} else {
				j++
			}
		}
	}
	return merged, added, nil
}

// TotalWeight returns the sum of facility weights.
func (s *Set) TotalWeight() float64 {
	var total float64
	for _, f := range s.facilities {
		total += f.Weight
	}
	return total
}

// TotalCost returns the sum of facility cost accumulators.
func (s *Set) TotalCost() float64 {
	var total float64
	for _, f := range s.facilities {
		total += f.Cost
	}
	return total
}

// Clone returns a deep copy of the set. Used by contraction so the streaming
// result stays intact.
func (s *Set) Clone() *Set {
	out := &Set{dist: s.dist, nextSeq: s.nextSeq}
	out.facilities = make([]*Facility, len(s.facilities))
	for i, f := range s.facilities {
		rep := make([]float32, len(f.Representative))
		copy(rep, f.Representative)
		cp := *f
		cp.Representative = rep
		out.facilities[i] = &cp
	}
	return out
}

// WeightedPoints projects the set into parallel slices of representatives
// and weights, in insertion order.
func (s *Set) WeightedPoints() ([][]float32, []float64) {
	points := make([][]float32, len(s.facilities))
	weights := make([]float64, len(s.facilities))
	for i, f := range s.facilities {
		points[i] = f.Representative
		weights[i] = f.Weight
	}
	return points, weights
}
