package contract

import (
	"context"
	"math"
	"math/rand"

	"github.com/hupe1980/coreset/facility"
	"github.com/hupe1980/coreset/internal/math32"
)

// reduceKMeans clusters the facilities as weighted points: k-means++ seeding
// from a seeded RNG, then weighted Lloyd iterations. The output facilities
// are the final centers; each carries the summed weight of its members, the
// members' accumulated cost plus the travel to the new center.
func reduceKMeans(ctx context.Context, set *facility.Set, target int, opts Options) (*facility.Set, error) {
	points, weights := set.WeightedPoints()
	n := len(points)
	dim := len(points[0])

	rng := rand.New(rand.NewSource(opts.Seed)) // nolint gosec
	centers := seedPlusPlus(set, points, weights, target, rng)

	assignments := make([]int, n)
	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Assignment step.
		changed := false
		for i, p := range points {
			best := nearestCenter(set, p, centers)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Update step: weighted means.
		sums := make([][]float32, target)
		for c := range sums {
			sums[c] = make([]float32, dim)
		}
		mass := make([]float64, target)
		for i, p := range points {
			c := assignments[i]
			math32.AddScaledInPlace(sums[c], p, float32(weights[i]))
			mass[c] += weights[i]
		}
		for c := range centers {
			if mass[c] == 0 {
				// Empty cluster: reseed on the heaviest-travel point,
				// lowest index on ties.
				centers[c] = reseedFarthest(set, points, centers, assignments)
				continue
			}
			math32.ScaleInPlace(sums[c], float32(1/mass[c]))
			centers[c] = sums[c]
		}
	}

	out := set.NewLike()
	members := make([][]int, target)
	for i := range points {
		c := nearestCenter(set, points[i], centers)
		members[c] = append(members[c], i)
	}

	for c := 0; c < target; c++ {
		if len(members[c]) == 0 {
			continue
		}
		f := out.Open(centers[c], 0, 0)
		for _, i := range members[c] {
			src := set.Facility(i)
			d := float64(set.Distance(src.Representative, centers[c]))
			f.Weight += src.Weight
			f.Cost += src.Cost + src.Weight*d
		}
	}
	return out, nil
}

// seedPlusPlus picks k initial centers with weighted k-means++ sampling.
func seedPlusPlus(set *facility.Set, points [][]float32, weights []float64, k int, rng *rand.Rand) [][]float32 {
	n := len(points)
	centers := make([][]float32, 0, k)

	first := rng.Intn(n)
	centers = append(centers, clone32(points[first]))

	minDist := make([]float64, n)
	var sum float64
	for i, p := range points {
		minDist[i] = weights[i] * float64(set.Distance(p, centers[0]))
		sum += minDist[i]
	}

	for len(centers) < k {
		var chosen int
		if sum <= 0 {
			chosen = rng.Intn(n)
		} else {
			target := rng.Float64() * sum
			var cum float64
			for i, d := range minDist {
				cum += d
				if cum >= target {
					chosen = i
					break
				}
			}
		}
		centers = append(centers, clone32(points[chosen]))

		sum = 0
		for i, p := range points {
			d := weights[i] * float64(set.Distance(p, centers[len(centers)-1]))
			if d < minDist[i] {
				minDist[i] = d
			}
			sum += minDist[i]
		}
	}
	return centers
}

// nearestCenter returns the index of the nearest center, lowest index on
// ties.
func nearestCenter(set *facility.Set, p []float32, centers [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		d := float64(set.Distance(p, center))
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// reseedFarthest returns a copy of the assigned point with the largest
// weighted distance to its current center.
func reseedFarthest(set *facility.Set, points [][]float32, centers [][]float32, assignments []int) []float32 {
	best := 0
	bestDist := -1.0
	for i, p := range points {
		d := float64(set.Distance(p, centers[assignments[i]]))
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return clone32(points[best])
}

func clone32(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
