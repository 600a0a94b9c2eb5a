// Package coreset builds small weighted summaries of large point streams for
// k-median and k-means style clustering.
//
// The pipeline is a single streaming pass of online facility location with
// threshold doubling, an optional post-pass contraction of the facility set
// toward a target count, and a projection of the surviving facilities into a
// weighted coreset. The coreset preserves the total point count as its weight
// sum and approximates the clustering cost of the full stream for any
// candidate set of centers, so downstream solvers can run on it instead of
// the raw data.
//
// Example:
//
//	cs, err := coreset.Streaming(128).
//	    SquaredL2().
//	    K(10).
//	    ExpectedSize(70_000).
//	    Target(70).
//	    Build()
//	if err != nil { ... }
//
//	result, err := cs.Run(ctx, stream.FromVectors(vectors))
package coreset
