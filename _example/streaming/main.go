package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/hupe1980/coreset"
	"github.com/hupe1980/coreset/stream"
	"github.com/hupe1980/coreset/testutil"
	"golang.org/x/time/rate"
)

func main() {
	ctx := context.Background()

	fmt.Println("=== Streaming Coreset Demo ===")
	fmt.Println()

	// Synthetic stream: 50k points around 10 well-separated centers.
	rng := testutil.NewRNG(42)
	centers := rng.UniformVectors(10, 32)
	for _, c := range centers {
		for j := range c {
			c[j] *= 100
		}
	}
	vectors, labels := rng.ClusteredVectors(50_000, centers, 0.5)

	mc := &coreset.BasicMetricsCollector{}

	cs, err := coreset.Streaming(32).
		SquaredL2().
		K(10).
		ExpectedSize(len(vectors)).
		Target(50).
		Logger(coreset.NewTextLogger(slog.LevelDebug)).
		Metrics(mc).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	// Throttled source, as if points arrived from a live feed.
	src := stream.NewRateLimited(
		stream.FromLabeledVectors(vectors, labels),
		rate.NewLimiter(rate.Limit(1_000_000), 10_000),
	)

	summary, err := cs.Run(ctx, src)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Ingested %d points into %d weighted representatives\n",
		summary.Processed, summary.Len())
	fmt.Printf("Weight sum: %.0f, doublings: %d, final threshold: %.2f\n",
		summary.TotalWeight(), summary.Doublings, summary.Threshold)

	// Quality check: dispatch the full stream onto the summary.
	result, err := summary.Evaluate(ctx, vectors, labels)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Mean assignment cost: %.4f\n", result.MeanCost)
	fmt.Printf("Mean label entropy:   %.4f\n", result.MeanEntropy)

	stats := mc.GetStats()
	fmt.Printf("Doubling events: %d (merged %d facilities)\n",
		stats.DoublingCount, stats.DoublingMerged)
}
