package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/coreset"
	"github.com/hupe1980/coreset/blobstore"
	"github.com/hupe1980/coreset/snapshot"
	"github.com/hupe1980/coreset/testutil"
)

func main() {
	ctx := context.Background()

	fmt.Println("=== Coreset Snapshot Demo ===")
	fmt.Println()

	rng := testutil.NewRNG(7)
	centers := rng.UniformVectors(5, 16)
	for _, c := range centers {
		for j := range c {
			c[j] *= 50
		}
	}
	vectors, _ := rng.ClusteredVectors(10_000, centers, 0.3)

	summary, err := coreset.Streaming(16).
		K(5).
		ExpectedSize(len(vectors)).
		Target(20).
		MustBuild().
		RunVectors(ctx, vectors)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Built summary: %d representatives, weight sum %.0f\n",
		summary.Len(), summary.TotalWeight())

	store, err := blobstore.NewLocalStore("./data")
	if err != nil {
		log.Fatal(err)
	}

	// LZ4 trades a slightly larger blob for faster decode.
	if err := summary.Save(ctx, store, "snapshots/demo", func(o *snapshot.Options) {
		o.Compression = snapshot.CompressionLZ4
	}); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Saved snapshot to ./data/snapshots/demo")

	loaded, err := coreset.Load(ctx, store, "snapshots/demo")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded summary: %d representatives, weight sum %.0f\n",
		loaded.Len(), loaded.TotalWeight())

	result, err := loaded.Evaluate(ctx, vectors, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Mean assignment cost on loaded summary: %.4f\n", result.MeanCost)
}
