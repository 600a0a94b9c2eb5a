package stream

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSliceSource(t *testing.T) {
	src := FromVectors([][]float32{{1}, {2}, {3}})
	ctx := context.Background()

	var got []float32
	for {
		p, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, p.Vector[0])
	}

	assert.Equal(t, []float32{1, 2, 3}, got)

	// Exhausted sources keep returning EOF.
	_, err := src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestFromLabeledVectors(t *testing.T) {
	src := FromLabeledVectors([][]float32{{1}, {2}}, []string{"a", "b"})
	ctx := context.Background()

	p, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Label)
	assert.Equal(t, uint64(0), p.ID)
}

func TestSliceSourceCancel(t *testing.T) {
	src := FromVectors([][]float32{{1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannelSource(t *testing.T) {
	ch := make(chan Point, 2)
	ch <- Point{Vector: []float32{1}}
	ch <- Point{Vector: []float32{2}}
	close(ch)

	src := NewChannelSource(ch)
	ctx := context.Background()

	p, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), p.Vector[0])

	_, err = src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestRateLimitedPassthrough(t *testing.T) {
	src := FromVectors([][]float32{{1}})
	assert.Same(t, Source(src), NewRateLimited(src, nil))
}

func TestRateLimited(t *testing.T) {
	src := FromVectors([][]float32{{1}, {2}})
	limited := NewRateLimited(src, rate.NewLimiter(rate.Inf, 1))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, err := limited.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), p.Vector[0])
}
