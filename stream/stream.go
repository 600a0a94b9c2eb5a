// Package stream defines the point sources consumed by the streaming pass.
//
// A Source is a finite, read-once sequence. Restarting a pass requires the
// caller to supply a fresh source; decoding of concrete dataset formats is a
// caller concern.
package stream

import (
	"context"
	"io"
)

// Point is a single stream element: a fixed-dimension vector plus an
// optional external identifier and optional label. Points are immutable once
// ingested; the pipeline borrows them for the duration of a pass and never
// mutates them.
type Point struct {
	Vector []float32
	ID     uint64
	Label  string
}

// Source produces points one at a time. Next returns io.EOF after the last
// point. Implementations may block on I/O; they must honor ctx cancellation.
type Source interface {
	Next(ctx context.Context) (Point, error)
}

// SliceSource serves points from an in-memory slice.
type SliceSource struct {
	points []Point
	pos    int
}

// NewSliceSource creates a source over the given points.
func NewSliceSource(points []Point) *SliceSource {
	return &SliceSource{points: points}
}

// FromVectors wraps raw vectors as a source. IDs are assigned by position.
func FromVectors(vectors [][]float32) *SliceSource {
	points := make([]Point, len(vectors))
	for i, v := range vectors {
		points[i] = Point{Vector: v, ID: uint64(i)}
	}
	return &SliceSource{points: points}
}

// FromLabeledVectors wraps vectors and parallel labels as a source.
func FromLabeledVectors(vectors [][]float32, labels []string) *SliceSource {
	points := make([]Point, len(vectors))
	for i, v := range vectors {
		p := Point{Vector: v, ID: uint64(i)}
		if i < len(labels) {
			p.Label = labels[i]
		}
		points[i] = p
	}
	return &SliceSource{points: points}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	if s.pos >= len(s.points) {
		return Point{}, io.EOF
	}
	p := s.points[s.pos]
	s.pos++
	return p, nil
}

// ChannelSource serves points from a channel. The channel must be closed by
// the producer to end the stream.
type ChannelSource struct {
	ch <-chan Point
}

// NewChannelSource creates a source reading from ch.
func NewChannelSource(ch <-chan Point) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next implements Source.
func (s *ChannelSource) Next(ctx context.Context) (Point, error) {
	select {
	case <-ctx.Done():
		return Point{}, ctx.Err()
	case p, ok := <-s.ch:
		if !ok {
			return Point{}, io.EOF
		}
		return p, nil
	}
}
