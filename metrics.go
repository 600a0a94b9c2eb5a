package coreset

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordProcess is called after each streaming pass.
	// points is the number of points ingested, facilities the final count,
	// duration the total time taken, err is nil if successful.
	RecordProcess(points uint64, facilities int, duration time.Duration, err error)

	// RecordDoubling is called after each threshold-doubling event.
	RecordDoubling(threshold float64, merged int)

	// RecordContraction is called after each contraction pass.
	RecordContraction(before, after int, duration time.Duration, err error)

	// RecordEvaluate is called after each dispatch evaluation.
	RecordEvaluate(points int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordProcess(uint64, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordDoubling(float64, int)                      {}
func (NoopMetricsCollector) RecordContraction(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluate(int, time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ProcessCount      atomic.Int64
	ProcessErrors     atomic.Int64
	ProcessPoints     atomic.Int64
	ProcessTotalNanos atomic.Int64
	DoublingCount     atomic.Int64
	DoublingMerged    atomic.Int64
	ContractionCount  atomic.Int64
	ContractionErrors atomic.Int64
	EvaluateCount     atomic.Int64
	EvaluateErrors    atomic.Int64
	EvaluatePoints    atomic.Int64
}

// RecordProcess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProcess(points uint64, facilities int, duration time.Duration, err error) {
	b.ProcessCount.Add(1)
	b.ProcessPoints.Add(int64(points))
	b.ProcessTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ProcessErrors.Add(1)
	}
}

// RecordDoubling implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDoubling(threshold float64, merged int) {
	b.DoublingCount.Add(1)
	b.DoublingMerged.Add(int64(merged))
}

// RecordContraction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordContraction(before, after int, duration time.Duration, err error) {
	b.ContractionCount.Add(1)
	if err != nil {
		b.ContractionErrors.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(points int, duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	b.EvaluatePoints.Add(int64(points))
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ProcessCount:      b.ProcessCount.Load(),
		ProcessErrors:     b.ProcessErrors.Load(),
		ProcessPoints:     b.ProcessPoints.Load(),
		ProcessAvgNanos:   b.getAvgProcessNanos(),
		DoublingCount:     b.DoublingCount.Load(),
		DoublingMerged:    b.DoublingMerged.Load(),
		ContractionCount:  b.ContractionCount.Load(),
		ContractionErrors: b.ContractionErrors.Load(),
		EvaluateCount:     b.EvaluateCount.Load(),
		EvaluateErrors:    b.EvaluateErrors.Load(),
		EvaluatePoints:    b.EvaluatePoints.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgProcessNanos() int64 {
	count := b.ProcessCount.Load()
	if count == 0 {
		return 0
	}
	return b.ProcessTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ProcessCount      int64
	ProcessErrors     int64
	ProcessPoints     int64
	ProcessAvgNanos   int64
	DoublingCount     int64
	DoublingMerged    int64
	ContractionCount  int64
	ContractionErrors int64
	EvaluateCount     int64
	EvaluateErrors    int64
	EvaluatePoints    int64
}
