package coreset

import (
	"github.com/hupe1980/coreset/contract"
	"github.com/hupe1980/coreset/distance"
	"github.com/hupe1980/coreset/ofl"
)

// Options configures a Coreset pipeline.
type Options struct {
	// Metric selects the distance function. Default: distance.MetricSquaredL2.
	Metric distance.Metric

	// OFL configures the streaming pass.
	OFL ofl.Options

	// Target is the facility count the contraction pass reduces toward.
	// Zero disables contraction; the streaming pass output is returned as-is.
	Target int

	// Contraction configures the contraction pass.
	Contraction contract.Options

	// Logger is the structured logger for operation tracing.
	// Default: NoopLogger().
	Logger *Logger

	// Metrics is the metrics collector for monitoring.
	// Default: NoopMetricsCollector{}.
	Metrics MetricsCollector
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Metric:      distance.MetricSquaredL2,
		Contraction: contract.DefaultOptions(),
		Logger:      NoopLogger(),
		Metrics:     NoopMetricsCollector{},
	}
}
