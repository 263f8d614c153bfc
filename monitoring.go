package cbcx

import (
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/sirupsen/logrus"
)

// Re-export monitoring types for public API
type (
	MetricsCollector           = monitoring.MetricsCollector
	ObservabilityHook          = monitoring.ObservabilityHook
	NoOpMetricsCollector       = monitoring.NoOpMetricsCollector
	NoOpObservabilityHook      = monitoring.NoOpObservabilityHook
	InMemoryMetricsCollector   = monitoring.InMemoryMetricsCollector
	LoggingObservabilityHook   = monitoring.LoggingObservabilityHook
	MetricsObservabilityHook   = monitoring.MetricsObservabilityHook
	CompositeObservabilityHook = monitoring.CompositeObservabilityHook
	MetricSeries               = monitoring.Series
	OperationSummary           = monitoring.OperationSummary
)

// Operation names passed to hooks.
const (
	OperationEncrypt = monitoring.OperationEncrypt
	OperationDecrypt = monitoring.OperationDecrypt
)

// Metric names reported through MetricsCollector.
const (
	MetricStarted    = monitoring.MetricStarted
	MetricSucceeded  = monitoring.MetricSucceeded
	MetricFailed     = monitoring.MetricFailed
	MetricDuration   = monitoring.MetricDuration
	MetricInputBytes = monitoring.MetricInputBytes
	MetricErrors     = monitoring.MetricErrors
)

func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return monitoring.NewInMemoryMetricsCollector()
}

func NewLoggingObservabilityHook(logger logrus.FieldLogger) *LoggingObservabilityHook {
	return monitoring.NewLoggingObservabilityHook(logger)
}

func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	return monitoring.NewMetricsObservabilityHook(collector)
}

func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	return monitoring.NewCompositeObservabilityHook(hooks...)
}
