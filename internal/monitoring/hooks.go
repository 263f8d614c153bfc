package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Operation names reported to hooks.
const (
	OperationEncrypt = "encrypt"
	OperationDecrypt = "decrypt"
)

// ObservabilityHook observes cipher operations. Hooks must not retain or log plaintext,
// ciphertext or secrets; metadata only carries sizes.
type ObservabilityHook interface {
	// Called before processing starts
	OnProcessStart(ctx context.Context, operation string, metadata map[string]any)

	// Called after processing completes (success or failure)
	OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when errors occur
	OnError(ctx context.Context, operation string, err error, metadata map[string]any)
}

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
}

// LoggingObservabilityHook logs all operations through logrus
type LoggingObservabilityHook struct {
	logger logrus.FieldLogger
}

// NewLoggingObservabilityHook creates a new logging observability hook.
// A nil logger selects the logrus standard logger.
func NewLoggingObservabilityHook(logger logrus.FieldLogger) *LoggingObservabilityHook {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingObservabilityHook{
		logger: logger,
	}
}

func (l *LoggingObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	l.logger.WithFields(OperationFields(operation, "started", metadata)).Debug("Operation started")
}

func (l *LoggingObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	fields := OperationFields(operation, "completed", metadata)
	fields["duration"] = duration.String()
	if err != nil {
		fields["status"] = "failed"
		l.logger.WithFields(fields).WithError(err).Warn("Operation failed")
		return
	}
	l.logger.WithFields(fields).Debug("Operation completed")
}

func (l *LoggingObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	l.logger.WithFields(OperationFields(operation, "error", metadata)).WithError(err).Error("Operation error")
}

// MetricsObservabilityHook turns hook events into the cbcx metric series.
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

// NewMetricsObservabilityHook reports to collector; nil discards.
func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{collector: collector}
}

func (m *MetricsObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	m.collector.IncrementCounter(MetricStarted, map[string]string{TagOperation: operation})
}

func (m *MetricsObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := map[string]string{TagOperation: operation, TagStatus: "success"}
	name := MetricSucceeded
	if err != nil {
		tags[TagStatus] = "error"
		name = MetricFailed
	}
	m.collector.IncrementCounter(name, tags)
	m.collector.RecordTiming(MetricDuration, duration, tags)

	if size, ok := metadata["input_bytes"].(int); ok {
		m.collector.RecordValue(MetricInputBytes, float64(size), map[string]string{TagOperation: operation})
	}
}

func (m *MetricsObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	tags := map[string]string{
		TagOperation: operation,
		TagErrorType: fmt.Sprintf("%T", err),
	}
	if kind, ok := metadata["error_kind"].(string); ok {
		tags[TagErrorKind] = kind
	}
	m.collector.IncrementCounter(MetricErrors, tags)
}

// CompositeObservabilityHook combines multiple hooks
type CompositeObservabilityHook struct {
	hooks []ObservabilityHook
}

// NewCompositeObservabilityHook creates a new composite hook
func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	return &CompositeObservabilityHook{
		hooks: hooks,
	}
}

func (c *CompositeObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessStart(ctx, operation, metadata)
	}
}

func (c *CompositeObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessComplete(ctx, operation, duration, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnError(ctx, operation, err, metadata)
	}
}
