package monitoring

import (
	"sync"
	"time"
)

// Metric names emitted by MetricsObservabilityHook.
const (
	MetricStarted    = "cbcx.process.started"
	MetricSucceeded  = "cbcx.process.succeeded"
	MetricFailed     = "cbcx.process.failed"
	MetricDuration   = "cbcx.process.duration"
	MetricInputBytes = "cbcx.process.input_bytes"
	MetricErrors     = "cbcx.errors"
)

// Tag keys attached to cbcx metrics.
const (
	TagOperation = "operation"
	TagStatus    = "status"
	TagErrorKind = "error_kind"
	TagErrorType = "error"
)

// MetricsCollector receives the metrics of each cipher operation and forwards them to a
// backend. Implementations must be safe for concurrent use.
type MetricsCollector interface {
	IncrementCounter(name string, tags map[string]string)
	RecordTiming(name string, duration time.Duration, tags map[string]string)
	RecordValue(name string, value float64, tags map[string]string)
	Flush() error
}

// NoOpMetricsCollector discards everything.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(string, map[string]string)            {}
func (NoOpMetricsCollector) RecordTiming(string, time.Duration, map[string]string) {}
func (NoOpMetricsCollector) RecordValue(string, float64, map[string]string)        {}
func (NoOpMetricsCollector) Flush() error                                          { return nil }

// Series identifies one metric stream by name and cbcx tags. Tags outside the cbcx tag
// keys are not part of the series.
type Series struct {
	Name      string
	Operation string
	Status    string
	ErrorKind string
	ErrorType string
}

func seriesOf(name string, tags map[string]string) Series {
	return Series{
		Name:      name,
		Operation: tags[TagOperation],
		Status:    tags[TagStatus],
		ErrorKind: tags[TagErrorKind],
		ErrorType: tags[TagErrorType],
	}
}

type samples struct {
	count   int64
	timings []time.Duration
	values  []float64
}

// OperationSummary totals everything recorded for one operation.
type OperationSummary struct {
	Started    int64
	Succeeded  int64
	Failed     int64
	Errors     map[string]int64 // by error kind
	InputBytes float64
	Duration   time.Duration
}

// InMemoryMetricsCollector keeps every series in memory, for tests and local inspection.
type InMemoryMetricsCollector struct {
	mu     sync.Mutex
	series map[Series]*samples
}

func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{series: make(map[Series]*samples)}
}

// at returns the samples of s, creating them. Callers hold m.mu.
func (m *InMemoryMetricsCollector) at(s Series) *samples {
	got, ok := m.series[s]
	if !ok {
		got = &samples{}
		m.series[s] = got
	}
	return got
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	m.at(seriesOf(name, tags)).count++
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	m.mu.Lock()
	s := m.at(seriesOf(name, tags))
	s.timings = append(s.timings, duration)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordValue(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	s := m.at(seriesOf(name, tags))
	s.values = append(s.values, value)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) Flush() error { return nil }

// Count returns the counter of s, zero when it was never incremented.
func (m *InMemoryMetricsCollector) Count(s Series) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if got, ok := m.series[s]; ok {
		return got.count
	}
	return 0
}

// Timings returns a copy of the durations recorded for s.
func (m *InMemoryMetricsCollector) Timings(s Series) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if got, ok := m.series[s]; ok {
		return append([]time.Duration(nil), got.timings...)
	}
	return nil
}

// Values returns a copy of the values recorded for s.
func (m *InMemoryMetricsCollector) Values(s Series) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if got, ok := m.series[s]; ok {
		return append([]float64(nil), got.values...)
	}
	return nil
}

// Summary folds all series of operation into totals.
func (m *InMemoryMetricsCollector) Summary(operation string) OperationSummary {
	sum := OperationSummary{Errors: make(map[string]int64)}

	m.mu.Lock()
	defer m.mu.Unlock()
	for s, got := range m.series {
		if s.Operation != operation {
			continue
		}
		switch s.Name {
		case MetricStarted:
			sum.Started += got.count
		case MetricSucceeded:
			sum.Succeeded += got.count
		case MetricFailed:
			sum.Failed += got.count
		case MetricErrors:
			sum.Errors[s.ErrorKind] += got.count
		case MetricDuration:
			for _, d := range got.timings {
				sum.Duration += d
			}
		case MetricInputBytes:
			for _, v := range got.values {
				sum.InputBytes += v
			}
		}
	}
	return sum
}

// Reset drops every series.
func (m *InMemoryMetricsCollector) Reset() {
	m.mu.Lock()
	m.series = make(map[Series]*samples)
	m.mu.Unlock()
}
