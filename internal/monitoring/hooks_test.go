package monitoring

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	starts    []string
	completes []string
	errs      []error
}

func (r *recordingHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	r.starts = append(r.starts, operation)
}

func (r *recordingHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	r.completes = append(r.completes, operation)
}

func (r *recordingHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	r.errs = append(r.errs, err)
}

func newBufferLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger, buf
}

func TestMetricsObservabilityHook(t *testing.T) {
	ctx := context.Background()
	collector := NewInMemoryMetricsCollector()
	hook := NewMetricsObservabilityHook(collector)

	hook.OnProcessStart(ctx, OperationEncrypt, nil)
	hook.OnProcessComplete(ctx, OperationEncrypt, time.Millisecond, nil, map[string]any{"input_bytes": 5})
	hook.OnProcessStart(ctx, OperationDecrypt, nil)
	hook.OnError(ctx, OperationDecrypt, errors.New("boom"), map[string]any{"error_kind": "format"})
	hook.OnProcessComplete(ctx, OperationDecrypt, time.Millisecond, errors.New("boom"), nil)

	enc := collector.Summary(OperationEncrypt)
	assert.Equal(t, int64(1), enc.Started)
	assert.Equal(t, int64(1), enc.Succeeded)
	assert.Zero(t, enc.Failed)
	assert.Equal(t, float64(5), enc.InputBytes)
	assert.Equal(t, time.Millisecond, enc.Duration)

	dec := collector.Summary(OperationDecrypt)
	assert.Equal(t, int64(1), dec.Started)
	assert.Equal(t, int64(1), dec.Failed)
	assert.Equal(t, map[string]int64{"format": 1}, dec.Errors)

	assert.Equal(t, int64(1), collector.Count(Series{
		Name:      MetricErrors,
		Operation: OperationDecrypt,
		ErrorKind: "format",
		ErrorType: "*errors.errorString",
	}))
	assert.Len(t, collector.Timings(Series{Name: MetricDuration, Operation: OperationEncrypt, Status: "success"}), 1)
}

func TestMetricsObservabilityHook_NilCollector(t *testing.T) {
	hook := NewMetricsObservabilityHook(nil)
	assert.NotPanics(t, func() {
		hook.OnProcessStart(context.Background(), OperationEncrypt, nil)
	})
}

func TestLoggingObservabilityHook(t *testing.T) {
	ctx := context.Background()
	logger, buf := newBufferLogger()
	hook := NewLoggingObservabilityHook(logger)

	hook.OnProcessStart(ctx, OperationEncrypt, map[string]any{"input_bytes": 3})
	hook.OnProcessComplete(ctx, OperationEncrypt, time.Millisecond, nil, nil)
	hook.OnError(ctx, OperationDecrypt, errors.New("bad envelope"), nil)

	out := buf.String()
	assert.Contains(t, out, `"operation":"encrypt"`)
	assert.Contains(t, out, `"input_bytes":3`)
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"error":"bad envelope"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestLoggingObservabilityHook_FailedCompletionWarns(t *testing.T) {
	logger, buf := newBufferLogger()
	hook := NewLoggingObservabilityHook(logger)

	hook.OnProcessComplete(context.Background(), OperationDecrypt, time.Millisecond, errors.New("nope"), nil)

	assert.Contains(t, buf.String(), `"level":"warning"`)
	assert.Contains(t, buf.String(), `"status":"failed"`)
}

func TestCompositeObservabilityHook(t *testing.T) {
	ctx := context.Background()
	first := &recordingHook{}
	second := &recordingHook{}
	hook := NewCompositeObservabilityHook(first, second, &NoOpObservabilityHook{})

	boom := errors.New("boom")
	hook.OnProcessStart(ctx, OperationEncrypt, nil)
	hook.OnError(ctx, OperationEncrypt, boom, nil)
	hook.OnProcessComplete(ctx, OperationEncrypt, 0, boom, nil)

	for _, h := range []*recordingHook{first, second} {
		require.Equal(t, []string{OperationEncrypt}, h.starts)
		require.Equal(t, []string{OperationEncrypt}, h.completes)
		require.Equal(t, []error{boom}, h.errs)
	}
}
