package cbcx

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Cipher.
type Option func(c *Cipher) error

// WithKeyCache keeps up to size derived keys in memory, keyed by secret value. A rotated
// secret therefore never reuses a stale key. Without this option the key is re-derived on
// every call.
func WithKeyCache(size int) Option {
	return func(c *Cipher) error {
		if size <= 0 || size > MaxKeyCacheSize {
			return fmt.Errorf("%w: key cache size must be between 1 and %d, got %d", ErrInvalidConfiguration, MaxKeyCacheSize, size)
		}
		c.keyCacheSize = size
		return nil
	}
}

// WithRandReader sets the source of initialization vectors. It defaults to crypto/rand and
// should only be replaced in tests that need reproducible envelopes.
func WithRandReader(r io.Reader) Option {
	return func(c *Cipher) error {
		if r == nil {
			return fmt.Errorf("%w: rand reader is nil", ErrInvalidConfiguration)
		}
		c.random = r
		return nil
	}
}

// WithObservabilityHook adds a hook notified around every Encrypt and Decrypt.
func WithObservabilityHook(hook ObservabilityHook) Option {
	return func(c *Cipher) error {
		if hook == nil {
			return fmt.Errorf("%w: observability hook is nil", ErrInvalidConfiguration)
		}
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

// WithMetricsCollector records operation counters and timings into collector.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(c *Cipher) error {
		if collector == nil {
			return fmt.Errorf("%w: metrics collector is nil", ErrInvalidConfiguration)
		}
		c.hooks = append(c.hooks, NewMetricsObservabilityHook(collector))
		return nil
	}
}

// WithLogger logs operation outcomes through logger. Only sizes, durations and errors are
// logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Cipher) error {
		if logger == nil {
			return fmt.Errorf("%w: logger is nil", ErrInvalidConfiguration)
		}
		c.hooks = append(c.hooks, NewLoggingObservabilityHook(logger))
		return nil
	}
}
