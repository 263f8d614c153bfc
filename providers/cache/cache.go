// Package cache wraps a cbcx.SecretProvider with a time-bounded cache.
package cache

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hengadev/cbcx"
	"golang.org/x/sync/singleflight"
)

// Provider caches the secret returned by an inner provider for a fixed TTL. Concurrent
// misses share a single upstream call. Errors are never cached.
type Provider struct {
	inner cbcx.SecretProvider
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	value   string
	expires time.Time
}

// New wraps inner with a cache of the given ttl.
func New(inner cbcx.SecretProvider, ttl time.Duration) (*Provider, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner secret provider is required", cbcx.ErrInvalidConfiguration)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: cache ttl must be positive, got %s", cbcx.ErrInvalidConfiguration, ttl)
	}
	return &Provider{inner: inner, ttl: ttl, now: time.Now}, nil
}

// GetSecret returns the cached secret or fetches a fresh one.
func (p *Provider) GetSecret(ctx context.Context) (string, error) {
	if value, ok := p.cached(); ok {
		return value, nil
	}

	// The upstream fetch outlives any single caller; each caller waits on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("secret", func() (any, error) {
		if value, ok := p.cached(); ok {
			return value, nil
		}

		value, err := p.inner.GetSecret(fetchCtx)
		if err != nil {
			return "", err
		}

		p.mu.Lock()
		p.value = value
		p.expires = p.now().Add(p.ttl)
		p.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached secret so the next call goes to the inner provider.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.value = ""
	p.expires = time.Time{}
	p.mu.Unlock()
}

// Close closes the inner provider when it holds resources.
func (p *Provider) Close() error {
	if closer, ok := p.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (p *Provider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.value == "" || !p.now().Before(p.expires) {
		return "", false
	}
	return p.value, true
}
