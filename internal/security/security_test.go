package security

import (
	"bytes"
	"crypto/rand"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil slice", data: nil},
		{name: "empty slice", data: []byte{}},
		{name: "key material", data: []byte("0123456789abcdef0123456789abcdef")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ZeroBytes(tt.data)
			for i, b := range tt.data {
				assert.Equalf(t, byte(0), b, "byte %d not zeroed", i)
			}
		})
	}
}

func TestSecureCopy(t *testing.T) {
	src := []byte("secret")
	dst := SecureCopy(src)

	require.Equal(t, src, dst)
	dst[0] = 'X'
	assert.Equal(t, byte('s'), src[0], "copy must not alias the source")

	assert.Nil(t, SecureCopy(nil))
	assert.Nil(t, SecureCopy([]byte{}))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

// overlapReader records how many reads ran at the same time.
type overlapReader struct {
	inflight atomic.Int32
	peak     atomic.Int32
}

func (o *overlapReader) Read(p []byte) (int, error) {
	n := o.inflight.Add(1)
	defer o.inflight.Add(-1)
	for {
		peak := o.peak.Load()
		if n <= peak || o.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	for i := range p {
		p[i] = byte(i)
	}
	return len(p), nil
}

func TestRandomSource_Locking(t *testing.T) {
	assert.Nil(t, NewRandomSource(nil).mutex)
	assert.Nil(t, NewRandomSource(rand.Reader).mutex)
	assert.NotNil(t, NewRandomSource(&overlapReader{}).mutex)

	fillConcurrently := func(rs *RandomSource) {
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					assert.NoError(t, rs.Fill(make([]byte, 16)))
				}
			}()
		}
		wg.Wait()
	}

	fillConcurrently(NewRandomSource(nil))

	injected := &overlapReader{}
	fillConcurrently(NewRandomSource(injected))
	assert.Equal(t, int32(1), injected.peak.Load())
}

func TestRandomSource(t *testing.T) {
	t.Run("deterministic reader", func(t *testing.T) {
		rs := NewRandomSource(bytes.NewReader(bytes.Repeat([]byte{0x42}, 32)))
		b, err := rs.Generate(16)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0x42}, 16), b)
	})

	t.Run("short reader fails", func(t *testing.T) {
		rs := NewRandomSource(bytes.NewReader([]byte{1, 2, 3}))
		_, err := rs.Generate(16)
		assert.Error(t, err)
	})

	t.Run("failing reader", func(t *testing.T) {
		rs := NewRandomSource(failingReader{})
		err := rs.Fill(make([]byte, 4))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entropy exhausted")
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewRandomSource(nil).Generate(0)
		assert.Error(t, err)
	})

	t.Run("default source yields distinct keys", func(t *testing.T) {
		a, err := GenerateSecureKey(32)
		require.NoError(t, err)
		b, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, a, 32)
		assert.NotEqual(t, a, b)
	})

	t.Run("insecure key size", func(t *testing.T) {
		_, err := GenerateSecureKey(8)
		assert.Error(t, err)
	})
}
