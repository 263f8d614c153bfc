package cbcx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySecretStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySecretStore()
	provider := store.Provider("app:key")

	_, err := provider.GetSecret(ctx)
	assert.True(t, IsConfigurationError(err))

	store.SetSecret("app:key", "s3cret")
	secret, err := provider.GetSecret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	store.DeleteSecret("app:key")
	_, err = provider.GetSecret(ctx)
	assert.ErrorIs(t, err, ErrMissingSecret)

	assert.Equal(t, 3, store.Reads())
}

func TestStaticSecret(t *testing.T) {
	secret, err := StaticSecret("abc").GetSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", secret)

	_, err = StaticSecret("").GetSecret(context.Background())
	assert.True(t, IsConfigurationError(err))
}

func TestVersionInfo(t *testing.T) {
	assert.Equal(t, "cbcx v"+Version, VersionInfo())

	GitCommit, BuildDate = "0123456789abcdef", "2026-01-01"
	defer func() { GitCommit, BuildDate = "", "" }()
	assert.Equal(t, "cbcx v"+Version+" (commit: 0123456, built: 2026-01-01)", VersionInfo())
}
