package cbcx

// This file provides test doubles for use in examples and external testing.

import (
	"context"
	"sync"
)

// InMemorySecretStore holds secrets in memory for tests.
type InMemorySecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
	reads   int
}

// NewInMemorySecretStore creates an empty store.
func NewInMemorySecretStore() *InMemorySecretStore {
	return &InMemorySecretStore{
		secrets: make(map[string]string),
	}
}

// SetSecret stores value under key.
func (s *InMemorySecretStore) SetSecret(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
}

// DeleteSecret removes key.
func (s *InMemorySecretStore) DeleteSecret(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key)
}

// Lookup returns the secret under key, or a missing-secret error.
func (s *InMemorySecretStore) Lookup(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	value, ok := s.secrets[key]
	if !ok || value == "" {
		return "", NewMissingSecretError(key)
	}
	return value, nil
}

// Reads reports how many lookups have been served.
func (s *InMemorySecretStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Provider returns a SecretProvider bound to key.
func (s *InMemorySecretStore) Provider(key string) SecretProvider {
	return SecretProviderFunc(func(ctx context.Context) (string, error) {
		return s.Lookup(ctx, key)
	})
}
