// Package credential persists the remote API key and model choice.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pario-ai/rex/pkg/models"
	"github.com/pario-ai/rex/pkg/storage"
)

// ErrCorrupt is returned by Load when the stored blob cannot be parsed.
var ErrCorrupt = errors.New("credential blob is corrupt")

// Store holds the current credential. It changes only through Save and Reset.
type Store struct {
	mu           sync.RWMutex
	blobs        storage.BlobStore
	cred         models.Credential
	defaultModel string
}

// Load reads the config blob. Missing fields fall back to an empty key and
// defaultModel. A malformed blob returns ErrCorrupt alongside a usable store.
func Load(ctx context.Context, blobs storage.BlobStore, defaultModel string) (*Store, error) {
	s := &Store{blobs: blobs, cred: models.Credential{Model: defaultModel}, defaultModel: defaultModel}

	data, err := blobs.Get(ctx, storage.ConfigKey)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("load credential: %w", err)
	}

	var parsed models.Credential
	if err := json.Unmarshal(data, &parsed); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	s.cred.APIKey = parsed.APIKey
	if parsed.Model != "" {
		s.cred.Model = parsed.Model
	}
	return s, nil
}

// Get returns the current credential.
func (s *Store) Get() models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// Save trims both values and persists them. An empty model keeps the current
// one. The in-memory credential is updated even if the write fails.
func (s *Store) Save(ctx context.Context, apiKey, model string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred.APIKey = strings.TrimSpace(apiKey)
	if m := strings.TrimSpace(model); m != "" {
		s.cred.Model = m
	}

	data, err := json.Marshal(s.cred)
	if err != nil {
		return s.cred, fmt.Errorf("encode credential: %w", err)
	}
	if err := s.blobs.Put(ctx, storage.ConfigKey, data); err != nil {
		return s.cred, fmt.Errorf("save credential: %w", err)
	}
	return s.cred, nil
}

// Reset forgets the API key, returns to the default model and removes the
// config blob.
func (s *Store) Reset(ctx context.Context) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = models.Credential{Model: s.defaultModel}
	if err := s.blobs.Delete(ctx, storage.ConfigKey); err != nil {
		return s.cred, fmt.Errorf("reset credential: %w", err)
	}
	return s.cred, nil
}
