// Package brain is the persisted answer cache: normalized query -> AnswerRecord.
package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pario-ai/rex/pkg/models"
	"github.com/pario-ai/rex/pkg/normalize"
	"github.com/pario-ai/rex/pkg/storage"
)

// DefaultSource labels records inserted without a provenance.
const DefaultSource = "OpenRouter"

var (
	// ErrCorrupt is returned by Load when the stored blob is not a valid brain.
	ErrCorrupt = errors.New("brain blob is corrupt")
	// ErrEmptyKey is returned by Insert for a query with no usable key.
	ErrEmptyKey = errors.New("query has no usable key")
)

// PersistenceError reports a failed read or write of the brain blob.
// The in-memory state is still usable when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("brain %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store maps normalized queries to answer records. Every mutation is written
// through to the blob store before returning; lookups never mutate.
type Store struct {
	mu      sync.RWMutex
	blobs   storage.BlobStore
	entries map[string]models.AnswerRecord
	now     func() time.Time
}

// Load reads the brain blob. A missing blob yields an empty store. On a
// malformed blob or a read failure the returned store is empty but usable and
// the error says why (ErrCorrupt or *PersistenceError).
func Load(ctx context.Context, blobs storage.BlobStore) (*Store, error) {
	s := &Store{
		blobs:   blobs,
		entries: make(map[string]models.AnswerRecord),
		now:     time.Now,
	}

	data, err := blobs.Get(ctx, storage.BrainKey)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, &PersistenceError{Op: "load", Err: err}
	}

	var entries map[string]models.AnswerRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if entries != nil {
		s.entries = entries
	}
	return s, nil
}

// Lookup finds the record for rawQuery. An exact key match wins; otherwise the
// first stored key (in ascending order) that contains, or is contained in, the
// normalized query is returned. Queries that normalize to "" always miss.
func (s *Store) Lookup(rawQuery string) (models.AnswerRecord, bool) {
	key := normalize.Query(rawQuery)
	if key == "" {
		return models.AnswerRecord{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.entries[key]; ok {
		return rec, true
	}
	for _, k := range s.sortedKeys() {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return s.entries[k], true
		}
	}
	return models.AnswerRecord{}, false
}

// Get returns the record stored under an exact key.
func (s *Store) Get(key string) (models.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[key]
	return rec, ok
}

// Insert stores answer under the normalized form of rawQuery (or its
// lowercased, trimmed form when normalization leaves nothing), overwriting any
// previous record. It returns the key used. A blank query is refused with
// ErrEmptyKey, since the empty key would fuzzy-match every lookup.
func (s *Store) Insert(ctx context.Context, rawQuery string, answer models.AnswerRecord) (string, error) {
	key := normalize.Key(rawQuery)
	if key == "" {
		return "", ErrEmptyKey
	}

	answer.OriginalQuery = rawQuery
	if answer.Source == "" {
		answer.Source = DefaultSource
	}
	if answer.Timestamp == "" {
		answer.Timestamp = models.Timestamp(s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = answer
	return key, s.persist(ctx, "insert")
}

// Delete removes key if present. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return s.persist(ctx, "delete")
}

// Clear removes every entry and returns how many were dropped. Clearing an
// empty store writes nothing.
func (s *Store) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	if n == 0 {
		return 0, nil
	}
	s.entries = make(map[string]models.AnswerRecord)
	return n, s.persist(ctx, "clear")
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns every stored key in ascending order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedKeys()
}

// EntriesByRecency lists entries newest first. Records without a timestamp
// sort last. A non-empty filter keeps entries whose key or original query
// contains it, case-insensitively.
func (s *Store) EntriesByRecency(filter string) []models.BrainEntry {
	filter = strings.ToLower(strings.TrimSpace(filter))

	s.mu.RLock()
	out := make([]models.BrainEntry, 0, len(s.entries))
	for k, rec := range s.entries {
		if filter != "" && !strings.Contains(k, filter) && !strings.Contains(strings.ToLower(rec.OriginalQuery), filter) {
			continue
		}
		out = append(out, models.BrainEntry{Key: k, Record: rec})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Record.Timestamp, out[j].Record.Timestamp
		if ti != tj {
			if ti == "" || tj == "" {
				return tj == ""
			}
			return ti > tj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// sortedKeys must be called with mu held.
func (s *Store) sortedKeys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context, op string) error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	if err := s.blobs.Put(ctx, storage.BrainKey, data); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}
