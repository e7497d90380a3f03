package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pario-ai/rex/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "blobs_test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, storage.BrainKey, []byte(`{"rust":{}}`)); err != nil {
		t.Fatal(err)
	}

	data, err := s.Get(ctx, storage.BrainKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"rust":{}}` {
		t.Errorf("unexpected blob: %s", data)
	}

	// Keys are independent
	if _, err := s.Get(ctx, storage.ConfigKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for config key, got %v", err)
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("one"))
	_ = s.Put(ctx, "k", []byte("two"))

	data, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Errorf("expected replaced value, got %s", data)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing key is a no-op
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("unexpected error deleting missing key: %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Put(ctx, storage.ConfigKey, []byte(`{"apiKey":"sk"}`))
	_ = s.Close()

	s2, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	data, err := s2.Get(ctx, storage.ConfigKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"apiKey":"sk"}` {
		t.Errorf("blob not persisted: %s", data)
	}
}
