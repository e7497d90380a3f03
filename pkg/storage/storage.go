// Package storage persists independently keyed blobs.
package storage

import (
	"context"
	"errors"
)

// Blob keys used by rex.
const (
	BrainKey  = "rex_brain_v1"
	ConfigKey = "rex_config_v1"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore reads and writes whole blobs by key. Put replaces any previous value;
// Delete of a missing key is not an error.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
