package store

import (
	"context"
)

// Store is the keyed JSON record store the sync core runs on. Values are
// raw JSON documents; callers own the key layout. Reads of a key that does
// not exist return (nil, nil). No read-your-writes guarantee is assumed by
// callers beyond best effort.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ScanByPrefix(ctx context.Context, prefix string) ([][]byte, error)

	Close() error
}
