// Package kv implements the local key/value store that backs remembered
// guest sessions and client preferences.
package kv

import "context"

// Repository is a byte-oriented key/value store.
//
// Get returns (nil, nil) when the key is absent. Delete and DeleteMany are
// idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
