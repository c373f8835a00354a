// Package storage persists viewer preferences as durable key-value pairs.
package storage

import "context"

// Preferences is a durable string key-value store.
type Preferences interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// All returns every stored pair.
	All(ctx context.Context) (map[string]string, error)
	Close() error
}
