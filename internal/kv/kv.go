// Package kv defines the durable key/value capability the ledger persists
// through. Backends live in the sub-packages.
package kv

import "context"

// Storage is a durable string key/value store.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}
