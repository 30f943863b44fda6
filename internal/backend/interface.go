// Package backend builds the storage and export adapters selected by config.
package backend

import (
	"context"

	"kitabu/internal/config"
	"kitabu/internal/kv"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// HealthFunc reports whether a backend is reachable.
type HealthFunc func(ctx context.Context) error

// Result contains the storage instance and its optional hooks.
type Result struct {
	Storage kv.Storage
	Name    string
	Cleanup CleanupFunc
	Health  HealthFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Ping runs Health when set.
func (r *Result) Ping(ctx context.Context) error {
	if r == nil || r.Health == nil {
		return nil
	}
	return r.Health(ctx)
}

// Factory creates storage based on configuration.
type Factory interface {
	CreateStorage(ctx context.Context, cfg *config.Config) (*Result, error)
}
