// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// CatalogRepository defines the interface for the indexed upstream catalog
type CatalogRepository interface {
	// EnsureReady sets the origin up once per process; later calls are no-ops
	EnsureReady(ctx context.Context) error

	// AllEntries returns every well-formed entry in the catalog
	AllEntries(ctx context.Context) ([]*entities.BenchmarkEntry, error)

	// EntriesFor returns the entries for a benchmark name, all entries when name is empty
	EntriesFor(ctx context.Context, name string) ([]*entities.BenchmarkEntry, error)
}
