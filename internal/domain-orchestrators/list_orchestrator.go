package orchestrators

import (
	"context"
	"fmt"
	"strings"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces/repositories"
	"github.com/openforbc/phoronix-converter/internal/domain/services"
)

// ListOrchestrator renders the discovery view of the catalog
type ListOrchestrator struct {
	catalog   repositories.CatalogRepository
	platforms *services.PlatformResolver
}

// NewListOrchestrator creates a new list orchestrator
func NewListOrchestrator(catalog repositories.CatalogRepository, platforms *services.PlatformResolver) *ListOrchestrator {
	return &ListOrchestrator{catalog: catalog, platforms: platforms}
}

// List returns the entries for the resolved platform sorted by name then version.
// A name unknown to the whole catalog is ErrBenchmarkNotFound; a name that only
// exists on other platforms yields an empty list.
func (o *ListOrchestrator) List(ctx context.Context, name, platformFlag string) ([]*entities.BenchmarkEntry, error) {
	platform, err := o.platforms.Resolve(platformFlag)
	if err != nil {
		return nil, err
	}

	name = strings.ToLower(strings.TrimSpace(name))
	entries, err := o.catalog.EntriesFor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if name != "" && len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", entities.ErrBenchmarkNotFound, name)
	}

	entries = entities.FilterByPlatform(entries, platform)
	entities.SortEntries(entries)
	return entries, nil
}
