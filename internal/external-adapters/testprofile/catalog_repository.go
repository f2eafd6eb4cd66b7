package testprofile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces/gateways"
)

// CatalogRepository implements repositories.CatalogRepository over a directory of
// <name>-<version> test profiles provided by an origin source
type CatalogRepository struct {
	origin gateways.OriginSource
	logger interfaces.Logger

	mu      sync.Mutex
	root    string
	catalog *entities.Catalog
}

// NewCatalogRepository creates a catalog backed by origin
func NewCatalogRepository(origin gateways.OriginSource, logger interfaces.Logger) *CatalogRepository {
	return &CatalogRepository{
		origin: origin,
		logger: interfaces.OrNoOp(logger),
	}
}

// EnsureReady sets the origin up on first use; later calls are no-ops
func (r *CatalogRepository) EnsureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureReadyLocked(ctx)
}

func (r *CatalogRepository) ensureReadyLocked(ctx context.Context) error {
	if r.root != "" {
		return nil
	}

	root, err := r.origin.Setup(ctx)
	if err != nil {
		if errors.Is(err, entities.ErrOriginUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", entities.ErrOriginUnavailable, err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: test-profile root %s is not a directory", entities.ErrOriginUnavailable, root)
	}

	r.root = root
	return nil
}

// AllEntries returns every entry, indexing the origin on first access
func (r *CatalogRepository) AllEntries(ctx context.Context) ([]*entities.BenchmarkEntry, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Entries(), nil
}

// EntriesFor returns the entries of one benchmark, every entry when name is empty
func (r *CatalogRepository) EntriesFor(ctx context.Context, name string) ([]*entities.BenchmarkEntry, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Named(name), nil
}

func (r *CatalogRepository) load(ctx context.Context) (*entities.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return r.catalog, nil
	}
	if err := r.ensureReadyLocked(ctx); err != nil {
		return nil, err
	}

	entries, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	r.catalog = entities.NewCatalog(entries)
	r.logger.Debug("Catalog indexed", interfaces.F("root", r.root), interfaces.F("entries", r.catalog.Len()))
	return r.catalog, nil
}

// scan builds one entry per (profile directory, platform with an installer)
func (r *CatalogRepository) scan(ctx context.Context) ([]*entities.BenchmarkEntry, error) {
	dirs, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read test profiles: %v", entities.ErrOriginUnavailable, err)
	}

	entries := make([]*entities.BenchmarkEntry, 0, len(dirs))
	seen := make(map[string]bool)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !dir.IsDir() {
			continue
		}

		name, rawVersion, ok := splitProfileDir(dir.Name())
		if !ok {
			r.logger.Debug("Skipping profile without version", interfaces.F("dir", dir.Name()))
			continue
		}
		version, err := entities.ParseVersion(rawVersion)
		if err != nil {
			r.logger.Debug("Skipping profile with unparseable version", interfaces.F("dir", dir.Name()), interfaces.F("error", err))
			continue
		}

		profileDir := filepath.Join(r.root, dir.Name())
		td, err := ReadTestDefinition(filepath.Join(profileDir, TestDefinitionFile))
		if err != nil {
			r.logger.Warn("Skipping unreadable profile", interfaces.F("dir", dir.Name()), interfaces.F("error", err))
			continue
		}

		for _, plat := range entities.SupportedPlatforms {
			script := plat.InstallerScript()
			if !isFile(filepath.Join(profileDir, script)) {
				continue
			}

			key := fmt.Sprintf("%s@%s@%s", name, version, plat)
			if seen[key] {
				// e.g. "Foo-1.0.0" and "foo-1.0.0" on a case-sensitive filesystem
				r.logger.Warn("Skipping duplicate profile", interfaces.F("dir", dir.Name()), interfaces.F("platform", plat))
				continue
			}
			seen[key] = true

			entries = append(entries, &entities.BenchmarkEntry{
				Name:              name,
				Version:           version,
				Platform:          plat,
				Title:             td.Title,
				Description:       td.Description,
				ResultsFormat:     td.ResultScale,
				Executable:        td.Executable,
				InstallProcedures: []entities.InstallStep{{Platform: plat, Script: script}},
				Settings:          copySettings(td.Settings),
				DefaultSetting:    td.DefaultSetting,
				DefinitionDir:     profileDir,
			})
		}
	}

	return entries, nil
}

// splitProfileDir splits "<name>-<version>" on the last dash
func splitProfileDir(dir string) (string, string, bool) {
	i := strings.LastIndex(dir, "-")
	if i <= 0 || i == len(dir)-1 {
		return "", "", false
	}
	return strings.ToLower(dir[:i]), dir[i+1:], true
}

func copySettings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
