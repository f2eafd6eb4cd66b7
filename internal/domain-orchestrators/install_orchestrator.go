// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces/gateways"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces/repositories"
	"github.com/openforbc/phoronix-converter/internal/domain/services"
)

// InstallOrchestrator coordinates the complete convert-and-materialize workflow
type InstallOrchestrator struct {
	catalog    repositories.CatalogRepository
	platforms  *services.PlatformResolver
	versions   *services.VersionResolver
	parser     gateways.DefinitionParser
	fetcher    gateways.AssetFetcher
	converter  gateways.FormatConverter
	installDir string
	prefix     string
	logger     interfaces.Logger
}

// InstallOrchestratorConfig holds configuration for the orchestrator
type InstallOrchestratorConfig struct {
	InstallDir string
	Prefix     string
}

// NewInstallOrchestrator creates a new install orchestrator
func NewInstallOrchestrator(
	catalog repositories.CatalogRepository,
	platforms *services.PlatformResolver,
	versions *services.VersionResolver,
	parser gateways.DefinitionParser,
	fetcher gateways.AssetFetcher,
	converter gateways.FormatConverter,
	config InstallOrchestratorConfig,
	logger interfaces.Logger,
) *InstallOrchestrator {
	installDir := config.InstallDir
	if installDir == "" {
		installDir = entities.DefaultInstallDir
	}
	prefix := config.Prefix
	if prefix == "" {
		prefix = entities.DefaultPrefix
	}

	return &InstallOrchestrator{
		catalog:    catalog,
		platforms:  platforms,
		versions:   versions,
		parser:     parser,
		fetcher:    fetcher,
		converter:  converter,
		installDir: installDir,
		prefix:     prefix,
		logger:     interfaces.OrNoOp(logger),
	}
}

// InstallResult contains the result of an install operation
type InstallResult struct {
	Resolution    *services.VersionResolution
	Definition    *entities.NormalizedDefinition
	Benchmark     *entities.ConvertedBenchmark
	FetchDuration time.Duration
	TotalDuration time.Duration
}

// Install converts the requested benchmark into <install_dir>/<prefix>-<name>-<version>.
// Each stage must succeed before the next one starts; nothing under the destination is
// touched unless the conversion itself succeeds.
func (o *InstallOrchestrator) Install(ctx context.Context, req entities.ConversionRequest) (*InstallResult, error) {
	startTime := time.Now()
	result := &InstallResult{}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return result, fmt.Errorf("%w: no benchmark name given", entities.ErrBenchmarkNotFound)
	}

	// Step 1: Resolve platform
	platform, err := o.platforms.Resolve(req.Platform)
	if err != nil {
		return result, err
	}

	// Step 2: Look the benchmark up on that platform
	entries, err := o.catalog.EntriesFor(ctx, name)
	if err != nil {
		return result, fmt.Errorf("failed to load catalog: %w", err)
	}
	entries = entities.FilterByPlatform(entries, platform)
	if len(entries) == 0 {
		return result, fmt.Errorf("%w: %s for %s", entities.ErrBenchmarkNotFound, name, platform)
	}

	// Step 3: Resolve version
	resolution, err := o.versions.Resolve(entries, strings.TrimSpace(req.Version))
	if err != nil {
		return result, err
	}
	result.Resolution = resolution
	o.logger.Info(resolution.Message())

	// Step 4: Parse definition
	def, err := o.parser.Parse(resolution.Entry)
	if err != nil {
		return result, err
	}
	result.Definition = def

	// Step 5: Stage assets
	fetchStart := time.Now()
	assets, err := o.fetcher.Fetch(ctx, def)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := assets.Discard(); err != nil {
			o.logger.Warn("Failed to remove staging directory", interfaces.F("dir", assets.Dir), interfaces.F("error", err))
		}
	}()
	result.FetchDuration = time.Since(fetchStart)

	// Step 6: Convert into the destination
	dest := o.Destination(def.Name, def.Version.String())
	benchmark, err := o.converter.Convert(ctx, def, assets, dest)
	if err != nil {
		return result, err
	}
	result.Benchmark = benchmark
	result.TotalDuration = time.Since(startTime)

	o.logger.Info("Benchmark installed",
		interfaces.F("benchmark", def.Name),
		interfaces.F("version", def.Version.String()),
		interfaces.F("platform", def.Platform),
		interfaces.F("dest", dest))
	return result, nil
}

// Destination returns the output directory for a benchmark version
func (o *InstallOrchestrator) Destination(name, version string) string {
	return filepath.Join(o.installDir, fmt.Sprintf("%s-%s-%s", o.prefix, name, version))
}

// Summary returns a human-readable summary of the install
func (r *InstallResult) Summary() string {
	if r.Benchmark == nil {
		return "Install failed"
	}
	return fmt.Sprintf(`Installed %s %s (%s)
Location: %s
Settings: %d
Assets: %d
Fetch: %v
Total: %v`,
		r.Benchmark.Name,
		r.Benchmark.Version,
		r.Benchmark.Platform,
		r.Benchmark.Dir,
		len(r.Benchmark.SettingsFiles),
		len(r.Benchmark.Assets),
		r.FetchDuration.Round(time.Millisecond),
		r.TotalDuration.Round(time.Millisecond),
	)
}
