package testprofile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// definitionFiles are read by the parser and never staged as assets
var definitionFiles = map[string]bool{
	TestDefinitionFile:    true,
	ResultsDefinitionFile: true,
	DownloadsFile:         true,
	"changelog.json":      true,
}

// DefinitionParser turns a catalog entry into a NormalizedDefinition.
// It only reads files; nothing from the definition is executed.
type DefinitionParser struct{}

// NewDefinitionParser creates a new definition parser
func NewDefinitionParser() *DefinitionParser {
	return &DefinitionParser{}
}

// Parse normalizes the definition of entry for entry.Platform
func (p *DefinitionParser) Parse(entry *entities.BenchmarkEntry) (*entities.NormalizedDefinition, error) {
	id := fmt.Sprintf("%s-%s", entry.Name, entry.Version)
	malformed := func(format string, args ...interface{}) error {
		return &entities.MalformedDefinitionError{Definition: id, Reason: fmt.Sprintf(format, args...)}
	}

	if entry.Name == "" {
		return nil, malformed("missing name")
	}
	if strings.TrimSpace(entry.ResultsFormat) == "" {
		return nil, malformed("missing results format")
	}

	steps := make([]entities.InstallStep, 0, len(entry.InstallProcedures))
	for _, step := range entry.InstallProcedures {
		if step.Platform == entry.Platform {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return nil, malformed("no install step for platform %s", entry.Platform)
	}

	stats, err := ReadResultStats(filepath.Join(entry.DefinitionDir, ResultsDefinitionFile))
	if err != nil {
		return nil, malformed("%v", err)
	}

	assets, err := p.collectAssets(entry, steps)
	if err != nil {
		return nil, malformed("%v", err)
	}

	executable := entry.Executable
	if executable == "" {
		executable = entry.Name
	}

	settings := make(map[string]string, len(entry.Settings))
	for k, v := range entry.Settings {
		settings[k] = v
	}

	return &entities.NormalizedDefinition{
		Name:           entry.Name,
		Version:        entry.Version,
		Platform:       entry.Platform,
		Title:          entry.Title,
		Description:    entry.Description,
		ResultsFormat:  entry.ResultsFormat,
		Executable:     executable,
		InstallSteps:   steps,
		Settings:       settings,
		DefaultSetting: entry.DefaultSetting,
		Assets:         assets,
		Stats:          stats,
	}, nil
}

// collectAssets gathers the installer scripts, the files shipped next to the definition
// and the downloads needed on the entry's platform
func (p *DefinitionParser) collectAssets(entry *entities.BenchmarkEntry, steps []entities.InstallStep) ([]entities.AssetRef, error) {
	assets := make([]entities.AssetRef, 0)
	seen := make(map[string]bool)

	installers := make(map[string]bool)
	for _, step := range steps {
		local := filepath.Join(entry.DefinitionDir, step.Script)
		if _, err := os.Stat(local); err != nil {
			return nil, fmt.Errorf("install script %s: %w", step.Script, err)
		}
		installers[step.Script] = true
		if seen[step.Script] {
			continue
		}
		seen[step.Script] = true
		assets = append(assets, entities.AssetRef{
			Name:       step.Script,
			Kind:       entities.AssetInstaller,
			LocalPath:  local,
			Executable: true,
		})
	}

	// Installer scripts for other platforms are never carried forward
	foreign := make(map[string]bool)
	for _, plat := range entities.SupportedPlatforms {
		if script := plat.InstallerScript(); !installers[script] {
			foreign[script] = true
		}
	}

	support := make([]entities.AssetRef, 0)
	err := filepath.WalkDir(entry.DefinitionDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(entry.DefinitionDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if definitionFiles[rel] || foreign[rel] || installers[rel] {
			return nil
		}
		support = append(support, entities.AssetRef{
			Name:       rel,
			Kind:       entities.AssetSupport,
			LocalPath:  path,
			Executable: strings.HasSuffix(rel, ".sh"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan definition directory: %w", err)
	}
	sort.Slice(support, func(i, j int) bool { return support[i].Name < support[j].Name })
	for _, a := range support {
		seen[a.Name] = true
	}
	assets = append(assets, support...)

	downloads, err := ReadDownloads(filepath.Join(entry.DefinitionDir, DownloadsFile))
	if err != nil {
		return nil, err
	}
	for _, pkg := range downloads {
		if !pkg.AppliesTo(entry.Platform) {
			continue
		}
		if seen[pkg.FileName] {
			return nil, fmt.Errorf("asset %s is declared more than once", pkg.FileName)
		}
		seen[pkg.FileName] = true
		assets = append(assets, entities.AssetRef{
			Name:   pkg.FileName,
			Kind:   entities.AssetDownload,
			URLs:   pkg.URLs,
			MD5:    pkg.MD5,
			SHA256: pkg.SHA256,
			Size:   pkg.Size,
		})
	}

	return assets, nil
}
