package orchestrators

import (
	"context"
	"os"
	"path/filepath"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
)

// Mock implementations for testing

type mockCatalog struct {
	entries []*entities.BenchmarkEntry
	err     error
	calls   int
}

func (m *mockCatalog) EnsureReady(_ context.Context) error {
	return m.err
}

func (m *mockCatalog) AllEntries(_ context.Context) ([]*entities.BenchmarkEntry, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return entities.NewCatalog(m.entries).Entries(), nil
}

func (m *mockCatalog) EntriesFor(_ context.Context, name string) ([]*entities.BenchmarkEntry, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return entities.NewCatalog(m.entries).Named(name), nil
}

// stages records the order in which the pipeline stages ran
type stages []string

type mockParser struct {
	log *stages
	err error
}

func (m *mockParser) Parse(entry *entities.BenchmarkEntry) (*entities.NormalizedDefinition, error) {
	*m.log = append(*m.log, "parse")
	if m.err != nil {
		return nil, m.err
	}
	return &entities.NormalizedDefinition{
		Name:          entry.Name,
		Version:       entry.Version,
		Platform:      entry.Platform,
		ResultsFormat: entry.ResultsFormat,
		Settings:      entry.Settings,
	}, nil
}

type mockFetcher struct {
	log    *stages
	root   string
	err    error
	staged *entities.StagedAssets
}

func (m *mockFetcher) Fetch(_ context.Context, _ *entities.NormalizedDefinition) (*entities.StagedAssets, error) {
	*m.log = append(*m.log, "fetch")
	if m.err != nil {
		return nil, m.err
	}
	dir, err := os.MkdirTemp(m.root, "stage-")
	if err != nil {
		return nil, err
	}
	m.staged = entities.NewStagedAssets(dir)
	path := filepath.Join(dir, "install.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0600); err != nil {
		return nil, err
	}
	m.staged.Files["install.sh"] = path
	return m.staged, nil
}

type mockConverter struct {
	log  *stages
	err  error
	dest string
}

func (m *mockConverter) Convert(_ context.Context, def *entities.NormalizedDefinition, assets *entities.StagedAssets, dest string) (*entities.ConvertedBenchmark, error) {
	*m.log = append(*m.log, "convert")
	m.dest = dest
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := assets.Path("install.sh"); !ok {
		return nil, &entities.ConversionFailedError{Dest: dest, Err: os.ErrNotExist}
	}
	return &entities.ConvertedBenchmark{
		Name:          def.Name,
		Version:       def.Version.String(),
		Platform:      def.Platform,
		Dir:           dest,
		SettingsFiles: map[string]string{"fast": filepath.Join(dest, "settings", "fast.json")},
		Assets:        assets.Names(),
	}, nil
}

func entry(name, version string, platform entities.Platform) *entities.BenchmarkEntry {
	return &entities.BenchmarkEntry{
		Name:              name,
		Version:           entities.MustParseVersion(version),
		Platform:          platform,
		ResultsFormat:     "Seconds",
		InstallProcedures: []entities.InstallStep{{Platform: platform, Script: platform.InstallerScript()}},
		Settings:          map[string]string{"fast": "-fast"},
	}
}

// astcencCatalog has astcenc 1.0.0 .. 1.2.0 on darwin and linux, 1.10.0 on linux only,
// and a windows-only benchmark
func astcencCatalog() []*entities.BenchmarkEntry {
	var out []*entities.BenchmarkEntry
	for _, v := range []string{"1.0.0", "1.0.1", "1.0.2", "1.1.0", "1.2.0"} {
		out = append(out, entry("astcenc", v, entities.PlatformDarwin), entry("astcenc", v, entities.PlatformLinux))
	}
	out = append(out,
		entry("astcenc", "1.10.0", entities.PlatformLinux),
		entry("aobench", "1.0.0", entities.PlatformLinux),
		entry("directx-bench", "2.1.0", entities.PlatformWindows),
	)
	return out
}

// recordingLogger keeps every message logged
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(msg string, _ ...interfaces.Field) { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Info(msg string, _ ...interfaces.Field)  { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Warn(msg string, _ ...interfaces.Field)  { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Error(msg string, _ ...interfaces.Field) { l.messages = append(l.messages, msg) }
