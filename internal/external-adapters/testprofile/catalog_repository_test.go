package testprofile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

func newFixtureOrigin(t *testing.T) *staticOrigin {
	t.Helper()
	root := t.TempDir()
	writeAstcenc(t, root, "1.0.0", "install.sh")
	writeAstcenc(t, root, "1.1.0", "install.sh", "install_macosx.sh")
	writeAstcenc(t, root, "1.2.0", "install.sh", "install_macosx.sh", "install_windows.sh")
	writeAstcenc(t, root, "1.10.0", "install_windows.sh")

	// Dropped: non-numeric version, no version, broken XML, no installer
	writeAstcenc(t, root, "2.0.0b", "install.sh")
	writeFiles(t, filepath.Join(root, "noversion"), map[string]string{"install.sh": "", TestDefinitionFile: astcencDefinition})
	writeFiles(t, filepath.Join(root, "broken-1.0.0"), map[string]string{"install.sh": "", TestDefinitionFile: "<PhoronixTestSuite"})
	writeFiles(t, filepath.Join(root, "bare-1.0.0"), map[string]string{TestDefinitionFile: astcencDefinition})

	return &staticOrigin{root: root}
}

func TestCatalogRepository_AllEntries(t *testing.T) {
	origin := newFixtureOrigin(t)
	repo := NewCatalogRepository(origin, nil)

	entries, err := repo.AllEntries(context.Background())
	require.NoError(t, err)

	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{
		"astcenc @ 1.0.0 [linux]",
		"astcenc @ 1.1.0 [darwin]",
		"astcenc @ 1.1.0 [linux]",
		"astcenc @ 1.2.0 [darwin]",
		"astcenc @ 1.2.0 [linux]",
		"astcenc @ 1.2.0 [windows]",
		"astcenc @ 1.10.0 [windows]",
	}, got)

	e := entries[0]
	assert.Equal(t, "ASTC Encoder", e.Title)
	assert.Equal(t, "Seconds", e.ResultsFormat)
	assert.Equal(t, "fast", e.DefaultSetting)
	assert.Len(t, e.Settings, 4)
	assert.Equal(t, []entities.InstallStep{{Platform: entities.PlatformLinux, Script: "install.sh"}}, e.InstallProcedures)
	assert.Equal(t, filepath.Join(origin.root, "astcenc-1.0.0"), e.DefinitionDir)
}

func TestCatalogRepository_SetsUpOnce(t *testing.T) {
	origin := newFixtureOrigin(t)
	repo := NewCatalogRepository(origin, nil)
	ctx := context.Background()

	require.NoError(t, repo.EnsureReady(ctx))
	require.NoError(t, repo.EnsureReady(ctx))
	_, err := repo.AllEntries(ctx)
	require.NoError(t, err)
	_, err = repo.EntriesFor(ctx, "astcenc")
	require.NoError(t, err)

	assert.Equal(t, 1, origin.calls)
}

func TestCatalogRepository_EntriesFor(t *testing.T) {
	repo := NewCatalogRepository(newFixtureOrigin(t), nil)
	ctx := context.Background()

	entries, err := repo.EntriesFor(ctx, "ASTCENC")
	require.NoError(t, err)
	assert.Len(t, entries, 7)

	entries, err = repo.EntriesFor(ctx, "stream")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = repo.EntriesFor(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestCatalogRepository_OriginUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		origin *staticOrigin
	}{
		{name: "setup fails", origin: &staticOrigin{err: errors.New("network down")}},
		{name: "root missing", origin: &staticOrigin{root: filepath.Join(t.TempDir(), "missing")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewCatalogRepository(tt.origin, nil)
			_, err := repo.AllEntries(context.Background())
			assert.ErrorIs(t, err, entities.ErrOriginUnavailable)
		})
	}
}

func TestCatalogRepository_Cancelled(t *testing.T) {
	repo := NewCatalogRepository(newFixtureOrigin(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.AllEntries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitProfileDir(t *testing.T) {
	tests := []struct {
		dir     string
		name    string
		version string
		ok      bool
	}{
		{"astcenc-1.2.0", "astcenc", "1.2.0", true},
		{"build-linux-kernel-1.15.0", "build-linux-kernel", "1.15.0", true},
		{"Blender-3.0.0", "blender", "3.0.0", true},
		{"noversion", "", "", false},
		{"-1.0.0", "", "", false},
		{"trailing-", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			name, version, ok := splitProfileDir(tt.dir)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}
}
