package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
)

// Names of the generated files in a converted benchmark
const (
	ManifestFileName = "benchmark_info.json"
	SettingsDirName  = "settings"

	entryPointTemplateName = "run.sh"
)

// EntryPointName is the generated entry point. The runner invokes it directly, so it
// carries no script suffix.
var EntryPointName = stripScriptSuffix(entryPointTemplateName)

var scriptSuffixes = []string{".sh", ".bash", ".bat", ".cmd", ".ps1"}

func stripScriptSuffix(name string) string {
	for _, suffix := range scriptSuffixes {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

var entryPointTemplate = template.Must(template.New(entryPointTemplateName).Funcs(template.FuncMap{
	"shquote": shellQuote,
	"oneline": func(s string) string { return strings.Join(strings.Fields(s), " ") },
}).Parse(`#!/bin/sh
# {{oneline .Title}} {{.Version}} ({{.Platform}})
#
# Run {{.Setup}} once, then:
#   LOG_FILE=/path/to/log ./run <cli_args from a file in settings/>
set -e

if [ -z "${LOG_FILE:-}" ]; then
	echo "run: LOG_FILE must be set" >&2
	exit 1
fi
export LOG_FILE

cd "$(dirname "$0")"

if [ ! -x {{shquote .Executable}} ]; then
	echo "run: "{{shquote .Executable}}" is missing, run "{{shquote .Setup}}" first" >&2
	exit 1
fi

exec {{shquote .Executable}} "$@" >>"$LOG_FILE" 2>&1
`))

type entryPointData struct {
	Title      string
	Version    string
	Platform   string
	Executable string
	Setup      string
}

// FormatConverter writes a definition and its staged assets in the runner's layout
type FormatConverter struct {
	logger interfaces.Logger
}

// NewFormatConverter creates a new format converter
func NewFormatConverter(logger interfaces.Logger) *FormatConverter {
	return &FormatConverter{logger: interfaces.OrNoOp(logger)}
}

// Convert materializes def at dest. Everything is written into a sibling directory first
// and swapped into place at the end, so dest is either fully replaced or left untouched.
func (c *FormatConverter) Convert(
	ctx context.Context,
	def *entities.NormalizedDefinition,
	assets *entities.StagedAssets,
	dest string,
) (*entities.ConvertedBenchmark, error) {
	fail := func(err error) (*entities.ConvertedBenchmark, error) {
		return nil, &entities.ConversionFailedError{Dest: dest, Err: err}
	}

	if len(def.InstallSteps) == 0 {
		return fail(fmt.Errorf("definition %s has no install step", def.Name))
	}
	setup := def.InstallSteps[0].Script
	names := assets.Names()
	if err := checkAssetNames(names); err != nil {
		return fail(err)
	}
	for _, required := range def.RequiredAssets() {
		if _, ok := assets.Path(required); !ok {
			return fail(fmt.Errorf("required asset %s was not staged", required))
		}
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0750); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-")
	if err != nil {
		return fail(fmt.Errorf("failed to create staging directory: %w", err))
	}
	defer func() { _ = os.RemoveAll(tmp) }()
	//nolint:gosec // G302: benchmark directories are traversable by the group
	if err := os.Chmod(tmp, 0750); err != nil {
		return fail(fmt.Errorf("failed to set directory mode: %w", err))
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		src, _ := assets.Path(name)
		if err := copyAsset(src, filepath.Join(tmp, filepath.FromSlash(name))); err != nil {
			return fail(err)
		}
	}

	settingsFiles, err := writeSettings(tmp, def)
	if err != nil {
		return fail(err)
	}

	if err := writeEntryPoint(tmp, def, setup); err != nil {
		return fail(err)
	}

	if err := writeManifest(tmp, def, setup); err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := replaceDir(tmp, dest); err != nil {
		return fail(err)
	}

	for key, rel := range settingsFiles {
		settingsFiles[key] = filepath.Join(dest, rel)
	}
	c.logger.Info("Benchmark converted", interfaces.F("benchmark", def.Name), interfaces.F("dest", dest))

	return &entities.ConvertedBenchmark{
		Name:          def.Name,
		Version:       def.Version.String(),
		Platform:      def.Platform,
		Dir:           dest,
		ManifestPath:  filepath.Join(dest, ManifestFileName),
		EntryPoint:    filepath.Join(dest, EntryPointName),
		SettingsFiles: settingsFiles,
		Assets:        names,
	}, nil
}

// checkAssetNames rejects names that would escape the output or clobber generated files
func checkAssetNames(names []string) error {
	for _, name := range names {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("asset name %q is not a relative path", name)
		}
		top := strings.SplitN(name, "/", 2)[0]
		if top == ManifestFileName || top == SettingsDirName || top == EntryPointName {
			return fmt.Errorf("asset %q collides with a generated file", name)
		}
	}
	return nil
}

// copyAsset copies a staged file, keeping its executable bit
func copyAsset(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("staged asset missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return copyFile(src, dst, fileMode(info.Mode().Perm()&0100 != 0))
}

// writeSettings writes one settings/<key>.json per profile and returns key -> relative path
func writeSettings(dir string, def *entities.NormalizedDefinition) (map[string]string, error) {
	settingsDir := filepath.Join(dir, SettingsDirName)
	if err := os.MkdirAll(settingsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	files := make(map[string]string, len(def.Settings))
	for _, key := range def.SettingsNames() {
		data, err := settingsDocument(def.Settings[key])
		if err != nil {
			return nil, err
		}
		rel := filepath.Join(SettingsDirName, key+".json")
		if err := os.WriteFile(filepath.Join(dir, rel), data, 0640); err != nil {
			return nil, fmt.Errorf("failed to write settings %s: %w", key, err)
		}
		files[key] = rel
	}
	return files, nil
}

// settingsDocument renders {"cli_args": "<args>"} with the argument string kept verbatim
func settingsDocument(args string) ([]byte, error) {
	var value bytes.Buffer
	enc := json.NewEncoder(&value)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return []byte(`{"cli_args": ` + strings.TrimSpace(value.String()) + "}\n"), nil
}

func writeEntryPoint(dir string, def *entities.NormalizedDefinition, setup string) error {
	var buf bytes.Buffer
	err := entryPointTemplate.Execute(&buf, entryPointData{
		Title:      def.Title,
		Version:    def.Version.String(),
		Platform:   def.Platform.String(),
		Executable: "./" + def.Executable,
		Setup:      "./" + setup,
	})
	if err != nil {
		return fmt.Errorf("failed to render entry point: %w", err)
	}
	//nolint:gosec // G306: the entry point must be executable
	if err := os.WriteFile(filepath.Join(dir, EntryPointName), buf.Bytes(), 0755); err != nil {
		return fmt.Errorf("failed to write entry point: %w", err)
	}
	return nil
}

func writeManifest(dir string, def *entities.NormalizedDefinition, setup string) error {
	manifest := entities.BenchmarkManifest{
		Name:           def.Name,
		Title:          def.Title,
		Description:    def.Description,
		Version:        def.Version.String(),
		Platform:       def.Platform.String(),
		ResultsFormat:  def.ResultsFormat,
		RunCommand:     "./" + EntryPointName,
		SetupCommand:   "./" + setup,
		Settings:       def.SettingsNames(),
		DefaultSetting: def.DefaultSetting,
		Stats:          def.Stats,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), buf.Bytes(), 0640); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// replaceDir moves src to dst, replacing whatever dst held. The previous dst is
// restored if the final rename fails.
func replaceDir(src, dst string) error {
	if _, err := os.Lstat(dst); os.IsNotExist(err) {
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move output into place: %w", err)
		}
		return nil
	}

	backup, err := os.MkdirTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-previous-")
	if err != nil {
		return fmt.Errorf("failed to reserve backup name: %w", err)
	}
	if err := os.Remove(backup); err != nil {
		return fmt.Errorf("failed to reserve backup name: %w", err)
	}
	if err := os.Rename(dst, backup); err != nil {
		return fmt.Errorf("failed to move previous output aside: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		if restoreErr := os.Rename(backup, dst); restoreErr != nil {
			return fmt.Errorf("failed to move output into place: %w (previous output left at %s)", err, backup)
		}
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	_ = os.RemoveAll(backup)
	return nil
}

// shellQuote single-quotes s for POSIX sh
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
