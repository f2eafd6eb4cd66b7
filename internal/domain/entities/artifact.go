package entities

import (
	"os"
	"sort"
)

// StagedAssets maps logical asset names to files in a staging directory
type StagedAssets struct {
	Dir   string
	Files map[string]string
}

// NewStagedAssets creates an empty staging set rooted at dir
func NewStagedAssets(dir string) *StagedAssets {
	return &StagedAssets{Dir: dir, Files: make(map[string]string)}
}

// Path returns the staged path of a logical asset
func (s *StagedAssets) Path(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	p, ok := s.Files[name]
	return p, ok
}

// Names returns the staged asset names sorted
func (s *StagedAssets) Names() []string {
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Discard removes the staging directory and everything in it
func (s *StagedAssets) Discard() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

// ConvertedBenchmark is a materialized benchmark directory
type ConvertedBenchmark struct {
	Name          string
	Version       string
	Platform      Platform
	Dir           string
	ManifestPath  string
	EntryPoint    string
	SettingsFiles map[string]string
	Assets        []string
}

// BenchmarkManifest is the benchmark_info.json document read by the downstream runner
type BenchmarkManifest struct {
	Name           string                `json:"name"`
	Title          string                `json:"title,omitempty"`
	Description    string                `json:"description,omitempty"`
	Version        string                `json:"version"`
	Platform       string                `json:"platform"`
	ResultsFormat  string                `json:"results_format"`
	RunCommand     string                `json:"run_command"`
	SetupCommand   string                `json:"setup_command,omitempty"`
	Settings       []string              `json:"settings"`
	DefaultSetting string                `json:"default_settings,omitempty"`
	Stats          map[string]ResultStat `json:"stats,omitempty"`
}

// SettingsFile is the document written for each settings profile
type SettingsFile struct {
	CLIArgs string `json:"cli_args"`
}
