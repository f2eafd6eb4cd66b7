// Package yaml provides YAML-based configuration parsing and loading.
package yaml

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw YAML structure
type yamlConfig struct {
	Origin     yamlOrigin `yaml:"origin"`
	CacheDir   string     `yaml:"cache_dir"`
	InstallDir string     `yaml:"install_dir"`
	Prefix     *string    `yaml:"prefix"`
	Fetch      yamlFetch  `yaml:"fetch"`
}

type yamlOrigin struct {
	Path         string `yaml:"path"`
	ArchiveURL   string `yaml:"archive_url"`
	SignatureURL string `yaml:"signature_url"`
	Keyring      string `yaml:"keyring"`
	Repository   string `yaml:"repository"`
	Branch       string `yaml:"branch"`
	ProfilesPath string `yaml:"profiles_path"`
}

type yamlFetch struct {
	Concurrency    *int   `yaml:"concurrency"`
	TimeoutMinutes *int   `yaml:"timeout_minutes"`
	UserAgent      string `yaml:"user_agent"`
}

// ConfigParser parses YAML configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML configuration file on top of base
func (p *ConfigParser) ParseFile(filePath string, base entities.Config) (entities.Config, error) {
	//nolint:gosec // G304: filePath is the operator-provided configuration file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return base, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data, base)
}

// Parse parses YAML bytes on top of base. Keys absent from the document keep base values.
func (p *ConfigParser) Parse(data []byte, base entities.Config) (entities.Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := base
	mergeOrigin(&cfg.Origin, raw.Origin)
	setString(&cfg.CacheDir, raw.CacheDir)
	setString(&cfg.InstallDir, raw.InstallDir)
	if raw.Prefix != nil {
		cfg.Prefix = strings.TrimSpace(*raw.Prefix)
	}

	if raw.Fetch.Concurrency != nil {
		cfg.Fetch.Concurrency = *raw.Fetch.Concurrency
	}
	if raw.Fetch.TimeoutMinutes != nil {
		cfg.Fetch.Timeout = time.Duration(*raw.Fetch.TimeoutMinutes) * time.Minute
	}
	setString(&cfg.Fetch.UserAgent, raw.Fetch.UserAgent)

	return cfg, nil
}

func mergeOrigin(dst *entities.OriginConfig, src yamlOrigin) {
	setString(&dst.Path, src.Path)
	setString(&dst.ArchiveURL, src.ArchiveURL)
	setString(&dst.SignatureURL, src.SignatureURL)
	setString(&dst.Keyring, src.Keyring)
	setString(&dst.Repository, src.Repository)
	setString(&dst.Branch, src.Branch)
	setString(&dst.ProfilesPath, src.ProfilesPath)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate rejects configurations the converter cannot run with
func Validate(cfg entities.Config) error {
	if cfg.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1, got %d", cfg.Fetch.Concurrency)
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout_minutes must be positive")
	}
	if cfg.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if strings.ContainsAny(cfg.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must not contain path separators", cfg.Prefix)
	}
	if cfg.InstallDir == "" {
		return fmt.Errorf("install_dir must not be empty")
	}
	if cfg.Origin.Path == "" && cfg.Origin.ArchiveURL == "" {
		return fmt.Errorf("either origin.path or origin.archive_url must be set")
	}
	if cfg.Origin.SignatureURL != "" && cfg.Origin.Keyring == "" {
		return fmt.Errorf("origin.signature_url requires origin.keyring")
	}

	profiles := cfg.Origin.ProfilesPath
	if profiles == "" || path.IsAbs(profiles) || strings.HasPrefix(profiles, `\`) {
		return fmt.Errorf("origin.profiles_path must be a relative path, got %q", profiles)
	}
	if clean := path.Clean(profiles); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("origin.profiles_path %q escapes the origin root", profiles)
	}

	return nil
}
