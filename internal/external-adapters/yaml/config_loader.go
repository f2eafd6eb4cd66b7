package yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// Environment overrides applied after the configuration file
const (
	EnvOriginPath = "PHORONIX_CONVERTER_ORIGIN_PATH"
	EnvCacheDir   = "PHORONIX_CONVERTER_CACHE_DIR"
	EnvInstallDir = "PHORONIX_CONVERTER_INSTALL_DIR"
)

// ConfigLoader resolves the effective configuration from defaults, .env, a YAML file and the environment
type ConfigLoader struct {
	parser  *ConfigParser
	envFile string
	lookup  func(string) (string, bool)
}

// NewConfigLoader creates a loader reading envFile (usually ".env") when it exists
func NewConfigLoader(envFile string) *ConfigLoader {
	return &ConfigLoader{
		parser:  NewConfigParser(),
		envFile: envFile,
		lookup:  os.LookupEnv,
	}
}

// Load returns the configuration. An empty configPath falls back to the user config file when it exists.
func (l *ConfigLoader) Load(configPath string) (entities.Config, error) {
	if l.envFile != "" {
		// A missing .env is not an error
		_ = godotenv.Load(l.envFile)
	}

	cfg := entities.DefaultConfig()
	cfg.CacheDir = defaultCacheDir()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath()
	}
	if configPath != "" {
		parsed, err := l.parser.ParseFile(configPath, cfg)
		switch {
		case err == nil:
			cfg = parsed
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return cfg, err
		}
	}

	if v, ok := l.lookup(EnvOriginPath); ok && v != "" {
		cfg.Origin.Path = v
	}
	if v, ok := l.lookup(EnvCacheDir); ok && v != "" {
		cfg.CacheDir = v
	}
	if v, ok := l.lookup(EnvInstallDir); ok && v != "" {
		cfg.InstallDir = v
	}

	cfg.CacheDir = expandHome(cfg.CacheDir)
	cfg.InstallDir = expandHome(cfg.InstallDir)
	cfg.Origin.Path = expandHome(cfg.Origin.Path)
	cfg.Origin.Keyring = expandHome(cfg.Origin.Keyring)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfigPath returns <user config dir>/phoronix-converter/config.yml, or "" when unknown
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "phoronix-converter", "config.yml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "phoronix-converter")
	}
	return filepath.Join(dir, "phoronix-converter")
}

func expandHome(p string) string {
	if p != "~" && !hasHomePrefix(p) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

func hasHomePrefix(p string) bool {
	return len(p) >= 2 && p[0] == '~' && (p[1] == '/' || p[1] == '\\')
}
