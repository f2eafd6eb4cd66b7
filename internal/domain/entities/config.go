package entities

import "time"

// Default configuration values
const (
	DefaultArchiveURL   = "https://github.com/phoronix-test-suite/phoronix-test-suite/archive/refs/heads/master.tar.gz"
	DefaultRepository   = "phoronix-test-suite/phoronix-test-suite"
	DefaultBranch       = "master"
	DefaultProfilesPath = "ob-cache/test-profiles/pts"
	DefaultInstallDir   = "phoronix-converted"
	DefaultPrefix       = "phoronix"
	DefaultConcurrency  = 4
	DefaultUserAgent    = "phoronix-converter/1.0"
	DefaultFetchTimeout = 10 * time.Minute
)

// Config holds the resolved tool configuration
type Config struct {
	Origin     OriginConfig
	CacheDir   string
	InstallDir string
	Prefix     string
	Fetch      FetchConfig
}

// OriginConfig describes where the upstream catalog comes from
type OriginConfig struct {
	Path         string // existing checkout, bypasses download when set
	ArchiveURL   string
	SignatureURL string
	Keyring      string
	Repository   string // owner/repo used for the revision lookup
	Branch       string
	ProfilesPath string // test-profile root relative to the repository root
}

// FetchConfig controls asset retrieval
type FetchConfig struct {
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
}

// DefaultConfig returns a configuration with every default filled in
func DefaultConfig() Config {
	return Config{
		Origin: OriginConfig{
			ArchiveURL:   DefaultArchiveURL,
			Repository:   DefaultRepository,
			Branch:       DefaultBranch,
			ProfilesPath: DefaultProfilesPath,
		},
		InstallDir: DefaultInstallDir,
		Prefix:     DefaultPrefix,
		Fetch: FetchConfig{
			Concurrency: DefaultConcurrency,
			Timeout:     DefaultFetchTimeout,
			UserAgent:   DefaultUserAgent,
		},
	}
}
