// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
)

// Platform is one of the three platform tags a benchmark can be converted for
type Platform string

// Supported platform tags
const (
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

// SupportedPlatforms lists every platform tag in display order
var SupportedPlatforms = []Platform{PlatformDarwin, PlatformLinux, PlatformWindows}

// installerScripts maps a platform to the upstream installer file name
var installerScripts = map[Platform]string{
	PlatformLinux:   "install.sh",
	PlatformDarwin:  "install_macosx.sh",
	PlatformWindows: "install_windows.sh",
}

// InstallerScript returns the name of the upstream install script for the platform
func (p Platform) InstallerScript() string {
	return installerScripts[p]
}

// Valid reports whether p is one of the supported tags
func (p Platform) Valid() bool {
	_, ok := installerScripts[p]
	return ok
}

func (p Platform) String() string {
	return string(p)
}

// Version is a numeric major.minor.patch test-profile version
type Version struct {
	sv semver.Version
}

// ParseVersion parses a strict major.minor.patch version.
// Pre-release and build suffixes are rejected since upstream ordering for them is undefined.
func ParseVersion(s string) (Version, error) {
	sv, err := semver.Parse(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if len(sv.Pre) > 0 || len(sv.Build) > 0 {
		return Version{}, fmt.Errorf("invalid version %q: non-numeric segments", s)
	}
	return Version{sv: sv}, nil
}

// MustParseVersion is like ParseVersion but panics on error (tests and constants only)
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 following major, minor, patch numeric ordering
func (v Version) Compare(o Version) int {
	return v.sv.Compare(o.sv)
}

func (v Version) String() string {
	return v.sv.String()
}

// BenchmarkEntry is one upstream benchmark at one version for one platform
type BenchmarkEntry struct {
	Name              string
	Version           Version
	Platform          Platform
	Title             string
	Description       string
	ResultsFormat     string
	Executable        string // upstream run script created by the installer
	InstallProcedures []InstallStep
	Settings          map[string]string
	DefaultSetting    string // first settings profile in upstream order
	DefinitionDir     string // origin directory holding the definition files
}

// InstallStep is a single install procedure for one platform
type InstallStep struct {
	Platform Platform
	Script   string
	Args     []string
}

// String renders the entry the way listings print it
func (e *BenchmarkEntry) String() string {
	return fmt.Sprintf("%s @ %s [%s]", e.Name, e.Version, e.Platform)
}

// Catalog is the immutable set of entries known once the origin is set up
type Catalog struct {
	entries []*BenchmarkEntry
}

// NewCatalog creates a catalog sorted by name, version and platform
func NewCatalog(entries []*BenchmarkEntry) *Catalog {
	sorted := make([]*BenchmarkEntry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)
	return &Catalog{entries: sorted}
}

// Entries returns a copy of every entry in the catalog
func (c *Catalog) Entries() []*BenchmarkEntry {
	out := make([]*BenchmarkEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Named returns the entries for a benchmark name, or all entries when name is empty
func (c *Catalog) Named(name string) []*BenchmarkEntry {
	if name == "" {
		return c.Entries()
	}
	name = strings.ToLower(name)
	out := make([]*BenchmarkEntry, 0)
	for _, e := range c.entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// FilterByPlatform keeps the entries whose platform equals p
func FilterByPlatform(entries []*BenchmarkEntry, p Platform) []*BenchmarkEntry {
	out := make([]*BenchmarkEntry, 0, len(entries))
	for _, e := range entries {
		if e.Platform == p {
			out = append(out, e)
		}
	}
	return out
}

// SortEntries orders entries by name, then version ascending, then platform
func SortEntries(entries []*BenchmarkEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := a.Version.Compare(b.Version); c != 0 {
			return c < 0
		}
		return a.Platform < b.Platform
	})
}

// ConversionRequest is the user's intent for an install.
// Empty Version resolves to the latest, empty Platform to the host.
type ConversionRequest struct {
	Name     string
	Version  string
	Platform string
}
