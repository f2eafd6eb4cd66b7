package entities

import "sort"

// AssetKind classifies where an asset comes from
type AssetKind string

// Asset kinds
const (
	AssetDownload  AssetKind = "download"  // remote package from downloads.xml
	AssetInstaller AssetKind = "installer" // platform install script shipped with the definition
	AssetSupport   AssetKind = "support"   // other files shipped with the definition
)

// NormalizedDefinition is the intermediate form between the upstream test profile
// and the converted benchmark. Only data for the resolved platform is carried.
type NormalizedDefinition struct {
	Name           string
	Version        Version
	Platform       Platform
	Title          string
	Description    string
	ResultsFormat  string
	Executable     string // upstream run script produced by the installer
	InstallSteps   []InstallStep
	Settings       map[string]string
	DefaultSetting string
	Assets         []AssetRef
	Stats          map[string]ResultStat
}

// AssetRef references one asset the install steps need
type AssetRef struct {
	Name       string // logical name, also the file name in the output
	Kind       AssetKind
	URLs       []string // mirrors, tried in order
	LocalPath  string   // set for assets shipped with the definition
	MD5        string
	SHA256     string
	Size       int64
	Executable bool
}

// Remote reports whether the asset has to be downloaded
func (a AssetRef) Remote() bool {
	return a.LocalPath == "" && len(a.URLs) > 0
}

// ResultStat describes how to extract one statistic from benchmark output
type ResultStat struct {
	Regex string `json:"regex"`
}

// SettingsNames returns the settings profile names sorted
func (d *NormalizedDefinition) SettingsNames() []string {
	names := make([]string, 0, len(d.Settings))
	for name := range d.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredAssets returns the asset names referenced by the install steps and samples
func (d *NormalizedDefinition) RequiredAssets() []string {
	names := make([]string, 0, len(d.Assets))
	for _, a := range d.Assets {
		names = append(names, a.Name)
	}
	return names
}
