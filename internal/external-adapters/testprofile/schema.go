// Package testprofile reads upstream test profiles and indexes them as a catalog.
package testprofile

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// Definition file names inside a test-profile directory
const (
	TestDefinitionFile    = "test-definition.xml"
	ResultsDefinitionFile = "results-definition.xml"
	DownloadsFile         = "downloads.xml"
)

// resultPlaceholder is replaced by a capture group in result templates
const resultPlaceholder = "#_RESULT_#"

type xmlTestDefinition struct {
	Information xmlTestInformation `xml:"TestInformation"`
	Profile     xmlTestProfile     `xml:"TestProfile"`
	Settings    xmlTestSettings    `xml:"TestSettings"`
}

type xmlTestInformation struct {
	Title       string `xml:"Title"`
	AppVersion  string `xml:"AppVersion"`
	Description string `xml:"Description"`
	ResultScale string `xml:"ResultScale"`
	Executable  string `xml:"Executable"`
}

type xmlTestProfile struct {
	Version            string `xml:"Version"`
	SupportedPlatforms string `xml:"SupportedPlatforms"`
}

type xmlTestSettings struct {
	Default xmlDefaultSettings `xml:"Default"`
	Options []xmlOption        `xml:"Option"`
}

type xmlDefaultSettings struct {
	Arguments string `xml:"Arguments"`
}

type xmlOption struct {
	DisplayName string     `xml:"DisplayName"`
	Identifier  string     `xml:"Identifier"`
	Entries     []xmlEntry `xml:"Menu>Entry"`
}

type xmlEntry struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type xmlResultsDefinition struct {
	ResultsParsers []xmlResultsParser `xml:"ResultsParser"`
	SystemMonitors []xmlSystemMonitor `xml:"SystemMonitor"`
}

type xmlResultsParser struct {
	OutputTemplate       string `xml:"OutputTemplate"`
	ArgumentsDescription string `xml:"ArgumentsDescription"`
}

type xmlSystemMonitor struct {
	Sensor string `xml:"Sensor"`
}

type xmlDownloads struct {
	Packages []xmlPackage `xml:"Downloads>Package"`
}

type xmlPackage struct {
	URL              string `xml:"URL"`
	MD5              string `xml:"MD5"`
	SHA256           string `xml:"SHA256"`
	FileName         string `xml:"FileName"`
	FileSize         string `xml:"FileSize"`
	PlatformSpecific string `xml:"PlatformSpecific"`
}

// TestDefinition is the subset of test-definition.xml the converter needs
type TestDefinition struct {
	Title          string
	Description    string
	ResultScale    string
	Executable     string
	Version        string
	DefaultArgs    string
	Settings       map[string]string
	DefaultSetting string
}

// ReadTestDefinition parses a test-definition.xml file
func ReadTestDefinition(path string) (*TestDefinition, error) {
	//nolint:gosec // G304: path is a definition file inside the origin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseTestDefinition(data)
}

// ParseTestDefinition parses test-definition.xml content
func ParseTestDefinition(data []byte) (*TestDefinition, error) {
	var raw xmlTestDefinition
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse test definition: %w", err)
	}

	def := &TestDefinition{
		Title:       strings.TrimSpace(raw.Information.Title),
		Description: strings.TrimSpace(raw.Information.Description),
		ResultScale: strings.TrimSpace(raw.Information.ResultScale),
		Executable:  strings.TrimSpace(raw.Information.Executable),
		Version:     strings.TrimSpace(raw.Profile.Version),
		DefaultArgs: raw.Settings.Default.Arguments,
	}
	def.Settings, def.DefaultSetting = convertSettings(raw.Settings)

	return def, nil
}

// convertSettings flattens every menu entry into a named settings profile.
// A definition without menu entries gets a single "default" profile.
func convertSettings(ts xmlTestSettings) (map[string]string, string) {
	settings := make(map[string]string)
	first := ""

	for _, opt := range ts.Options {
		for i, entry := range opt.Entries {
			base := settingsKey(entry.Name)
			if base == "" {
				// Names made only of punctuation are numbered within their option
				base = fmt.Sprintf("%s-%d", optionKey(opt.Identifier), i+1)
			}
			key := base
			if _, taken := settings[key]; taken && settingsKey(entry.Name) != "" {
				key = settingsKey(opt.Identifier + "-" + entry.Name)
			}
			for n := 2; ; n++ {
				if _, taken := settings[key]; !taken {
					break
				}
				key = fmt.Sprintf("%s-%d", base, n)
			}

			settings[key] = entry.Value
			if first == "" {
				first = key
			}
		}
	}

	if len(settings) == 0 {
		settings["default"] = ts.Default.Arguments
		first = "default"
	}

	return settings, first
}

func optionKey(identifier string) string {
	if key := settingsKey(identifier); key != "" {
		return key
	}
	return "entry"
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// settingsKey lowercases a profile name and makes it safe to use as a file name
func settingsKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = unsafeKeyChars.ReplaceAllString(key, "-")
	return strings.Trim(key, "-.")
}

// ReadResultStats parses results-definition.xml into named regex stats.
// A missing file yields no stats.
func ReadResultStats(path string) (map[string]entities.ResultStat, error) {
	//nolint:gosec // G304: path is a definition file inside the origin
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]entities.ResultStat{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseResultStats(data)
}

// ParseResultStats converts results-definition.xml content.
// ResultsParser templates win over SystemMonitor sensors.
func ParseResultStats(data []byte) (map[string]entities.ResultStat, error) {
	var raw xmlResultsDefinition
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse results definition: %w", err)
	}

	stats := make(map[string]entities.ResultStat)
	add := func(name, template string) {
		template = strings.TrimSpace(template)
		if template == "" {
			return
		}
		if name == "" {
			name = "results"
		}
		key := name
		for n := 2; ; n++ {
			if _, taken := stats[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s-%d", name, n)
		}
		stats[key] = entities.ResultStat{
			Regex: strings.ReplaceAll(template, resultPlaceholder, "(.*)"),
		}
	}

	if len(raw.ResultsParsers) > 0 {
		for _, p := range raw.ResultsParsers {
			add(strings.TrimSpace(p.ArgumentsDescription), p.OutputTemplate)
		}
		return stats, nil
	}

	for _, m := range raw.SystemMonitors {
		add("results", m.Sensor)
	}
	return stats, nil
}

// DownloadPackage is one entry of downloads.xml
type DownloadPackage struct {
	FileName  string
	URLs      []string
	MD5       string
	SHA256    string
	Size      int64
	Platforms []entities.Platform // empty means every platform
}

// AppliesTo reports whether the package is needed on p
func (d DownloadPackage) AppliesTo(p entities.Platform) bool {
	if len(d.Platforms) == 0 {
		return true
	}
	for _, dp := range d.Platforms {
		if dp == p {
			return true
		}
	}
	return false
}

// ReadDownloads parses downloads.xml. A missing file yields no packages.
func ReadDownloads(path string) ([]DownloadPackage, error) {
	//nolint:gosec // G304: path is a definition file inside the origin
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDownloads(data)
}

// ParseDownloads converts downloads.xml content
func ParseDownloads(data []byte) ([]DownloadPackage, error) {
	var raw xmlDownloads
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse downloads: %w", err)
	}

	packages := make([]DownloadPackage, 0, len(raw.Packages))
	for i, p := range raw.Packages {
		urls := splitURLs(p.URL)
		if len(urls) == 0 {
			return nil, fmt.Errorf("package %d has no URL", i+1)
		}

		fileName := strings.TrimSpace(p.FileName)
		if fileName == "" {
			fileName = fileNameFromURL(urls[0])
		}
		if fileName == "" || strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
			return nil, fmt.Errorf("package %d has an invalid file name %q", i+1, p.FileName)
		}

		var size int64
		if s := strings.TrimSpace(p.FileSize); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("package %s has an invalid file size %q", fileName, s)
			}
			size = n
		}

		packages = append(packages, DownloadPackage{
			FileName:  fileName,
			URLs:      urls,
			MD5:       strings.ToLower(strings.TrimSpace(p.MD5)),
			SHA256:    strings.ToLower(strings.TrimSpace(p.SHA256)),
			Size:      size,
			Platforms: relatedPlatforms(p.PlatformSpecific),
		})
	}

	return packages, nil
}

func splitURLs(s string) []string {
	urls := make([]string, 0)
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func fileNameFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return ""
}

// relatedPlatforms maps a PlatformSpecific tag (e.g. "Linux", "MacOSX, Windows") to platform tags.
// A tag naming only foreign platforms (e.g. "BSD") maps to a sentinel that matches nothing.
func relatedPlatforms(tag string) []entities.Platform {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil
	}

	platforms := make([]entities.Platform, 0, 1)
	if strings.Contains(tag, "linux") {
		platforms = append(platforms, entities.PlatformLinux)
	}
	if strings.Contains(tag, "macos") {
		platforms = append(platforms, entities.PlatformDarwin)
	}
	if strings.Contains(tag, "windows") {
		platforms = append(platforms, entities.PlatformWindows)
	}
	if len(platforms) == 0 {
		return []entities.Platform{entities.Platform(tag)}
	}
	return platforms
}
