package entities

import (
	"errors"
	"strings"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "1.2.0"},
		{name: "double digit minor", input: "1.10.0"},
		{name: "two segments", input: "1.2", wantErr: true},
		{name: "non numeric", input: "1.a.0", wantErr: true},
		{name: "pre-release", input: "1.0.0-beta", wantErr: true},
		{name: "build metadata", input: "1.0.0+git", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && v.String() != tt.input {
				t.Errorf("String() = %q, want %q", v.String(), tt.input)
			}
		})
	}
}

func TestVersion_CompareIsNumeric(t *testing.T) {
	if MustParseVersion("1.10.0").Compare(MustParseVersion("1.2.0")) <= 0 {
		t.Error("1.10.0 should sort after 1.2.0")
	}
	if MustParseVersion("2.0.0").Compare(MustParseVersion("1.99.99")) <= 0 {
		t.Error("2.0.0 should sort after 1.99.99")
	}
	if MustParseVersion("1.0.1").Compare(MustParseVersion("1.0.1")) != 0 {
		t.Error("equal versions should compare 0")
	}
}

func TestPlatform_InstallerScript(t *testing.T) {
	want := map[Platform]string{
		PlatformLinux:   "install.sh",
		PlatformDarwin:  "install_macosx.sh",
		PlatformWindows: "install_windows.sh",
	}
	for p, script := range want {
		if got := p.InstallerScript(); got != script {
			t.Errorf("%s.InstallerScript() = %q, want %q", p, got, script)
		}
	}
	if Platform("solaris").Valid() {
		t.Error("solaris should not be valid")
	}
}

func TestCatalog_SortedAndNamed(t *testing.T) {
	entries := []*BenchmarkEntry{
		{Name: "x264", Version: MustParseVersion("2.0.0"), Platform: PlatformLinux},
		{Name: "astcenc", Version: MustParseVersion("1.10.0"), Platform: PlatformLinux},
		{Name: "astcenc", Version: MustParseVersion("1.2.0"), Platform: PlatformDarwin},
		{Name: "astcenc", Version: MustParseVersion("1.2.0"), Platform: PlatformLinux},
	}

	c := NewCatalog(entries)
	got := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		got = append(got, e.String())
	}

	want := []string{
		"astcenc @ 1.2.0 [darwin]",
		"astcenc @ 1.2.0 [linux]",
		"astcenc @ 1.10.0 [linux]",
		"x264 @ 2.0.0 [linux]",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	if n := len(c.Named("ASTCENC")); n != 3 {
		t.Errorf("Named(ASTCENC) = %d entries, want 3", n)
	}
	if n := len(FilterByPlatform(c.Named("astcenc"), PlatformDarwin)); n != 1 {
		t.Errorf("darwin astcenc entries = %d, want 1", n)
	}

	// Mutating the returned slice must not affect the catalog
	all := c.Entries()
	all[0] = nil
	if c.Entries()[0] == nil {
		t.Error("catalog was mutated through Entries()")
	}
}

func TestErrors_Kinds(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		kind error
		text string
	}{
		{
			name: "version not found",
			err: &VersionNotFoundError{
				Name: "astcenc", Platform: PlatformDarwin, Requested: "9.9.9",
				Available: []string{"1.0.0", "1.2.0"},
			},
			kind: ErrVersionNotFound,
			text: "available versions: 1.0.0, 1.2.0",
		},
		{
			name: "asset unavailable",
			err:  &AssetUnavailableError{Asset: "astc.tar.gz", Err: cause},
			kind: ErrAssetUnavailable,
			text: "astc.tar.gz",
		},
		{
			name: "conversion failed",
			err:  &ConversionFailedError{Dest: "/tmp/out", Err: cause},
			kind: ErrConversionFailed,
			text: "connection refused",
		},
		{
			name: "malformed definition",
			err:  &MalformedDefinitionError{Definition: "astcenc-1.0.0", Reason: "missing title"},
			kind: ErrMalformedDefinition,
			text: "missing title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.text) {
				t.Errorf("Error() = %q, want substring %q", tt.err.Error(), tt.text)
			}
		})
	}

	if !errors.Is(&AssetUnavailableError{Asset: "a", Err: cause}, cause) {
		t.Error("AssetUnavailableError should unwrap to its cause")
	}
}
