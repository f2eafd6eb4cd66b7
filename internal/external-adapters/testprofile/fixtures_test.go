package testprofile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const astcencDefinition = `<?xml version="1.0"?>
<PhoronixTestSuite>
  <TestInformation>
    <Title>ASTC Encoder</Title>
    <AppVersion>2.0</AppVersion>
    <Description>ASTC Encoder (astcenc) is for the Adaptive Scalable Texture Compression format.</Description>
    <ResultScale>Seconds</ResultScale>
    <Proportion>LIB</Proportion>
    <TimesToRun>3</TimesToRun>
  </TestInformation>
  <TestProfile>
    <Version>1.2.0</Version>
    <SupportedPlatforms>Linux, MacOSX, Windows</SupportedPlatforms>
  </TestProfile>
  <TestSettings>
    <Option>
      <DisplayName>Preset</DisplayName>
      <Identifier>preset</Identifier>
      <Menu>
        <Entry>
          <Name>Fast</Name>
          <Value>-fast</Value>
        </Entry>
        <Entry>
          <Name>Medium</Name>
          <Value>-medium</Value>
        </Entry>
        <Entry>
          <Name>Thorough</Name>
          <Value>-thorough</Value>
        </Entry>
        <Entry>
          <Name>Exhaustive</Name>
          <Value>-exhaustive</Value>
        </Entry>
      </Menu>
    </Option>
  </TestSettings>
</PhoronixTestSuite>
`

const astcencResults = `<?xml version="1.0"?>
<PhoronixTestSuite>
  <ResultsParser>
    <OutputTemplate>Coding time:  #_RESULT_# s</OutputTemplate>
    <LineHint>Coding time</LineHint>
  </ResultsParser>
</PhoronixTestSuite>
`

const astcencDownloads = `<?xml version="1.0"?>
<PhoronixTestSuite>
  <Downloads>
    <Package>
      <URL>https://example.com/astcenc-2.0.tar.gz, https://mirror.example.com/astcenc-2.0.tar.gz</URL>
      <MD5>54202a002878e4d0877e6e84c54202a0</MD5>
      <FileName>astcenc-2.0.tar.gz</FileName>
      <FileSize>1024</FileSize>
    </Package>
    <Package>
      <URL>https://example.com/astcenc-2.0-windows.zip</URL>
      <SHA256>9810C8FD3AFD35B4755C2A46F14FC66E2B9199C22E46A5946123C9250F2D1CCD</SHA256>
      <FileName>astcenc-2.0-windows.zip</FileName>
      <PlatformSpecific>Windows</PlatformSpecific>
    </Package>
    <Package>
      <URL>https://example.com/astcenc-2.0-macos.zip</URL>
      <FileName>astcenc-2.0-macos.zip</FileName>
      <PlatformSpecific>MacOSX</PlatformSpecific>
    </Package>
  </Downloads>
</PhoronixTestSuite>
`

// writeFiles writes files relative to dir, creating parents
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// writeAstcenc writes an astcenc profile with installers for the given scripts
func writeAstcenc(t *testing.T, root, version string, installers ...string) string {
	t.Helper()
	dir := filepath.Join(root, "astcenc-"+version)
	files := map[string]string{
		TestDefinitionFile:    astcencDefinition,
		ResultsDefinitionFile: astcencResults,
		DownloadsFile:         astcencDownloads,
	}
	for _, script := range installers {
		files[script] = "#!/bin/sh\ntar -xf astcenc-2.0.tar.gz\n"
	}
	writeFiles(t, dir, files)
	return dir
}

// staticOrigin is an origin that is already on disk
type staticOrigin struct {
	root  string
	err   error
	calls int
}

func (s *staticOrigin) Setup(_ context.Context) (string, error) {
	s.calls++
	return s.root, s.err
}
