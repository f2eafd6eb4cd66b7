package gateways

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func init() {
	initialBackoff = time.Millisecond
}

// tarEntry describes one member of a generated archive
type tarEntry struct {
	Name     string
	Body     string
	Mode     int64
	Typeflag byte
	Linkname string
}

// buildTarGz returns a gzip-compressed tar archive of entries
func buildTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     e.Mode,
			Size:     int64(len(e.Body)),
			Typeflag: e.Typeflag,
			Linkname: e.Linkname,
		}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		if hdr.Typeflag != tar.TypeReg {
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("Failed to write tar body: %v", err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// snapshotArchive builds a repository snapshot holding one astcenc test profile
func snapshotArchive(t *testing.T) []byte {
	t.Helper()
	return buildTarGz(t, []tarEntry{
		{Name: "phoronix-test-suite-master/", Typeflag: tar.TypeDir, Mode: 0755},
		{Name: "phoronix-test-suite-master/README.md", Body: "# PTS"},
		{Name: "phoronix-test-suite-master/ob-cache/test-profiles/pts/astcenc-1.2.0/test-definition.xml", Body: "<PhoronixTestSuite/>"},
		{Name: "phoronix-test-suite-master/ob-cache/test-profiles/pts/astcenc-1.2.0/install.sh", Body: "#!/bin/sh\n", Mode: 0755},
		{Name: "phoronix-test-suite-master/ob-cache/test-profiles/local/private-1.0.0/install.sh", Body: "#!/bin/sh\n"},
		{Name: "phoronix-test-suite-master/ob-cache/test-profiles/pts/astcenc-1.2.0/link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"},
	})
}

// listFiles returns every regular file under dir as slash-separated relative paths
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk %s: %v", dir, err)
	}
	sort.Strings(files)
	return files
}
