package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
)

// maxExtractedFileSize caps a single archive member to prevent decompression bombs
var maxExtractedFileSize int64 = 1 << 30

// Downloader fetches files over HTTP and unpacks upstream snapshots
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(userAgent string, timeout time.Duration, logger interfaces.Logger) *Downloader {
	if timeout <= 0 {
		timeout = entities.DefaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = entities.DefaultUserAgent
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    interfaces.OrNoOp(logger),
	}
}

// DownloadFile downloads url to dest with a single request; callers fall back to other mirrors.
// The file only appears at dest once complete.
func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	partial := dest + ".part"
	//nolint:gosec // G304: partial is derived from the download destination
	out, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Info("Downloaded",
		interfaces.F("file", filepath.Base(dest)),
		interfaces.F("size", humanize.Bytes(uint64(written))), //nolint:gosec // G115: written is never negative
	)
	return written, nil
}

// ExtractTarGz extracts the members of a GitHub-style snapshot archive found under subtree.
// The archive's top-level directory is stripped and subtree is removed from member paths,
// so <top>/<subtree>/x lands at destDir/x. Returns the number of regular files written.
func (d *Downloader) ExtractTarGz(tarPath, destDir, subtree string) (int, error) {
	//nolint:gosec // G304: File path tarPath is function parameter for extraction
	file, err := os.Open(tarPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open tar.gz: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}
	cleanDest := filepath.Clean(destDir)

	prefix := strings.Trim(path.Clean("/"+subtree), "/")
	if prefix != "" {
		prefix += "/"
	}

	files := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, fmt.Errorf("tar read error: %w", err)
		}

		rel, ok := stripSnapshotPath(header.Name, prefix)
		if !ok {
			continue
		}

		//nolint:gosec // G305: Path traversal validated by the prefix check below
		target := filepath.Join(cleanDest, filepath.FromSlash(rel))
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return files, fmt.Errorf("invalid file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return files, fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if header.Size > maxExtractedFileSize {
				//nolint:gosec // G115: the limit is positive
				return files, fmt.Errorf("archive member %s exceeds %s", header.Name, humanize.Bytes(uint64(maxExtractedFileSize)))
			}
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return files, fmt.Errorf("failed to create parent directory: %w", err)
			}

			mode := os.FileMode(0640)
			if header.Mode&0111 != 0 {
				mode = 0750
			}
			//nolint:gosec // G304: target is validated to stay inside destDir
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return files, fmt.Errorf("failed to create file: %w", err)
			}

			if _, err := io.CopyN(outFile, tr, header.Size); err != nil {
				_ = outFile.Close()
				return files, fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return files, fmt.Errorf("failed to close file: %w", err)
			}
			files++

		default:
			// Test profiles are plain files; links and devices are never needed
			d.logger.Debug("Ignoring archive member", interfaces.F("name", header.Name), interfaces.F("type", string(header.Typeflag)))
		}
	}

	return files, nil
}

// stripSnapshotPath drops the archive's top-level directory and the subtree prefix
func stripSnapshotPath(name, prefix string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	i := strings.Index(name, "/")
	if i < 0 {
		return "", false
	}
	name = name[i+1:]
	if prefix != "" {
		if !strings.HasPrefix(name, prefix) {
			return "", false
		}
		name = strings.TrimPrefix(name, prefix)
	}
	if name == "" {
		return "", false
	}
	return name, true
}
