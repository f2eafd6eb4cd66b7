package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
)

// AssetFetcher implements gateways.AssetFetcher. Remote packages are fetched in parallel
// with mirror fallback and kept in a download cache; local files are copied.
type AssetFetcher struct {
	downloader  *Downloader
	checksums   *ChecksumVerifier
	cacheDir    string
	stagingRoot string
	concurrency int
	logger      interfaces.Logger
}

// NewAssetFetcher creates a fetcher. An empty cacheDir disables the download cache.
func NewAssetFetcher(downloader *Downloader, cacheDir string, concurrency int, logger interfaces.Logger) *AssetFetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AssetFetcher{
		downloader:  downloader,
		checksums:   NewChecksumVerifier(),
		cacheDir:    cacheDir,
		concurrency: concurrency,
		logger:      interfaces.OrNoOp(logger),
	}
}

// WithStagingRoot creates staging directories under dir instead of the system temp dir
func (f *AssetFetcher) WithStagingRoot(dir string) *AssetFetcher {
	f.stagingRoot = dir
	return f
}

// Fetch stages every asset of def into a fresh directory.
// On any failure the staging directory is removed and nothing is returned.
func (f *AssetFetcher) Fetch(ctx context.Context, def *entities.NormalizedDefinition) (*entities.StagedAssets, error) {
	if f.stagingRoot != "" {
		if err := os.MkdirAll(f.stagingRoot, 0750); err != nil {
			return nil, fmt.Errorf("failed to create staging root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(f.stagingRoot, fmt.Sprintf("stage-%s-%s-", def.Name, def.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	staged := entities.NewStagedAssets(dir)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, asset := range def.Assets {
		asset := asset
		g.Go(func() error {
			path, err := f.stage(gctx, dir, asset)
			if err != nil {
				return &entities.AssetUnavailableError{Asset: asset.Name, Err: err}
			}
			mu.Lock()
			staged.Files[asset.Name] = path
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if discardErr := staged.Discard(); discardErr != nil {
			f.logger.Warn("Failed to remove staging directory", interfaces.F("dir", dir), interfaces.F("error", discardErr))
		}
		return nil, err
	}

	f.logger.Debug("Assets staged", interfaces.F("benchmark", def.Name), interfaces.F("count", len(staged.Files)))
	return staged, nil
}

func (f *AssetFetcher) stage(ctx context.Context, dir string, asset entities.AssetRef) (string, error) {
	dest := filepath.Join(dir, filepath.FromSlash(asset.Name))
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if asset.LocalPath != "" {
		if err := copyFile(asset.LocalPath, dest, fileMode(asset.Executable)); err != nil {
			return "", err
		}
		return dest, nil
	}
	if !asset.Remote() {
		return "", fmt.Errorf("asset has neither a local file nor a URL")
	}

	if f.fromCache(asset, dest) {
		return dest, nil
	}

	var errs []error
	for _, url := range asset.URLs {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if _, err := f.downloader.DownloadFile(ctx, url, dest); err != nil {
			f.logger.Warn("Mirror failed", interfaces.F("asset", asset.Name), interfaces.F("url", url), interfaces.F("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}

		verified, err := f.checksums.Verify(dest, asset)
		if err != nil {
			_ = os.Remove(dest)
			f.logger.Warn("Mirror served a bad file", interfaces.F("asset", asset.Name), interfaces.F("url", url), interfaces.F("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		if !verified {
			f.logger.Warn("Download has no checksum or size to verify", interfaces.F("asset", asset.Name))
		} else {
			f.toCache(asset, dest)
		}

		if err := os.Chmod(dest, fileMode(asset.Executable)); err != nil {
			return "", fmt.Errorf("failed to set file mode: %w", err)
		}
		return dest, nil
	}

	return "", fmt.Errorf("all %d mirrors failed: %w", len(asset.URLs), errors.Join(errs...))
}

// fromCache copies a previously verified download into dest when it still verifies
func (f *AssetFetcher) fromCache(asset entities.AssetRef, dest string) bool {
	if f.cacheDir == "" {
		return false
	}
	cached := filepath.Join(f.cacheDir, asset.Name)
	if _, err := os.Stat(cached); err != nil {
		return false
	}

	verified, err := f.checksums.Verify(cached, asset)
	if !verified || err != nil {
		f.logger.Debug("Discarding stale cached download", interfaces.F("asset", asset.Name), interfaces.F("error", err))
		_ = os.Remove(cached)
		return false
	}

	if err := copyFile(cached, dest, fileMode(asset.Executable)); err != nil {
		f.logger.Warn("Failed to reuse cached download", interfaces.F("asset", asset.Name), interfaces.F("error", err))
		return false
	}
	f.logger.Info("Using cached download", interfaces.F("asset", asset.Name))
	return true
}

// toCache keeps a verified download for later installs; failures only cost a re-download
func (f *AssetFetcher) toCache(asset entities.AssetRef, src string) {
	if f.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(f.cacheDir, 0750); err != nil {
		f.logger.Debug("Download cache unavailable", interfaces.F("error", err))
		return
	}
	if err := copyFile(src, filepath.Join(f.cacheDir, asset.Name), 0640); err != nil {
		f.logger.Debug("Failed to cache download", interfaces.F("asset", asset.Name), interfaces.F("error", err))
	}
}

func fileMode(executable bool) os.FileMode {
	if executable {
		return 0750
	}
	return 0640
}

// copyFile copies src to dst through a temporary file in dst's directory
func copyFile(src, dst string, mode os.FileMode) error {
	//nolint:gosec // G304: src is a definition file or cached download
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = io.Copy(tmp, in)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, mode)
	}
	if err == nil {
		err = os.Rename(tmpName, dst)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err)
	}
	return nil
}
