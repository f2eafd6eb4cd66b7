package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces/gateways"
)

// Layout of the origin cache under <cache_dir>/origin
const (
	originDirName    = "origin"
	profilesDirName  = "profiles"
	revisionFileName = "REVISION"
	lockFileName     = "origin.lock"
	snapshotFileName = "snapshot.tar.gz"
)

// OriginFetcher implements gateways.OriginSource. It either points at an existing
// checkout or keeps a sparse snapshot of the upstream test profiles in the cache.
type OriginFetcher struct {
	cfg        entities.OriginConfig
	cacheDir   string
	downloader *Downloader
	checksums  *ChecksumVerifier
	verifier   gateways.SnapshotVerifier
	revisions  gateways.RevisionSource
	refresh    bool
	logger     interfaces.Logger
}

// NewOriginFetcher creates an origin source for cfg caching under cacheDir
func NewOriginFetcher(cfg entities.OriginConfig, cacheDir string, downloader *Downloader, logger interfaces.Logger) *OriginFetcher {
	return &OriginFetcher{
		cfg:        cfg,
		cacheDir:   cacheDir,
		downloader: downloader,
		checksums:  NewChecksumVerifier(),
		logger:     interfaces.OrNoOp(logger),
	}
}

// WithVerifier checks every downloaded snapshot with v
func (o *OriginFetcher) WithVerifier(v gateways.SnapshotVerifier) *OriginFetcher {
	o.verifier = v
	return o
}

// WithRevisionSource sets the revision source used to decide whether a refresh is needed
func (o *OriginFetcher) WithRevisionSource(r gateways.RevisionSource) *OriginFetcher {
	o.revisions = r
	return o
}

// WithRefresh makes Setup compare the cached snapshot with upstream
func (o *OriginFetcher) WithRefresh(refresh bool) *OriginFetcher {
	o.refresh = refresh
	return o
}

// Setup returns the test-profile root, downloading the snapshot when the cache is empty
func (o *OriginFetcher) Setup(ctx context.Context) (string, error) {
	if o.cfg.Path != "" {
		return o.localRoot()
	}

	if err := os.MkdirAll(o.cacheDir, 0750); err != nil {
		return "", fmt.Errorf("%w: failed to create cache directory: %v", entities.ErrOriginUnavailable, err)
	}

	lock := flock.New(filepath.Join(o.cacheDir, lockFileName))
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("%w: failed to lock origin cache: %v", entities.ErrOriginUnavailable, err)
	}
	if !locked {
		return "", fmt.Errorf("%w: origin cache is locked by another process", entities.ErrOriginUnavailable)
	}
	//nolint:errcheck // Best effort unlock
	defer lock.Unlock()

	originDir := filepath.Join(o.cacheDir, originDirName)
	profilesDir := filepath.Join(originDir, profilesDirName)
	current := o.currentRevision(originDir)

	latest := ""
	if current != "" && isDir(profilesDir) {
		if !o.refresh {
			o.logger.Info("Origin already set up.")
			return profilesDir, nil
		}
		latest = o.latestRevision(ctx)
		if latest == "" || latest == current {
			o.logger.Info("Origin already set up.")
			return profilesDir, nil
		}
		o.logger.Info("Origin changed upstream, refreshing",
			interfaces.F("current", current), interfaces.F("latest", latest))
	} else {
		latest = o.latestRevision(ctx)
	}

	if err := o.fetchSnapshot(ctx, originDir, profilesDir, latest); err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrOriginUnavailable, err)
	}
	return profilesDir, nil
}

func (o *OriginFetcher) localRoot() (string, error) {
	root := filepath.Join(o.cfg.Path, filepath.FromSlash(o.cfg.ProfilesPath))
	if !isDir(root) {
		return "", fmt.Errorf("%w: %s is not a directory", entities.ErrOriginUnavailable, root)
	}
	o.logger.Info("Origin already set up.", interfaces.F("root", root))
	return root, nil
}

func (o *OriginFetcher) currentRevision(originDir string) string {
	//nolint:gosec // G304: revision file lives in the cache directory
	data, err := os.ReadFile(filepath.Join(originDir, revisionFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// latestRevision returns "" when the revision source is unavailable or fails
func (o *OriginFetcher) latestRevision(ctx context.Context) string {
	if o.revisions == nil {
		return ""
	}
	rev, err := o.revisions.LatestRevision(ctx)
	if err != nil {
		o.logger.Warn("Could not check upstream revision, keeping cached origin", interfaces.F("error", err))
		return ""
	}
	return rev
}

// fetchSnapshot downloads, verifies and extracts the snapshot, then swaps it into profilesDir
func (o *OriginFetcher) fetchSnapshot(ctx context.Context, originDir, profilesDir, revision string) error {
	if o.cfg.ArchiveURL == "" {
		return fmt.Errorf("no origin archive URL configured")
	}
	if err := os.MkdirAll(originDir, 0750); err != nil {
		return fmt.Errorf("failed to create origin directory: %w", err)
	}

	archive := filepath.Join(originDir, snapshotFileName)
	defer func() { _ = os.Remove(archive) }()

	o.logger.Info("Downloading origin snapshot", interfaces.F("url", o.cfg.ArchiveURL))
	if _, err := o.downloader.DownloadFile(ctx, o.cfg.ArchiveURL, archive); err != nil {
		return fmt.Errorf("failed to download origin snapshot: %w", err)
	}

	if o.verifier != nil {
		if err := o.verifier.VerifySnapshot(ctx, archive); err != nil {
			return err
		}
		o.logger.Info("Origin snapshot signature verified")
	}

	staging, err := os.MkdirTemp(originDir, profilesDirName+"-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	files, err := o.downloader.ExtractTarGz(archive, staging, o.cfg.ProfilesPath)
	if err != nil {
		return fmt.Errorf("failed to extract origin snapshot: %w", err)
	}
	if files == 0 {
		return fmt.Errorf("snapshot has no test profiles under %s", o.cfg.ProfilesPath)
	}

	if revision == "" {
		sum, err := o.checksums.CalculateChecksum(archive)
		if err != nil {
			return err
		}
		revision = "sha256:" + sum
	}

	if err := os.RemoveAll(profilesDir); err != nil {
		return fmt.Errorf("failed to remove previous origin: %w", err)
	}
	if err := os.Rename(staging, profilesDir); err != nil {
		return fmt.Errorf("failed to move origin into place: %w", err)
	}
	if err := os.WriteFile(filepath.Join(originDir, revisionFileName), []byte(revision+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to record origin revision: %w", err)
	}

	o.logger.Info("Origin set up", interfaces.F("files", files), interfaces.F("revision", revision))
	return nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
