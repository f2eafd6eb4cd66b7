package gateways

import (
	"crypto/md5" //nolint:gosec // G501: upstream download descriptors publish MD5 sums
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// ChecksumVerifier checks downloaded files against the sums in a download descriptor
type ChecksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
func NewChecksumVerifier() *ChecksumVerifier {
	return &ChecksumVerifier{}
}

// Verify checks filePath against the strongest evidence the asset declares:
// MD5 first, then SHA256, then size. It reports false when the asset declares none.
func (v *ChecksumVerifier) Verify(filePath string, asset entities.AssetRef) (bool, error) {
	switch {
	case asset.MD5 != "":
		//nolint:gosec // G401: MD5 is what the descriptor provides
		return true, v.compare(filePath, md5.New(), asset.MD5)
	case asset.SHA256 != "":
		return true, v.compare(filePath, sha256.New(), asset.SHA256)
	case asset.Size > 0:
		info, err := os.Stat(filePath)
		if err != nil {
			return true, fmt.Errorf("failed to stat file: %w", err)
		}
		if info.Size() != asset.Size {
			return true, fmt.Errorf("size mismatch: expected %d, got %d", asset.Size, info.Size())
		}
		return true, nil
	default:
		return false, nil
	}
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *ChecksumVerifier) CalculateChecksum(filePath string) (string, error) {
	return hashFile(filePath, sha256.New())
}

func (v *ChecksumVerifier) compare(filePath string, h hash.Hash, expectedSum string) error {
	actualSum, err := hashFile(filePath, h)
	if err != nil {
		return err
	}
	if actualSum != expectedSum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}
	return nil
}

func hashFile(filePath string, h hash.Hash) (string, error) {
	//nolint:gosec // G304: File path is a staged download
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
