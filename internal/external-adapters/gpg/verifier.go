// Package gpg provides OpenPGP detached signature verification for origin snapshots.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	armoredSignatureHeader = "-----BEGIN PGP SIGNATURE---"
	maxSignatureSize       = 10 * 1024
)

// Verifier checks detached signatures using ProtonMail's go-crypto
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ImportKeyFromFile imports an armored or binary public keyring
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is the configured keyring
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

// Verify checks filePath against a detached signature.
// sigLocation is an http(s) URL or a local file path.
func (v *Verifier) Verify(ctx context.Context, filePath, sigLocation string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no OpenPGP keys imported")
	}

	sigData, err := v.readSignature(ctx, sigLocation)
	if err != nil {
		return err
	}
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be a valid OpenPGP signature")
	}

	//nolint:gosec // G304: filePath is the downloaded snapshot
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	if bytes.HasPrefix(sigData, []byte(armoredSignatureHeader)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, f, bytes.NewReader(sigData), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, f, bytes.NewReader(sigData), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

func (v *Verifier) readSignature(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		//nolint:gosec // G304: location is the configured signature file
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open signature file: %w", err)
		}
		//nolint:errcheck // Defer close
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxSignatureSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature download request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download signature: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signature download failed with status %d", resp.StatusCode)
	}

	// Signatures are well under 1KB
	sigData, err := io.ReadAll(io.LimitReader(resp.Body, maxSignatureSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}
	return sigData, nil
}
