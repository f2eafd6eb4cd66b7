package gateways

import (
	"context"
	"fmt"

	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/gpg"
)

// SnapshotSignatureVerifier wraps the external OpenPGP adapter to implement gateways.SnapshotVerifier
type SnapshotSignatureVerifier struct {
	verifier     *gpg.Verifier
	signatureURL string
}

// NewSnapshotSignatureVerifier loads keyringPath and checks snapshots against signatureURL
func NewSnapshotSignatureVerifier(keyringPath, signatureURL string, logger interfaces.Logger) (*SnapshotSignatureVerifier, error) {
	v := gpg.NewVerifier()
	if err := v.ImportKeyFromFile(keyringPath); err != nil {
		return nil, fmt.Errorf("failed to import OpenPGP keyring: %w", err)
	}
	interfaces.OrNoOp(logger).Debug("OpenPGP keyring loaded",
		interfaces.F("keyring", keyringPath),
		interfaces.F("keys", v.KeyringSize()))
	return &SnapshotSignatureVerifier{
		verifier:     v,
		signatureURL: signatureURL,
	}, nil
}

// VerifySnapshot checks the detached signature of archivePath
func (g *SnapshotSignatureVerifier) VerifySnapshot(ctx context.Context, archivePath string) error {
	if err := g.verifier.Verify(ctx, archivePath, g.signatureURL); err != nil {
		return fmt.Errorf("origin snapshot signature verification failed: %w", err)
	}
	return nil
}
