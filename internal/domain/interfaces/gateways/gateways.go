// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// OriginSource makes the upstream test profiles available on the local filesystem
type OriginSource interface {
	// Setup fetches or refreshes the origin and returns the test-profile root directory
	Setup(ctx context.Context) (string, error)
}

// DefinitionParser reads one upstream definition into the normalized form
type DefinitionParser interface {
	Parse(entry *entities.BenchmarkEntry) (*entities.NormalizedDefinition, error)
}

// AssetFetcher stages every asset a definition references
type AssetFetcher interface {
	Fetch(ctx context.Context, def *entities.NormalizedDefinition) (*entities.StagedAssets, error)
}

// FormatConverter materializes a definition and its staged assets at dest
type FormatConverter interface {
	Convert(ctx context.Context, def *entities.NormalizedDefinition, assets *entities.StagedAssets, dest string) (*entities.ConvertedBenchmark, error)
}

// SnapshotVerifier checks the authenticity of a downloaded origin snapshot
type SnapshotVerifier interface {
	VerifySnapshot(ctx context.Context, archivePath string) error
}

// RevisionSource reports the current upstream revision of the origin
type RevisionSource interface {
	LatestRevision(ctx context.Context) (string, error)
}
