// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// PlatformResolver maps host identity or a user flag to a platform tag
type PlatformResolver struct {
	hostOS string
}

// NewPlatformResolver creates a resolver for the running host
func NewPlatformResolver() *PlatformResolver {
	return &PlatformResolver{hostOS: runtime.GOOS}
}

// NewPlatformResolverForHost creates a resolver that pretends to run on goos
func NewPlatformResolverForHost(goos string) *PlatformResolver {
	return &PlatformResolver{hostOS: goos}
}

// Resolve returns the platform named by flag, or the host platform when flag is empty
func (r *PlatformResolver) Resolve(flag string) (entities.Platform, error) {
	if flag == "" {
		p := entities.Platform(r.hostOS)
		if !p.Valid() {
			return "", fmt.Errorf("%w: host operating system %q", entities.ErrUnsupportedPlatform, r.hostOS)
		}
		return p, nil
	}

	p := entities.Platform(strings.ToLower(strings.TrimSpace(flag)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q, expected one of %s",
			entities.ErrInvalidPlatform, flag, platformList())
	}
	return p, nil
}

func platformList() string {
	names := make([]string, 0, len(entities.SupportedPlatforms))
	for _, p := range entities.SupportedPlatforms {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
