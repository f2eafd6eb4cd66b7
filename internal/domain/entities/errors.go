package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to the command line. Match them with errors.Is.
var (
	ErrOriginUnavailable   = errors.New("origin unavailable")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrInvalidPlatform     = errors.New("invalid platform")
	ErrBenchmarkNotFound   = errors.New("benchmark not found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrMalformedDefinition = errors.New("malformed definition")
	ErrAssetUnavailable    = errors.New("asset unavailable")
	ErrConversionFailed    = errors.New("conversion failed")
)

// VersionNotFoundError lists the versions that do exist for the requested name and platform
type VersionNotFoundError struct {
	Name      string
	Platform  Platform
	Requested string
	Available []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("benchmark %s @ %s doesn't exist for %s, available versions: %s",
		e.Name, e.Requested, e.Platform, strings.Join(e.Available, ", "))
}

// Unwrap returns ErrVersionNotFound
func (e *VersionNotFoundError) Unwrap() error {
	return ErrVersionNotFound
}

// MalformedDefinitionError names the definition and the missing or broken field
type MalformedDefinitionError struct {
	Definition string
	Reason     string
}

func (e *MalformedDefinitionError) Error() string {
	return fmt.Sprintf("malformed definition %s: %s", e.Definition, e.Reason)
}

// Unwrap returns ErrMalformedDefinition
func (e *MalformedDefinitionError) Unwrap() error {
	return ErrMalformedDefinition
}

// AssetUnavailableError names the asset that could not be staged
type AssetUnavailableError struct {
	Asset string
	Err   error
}

func (e *AssetUnavailableError) Error() string {
	return fmt.Sprintf("asset %s unavailable: %v", e.Asset, e.Err)
}

// Unwrap exposes both the kind and the underlying cause
func (e *AssetUnavailableError) Unwrap() []error {
	return []error{ErrAssetUnavailable, e.Err}
}

// ConversionFailedError wraps the I/O cause of a failed conversion
type ConversionFailedError struct {
	Dest string
	Err  error
}

func (e *ConversionFailedError) Error() string {
	return fmt.Sprintf("conversion into %s failed: %v", e.Dest, e.Err)
}

// Unwrap exposes both the kind and the underlying cause
func (e *ConversionFailedError) Unwrap() []error {
	return []error{ErrConversionFailed, e.Err}
}
