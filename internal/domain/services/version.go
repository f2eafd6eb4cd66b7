package services

import (
	"fmt"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
)

// VersionResolution is the outcome of picking a concrete entry
type VersionResolution struct {
	Entry     *entities.BenchmarkEntry
	Defaulted bool // true when no version was requested and the latest was chosen
}

// Message returns the signal shown to the user for this decision
func (r *VersionResolution) Message() string {
	if r.Defaulted {
		return fmt.Sprintf("Benchmark version not specified, defaulting to latest (%s)", r.Entry.Version)
	}
	return fmt.Sprintf("Selected benchmark version: %s", r.Entry.Version)
}

// VersionResolver picks one entry among the versions of a benchmark on one platform
type VersionResolver struct{}

// NewVersionResolver creates a new version resolver
func NewVersionResolver() *VersionResolver {
	return &VersionResolver{}
}

// Resolve selects the latest entry when requested is empty, the exact match otherwise.
// All entries are expected to share name and platform.
func (r *VersionResolver) Resolve(entries []*entities.BenchmarkEntry, requested string) (*VersionResolution, error) {
	if len(entries) == 0 {
		return nil, entities.ErrBenchmarkNotFound
	}

	if requested == "" {
		latest, err := r.latest(entries)
		if err != nil {
			return nil, err
		}
		return &VersionResolution{Entry: latest, Defaulted: true}, nil
	}

	for _, e := range entries {
		if e.Version.String() == requested {
			return &VersionResolution{Entry: e}, nil
		}
	}

	sorted := make([]*entities.BenchmarkEntry, len(entries))
	copy(sorted, entries)
	entities.SortEntries(sorted)

	available := make([]string, 0, len(sorted))
	for _, e := range sorted {
		available = append(available, e.Version.String())
	}

	return nil, &entities.VersionNotFoundError{
		Name:      entries[0].Name,
		Platform:  entries[0].Platform,
		Requested: requested,
		Available: available,
	}
}

func (r *VersionResolver) latest(entries []*entities.BenchmarkEntry) (*entities.BenchmarkEntry, error) {
	best := entries[0]
	tied := false
	for _, e := range entries[1:] {
		switch c := e.Version.Compare(best.Version); {
		case c > 0:
			best = e
			tied = false
		case c == 0:
			tied = true
		}
	}

	if tied {
		return nil, &entities.MalformedDefinitionError{
			Definition: best.String(),
			Reason:     "catalog holds more than one entry for this version",
		}
	}
	return best, nil
}
