package orchestrators

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/services"
)

func listed(entries []*entities.BenchmarkEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out
}

func TestListOrchestrator_List(t *testing.T) {
	tests := []struct {
		name  string
		host  string
		flag  string
		bench string
		want  []string
	}{
		{
			name: "host platform",
			host: "darwin",
			want: []string{
				"astcenc @ 1.0.0 [darwin]",
				"astcenc @ 1.0.1 [darwin]",
				"astcenc @ 1.0.2 [darwin]",
				"astcenc @ 1.1.0 [darwin]",
				"astcenc @ 1.2.0 [darwin]",
			},
		},
		{
			name:  "flag overrides host and orders numerically",
			host:  "darwin",
			flag:  "LINUX",
			bench: "astcenc",
			want:  []string{
				"astcenc @ 1.0.0 [linux]",
				"astcenc @ 1.0.1 [linux]",
				"astcenc @ 1.0.2 [linux]",
				"astcenc @ 1.1.0 [linux]",
				"astcenc @ 1.2.0 [linux]",
				"astcenc @ 1.10.0 [linux]",
			},
		},
		{
			name: "sorted by name first",
			host: "linux",
			flag: "linux",
			want: []string{
				"aobench @ 1.0.0 [linux]",
				"astcenc @ 1.0.0 [linux]",
				"astcenc @ 1.0.1 [linux]",
				"astcenc @ 1.0.2 [linux]",
				"astcenc @ 1.1.0 [linux]",
				"astcenc @ 1.2.0 [linux]",
				"astcenc @ 1.10.0 [linux]",
			},
		},
		{
			name:  "name only on other platforms",
			host:  "linux",
			bench: "directx-bench",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := NewListOrchestrator(&mockCatalog{entries: astcencCatalog()}, services.NewPlatformResolverForHost(tt.host))

			got, err := orch.List(context.Background(), tt.bench, tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, listed(got))
		})
	}
}

func TestListOrchestrator_List_EveryPlatformPartitionsCatalog(t *testing.T) {
	catalog := &mockCatalog{entries: astcencCatalog()}
	orch := NewListOrchestrator(catalog, services.NewPlatformResolverForHost("linux"))

	total := 0
	for _, p := range entities.SupportedPlatforms {
		got, err := orch.List(context.Background(), "", string(p))
		require.NoError(t, err)
		for _, e := range got {
			assert.Equal(t, p, e.Platform)
		}
		total += len(got)
	}
	assert.Equal(t, len(astcencCatalog()), total)
}

func TestListOrchestrator_List_Errors(t *testing.T) {
	tests := []struct {
		name    string
		catalog *mockCatalog
		flag    string
		bench   string
		wantErr error
	}{
		{"unknown name", &mockCatalog{entries: astcencCatalog()}, "", "nope", entities.ErrBenchmarkNotFound},
		{"invalid platform", &mockCatalog{entries: astcencCatalog()}, "solaris", "", entities.ErrInvalidPlatform},
		{"origin unavailable", &mockCatalog{err: entities.ErrOriginUnavailable}, "", "", entities.ErrOriginUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := NewListOrchestrator(tt.catalog, services.NewPlatformResolverForHost("linux"))

			_, err := orch.List(context.Background(), tt.bench, tt.flag)
			assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
		})
	}
}
