package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	orchestrators "github.com/openforbc/phoronix-converter/internal/domain-orchestrators"
	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/services"
)

// listedBenchmark is one row of `list --output json`
type listedBenchmark struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Title    string `json:"title,omitempty"`
}

func newListCmd(a *app) *cobra.Command {
	var (
		platform string
		output   string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "list [name]",
		Short: "List available benchmarks and versions",
		Long: `List the benchmarks available for a platform, sorted by name then version.
The platform defaults to the host's.`,
		Example: `  phoronix-converter list
  phoronix-converter list astcenc
  phoronix-converter list -p darwin --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output format %q, expected text or json", output)
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			p, err := a.newPipeline(refresh)
			if err != nil {
				return err
			}
			lister := orchestrators.NewListOrchestrator(p.catalog, services.NewPlatformResolver())

			entries, err := lister.List(cmd.Context(), name, platform)
			if err != nil {
				return err
			}

			if output == "json" {
				return writeListJSON(cmd, entries)
			}
			writeListText(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform to list for (darwin, linux, windows)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the origin when upstream changed")
	return cmd
}

func writeListText(cmd *cobra.Command, entries []*entities.BenchmarkEntry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No benchmarks found")
		return
	}

	fmt.Fprintf(out, "Available benchmarks (%d total):\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  %-36s %-10s %s\n", e.Name, e.Version, e.Platform)
	}
}

func writeListJSON(cmd *cobra.Command, entries []*entities.BenchmarkEntry) error {
	rows := make([]listedBenchmark, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, listedBenchmark{
			Name:     e.Name,
			Version:  e.Version.String(),
			Platform: e.Platform.String(),
			Title:    e.Title,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
