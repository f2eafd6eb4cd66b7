package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openforbc/phoronix-converter/internal/domain-adapters/gateways"
	orchestrators "github.com/openforbc/phoronix-converter/internal/domain-orchestrators"
	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/services"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/testprofile"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/yaml"
)

func newInstallCmd(a *app) *cobra.Command {
	var (
		platform string
		dest     string
		prefix   string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "install <name> [version]",
		Short: "Convert a benchmark into an Open ForBC benchmark directory",
		Long: `Convert a benchmark into <install-dir>/<prefix>-<name>-<version>.
Without a version the latest one available for the platform is installed.
An existing directory for the same version is replaced only when the conversion succeeds.`,
		Example: `  phoronix-converter install astcenc
  phoronix-converter install astcenc 1.2.0
  phoronix-converter install astcenc -p darwin --dest ./benchmarks`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := entities.ConversionRequest{Name: args[0], Platform: platform}
			if len(args) == 2 {
				req.Version = args[1]
			}

			cfg := a.cfg
			if dest != "" {
				cfg.InstallDir = dest
			}
			if prefix != "" {
				cfg.Prefix = prefix
			}
			if err := yaml.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			p, err := a.newPipeline(refresh)
			if err != nil {
				return err
			}
			installer := orchestrators.NewInstallOrchestrator(
				p.catalog,
				services.NewPlatformResolver(),
				services.NewVersionResolver(),
				testprofile.NewDefinitionParser(),
				p.fetcher,
				gateways.NewFormatConverter(a.logger.Named("convert")),
				orchestrators.InstallOrchestratorConfig{InstallDir: cfg.InstallDir, Prefix: cfg.Prefix},
				a.logger,
			)

			result, err := installer.Install(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform to convert for (darwin, linux, windows)")
	cmd.Flags().StringVar(&dest, "dest", "", "Directory the benchmark is installed into (overrides install_dir)")
	cmd.Flags().StringVar(&dest, "install-dir", "", "Alias of --dest")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix of the output directory name (overrides prefix)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the origin when upstream changed")
	return cmd
}
