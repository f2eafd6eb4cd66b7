// Package main provides the phoronix-converter CLI, which turns Phoronix Test Suite
// test profiles into Open ForBC benchmarks.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openforbc/phoronix-converter/internal/domain-adapters/gateways"
	"github.com/openforbc/phoronix-converter/internal/domain/entities"
	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/logging"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/testprofile"
	"github.com/openforbc/phoronix-converter/internal/external-adapters/yaml"
)

// envFile is read from the working directory before the configuration is resolved
const envFile = ".env"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand shares once flags are parsed
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    entities.Config
	logger *logging.Logger
}

// run executes the CLI with args and releases the log output afterwards
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a, stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "phoronix-converter",
		Short: "Convert Phoronix Test Suite benchmarks to Open ForBC benchmarks",
		Long: `phoronix-converter lists the benchmarks published by the Phoronix Test Suite
and materializes them as ready-to-run Open ForBC benchmark directories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the configuration file (default: user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(
		newListCmd(a),
		newInstallCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup resolves configuration and logging for the command about to run
func (a *app) setup(cmd *cobra.Command) error {
	var output io.Writer
	if os.Getenv(logging.EnvLogPath) == "" {
		output = cmd.ErrOrStderr()
	}
	a.logger = logging.New(logging.Options{
		Level:  a.logLevel,
		JSON:   a.logJSON,
		Output: output,
	})

	cfg, err := yaml.NewConfigLoader(envFile).Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("Configuration loaded",
		interfaces.F("cache_dir", cfg.CacheDir),
		interfaces.F("install_dir", cfg.InstallDir),
		interfaces.F("origin", originLabel(cfg.Origin)))
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// pipeline is the set of adapters a command works with
type pipeline struct {
	catalog *testprofile.CatalogRepository
	fetcher *gateways.AssetFetcher
}

// newPipeline wires the origin, catalog and asset fetcher from the resolved configuration
func (a *app) newPipeline(refresh bool) (*pipeline, error) {
	downloader := gateways.NewDownloader(a.cfg.Fetch.UserAgent, a.cfg.Fetch.Timeout, a.logger.Named("download"))

	origin := gateways.NewOriginFetcher(a.cfg.Origin, a.cfg.CacheDir, downloader, a.logger.Named("origin")).
		WithRefresh(refresh)
	if a.cfg.Origin.Repository != "" {
		origin.WithRevisionSource(gateways.NewRevisionFetcher(a.cfg.Origin.Repository, a.cfg.Origin.Branch, a.cfg.Fetch.UserAgent))
	}
	if a.cfg.Origin.SignatureURL != "" {
		verifier, err := gateways.NewSnapshotSignatureVerifier(a.cfg.Origin.Keyring, a.cfg.Origin.SignatureURL, a.logger.Named("gpg"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entities.ErrOriginUnavailable, err)
		}
		origin.WithVerifier(verifier)
	}

	fetcher := gateways.NewAssetFetcher(
		downloader,
		filepath.Join(a.cfg.CacheDir, "downloads"),
		a.cfg.Fetch.Concurrency,
		a.logger.Named("fetch"),
	).WithStagingRoot(filepath.Join(a.cfg.CacheDir, "staging"))

	return &pipeline{
		catalog: testprofile.NewCatalogRepository(origin, a.logger.Named("catalog")),
		fetcher: fetcher,
	}, nil
}

func originLabel(o entities.OriginConfig) string {
	if o.Path != "" {
		return o.Path
	}
	return o.ArchiveURL
}
