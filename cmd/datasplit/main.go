package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/datasplit/internal/config"
	logpkg "github.com/kailas-cloud/datasplit/internal/logger"
	"github.com/kailas-cloud/datasplit/internal/version"
)

// cliFlags holds values that override the configuration file.
type cliFlags struct {
	configPath string
	envFile    string

	imagesDir   string
	labelsDir   string
	outputDir   string
	seed        int64
	train       float64
	val         float64
	test        float64
	mergePolicy string

	manifest    string
	publish     string
	publishAddr []string
	runID       string
	metricsAddr string
	textfile    string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	root := &cobra.Command{
		Use:   "datasplit",
		Short: "Class-aware train/val/test splitter for labeled image datasets",
		Long: `datasplit partitions an images/ + labels/ dataset into train, val and test
subsets so that every class keeps roughly the configured proportions.

Each class is shuffled with a fixed seed and cut 70/15/15 by default. A file
that carries several classes goes to the first split that claims it, in the
order train, val, test.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default config/<ENV>.yaml)")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the config")
	pf.StringVar(&f.imagesDir, "images", "", "input images directory")
	pf.StringVar(&f.labelsDir, "labels", "", "input annotation directory")
	pf.Int64Var(&f.seed, "seed", 42, "shuffle seed")
	pf.Float64Var(&f.train, "train", 0, "train ratio")
	pf.Float64Var(&f.val, "val", 0, "validation ratio")
	pf.Float64Var(&f.test, "test", 0, "test ratio")
	pf.StringVar(&f.mergePolicy, "merge-policy", "", "multi-class merge policy: split-order or primary-class")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Split the dataset and copy every pair into the output tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, f, func(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
				_, err := runSplit(ctx, cfg, logger)
				return err
			})
		},
	}
	rf := runCmd.Flags()
	rf.StringVarP(&f.outputDir, "output", "o", "", "output directory")
	rf.StringVar(&f.manifest, "manifest", "", "write the assignment manifest (.parquet or .yaml)")
	rf.StringVar(&f.publish, "publish", "", "publish the assignment to a registry: redis or valkey")
	rf.StringSliceVar(&f.publishAddr, "publish-addr", nil, "registry addresses")
	rf.StringVar(&f.runID, "run-id", "", "registry run id (default: random)")
	rf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	rf.StringVar(&f.textfile, "metrics-textfile", "", "write final metrics in node_exporter textfile format")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the split and print per-class counts without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, f, func(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
				return runPlan(ctx, cfg, logger, cmd.OutOrStdout())
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	root.AddCommand(runCmd, planCmd, versionCmd)
	return root
}

// withRuntime loads configuration, builds the logger and runs fn under a signal-aware context.
func withRuntime(
	cmd *cobra.Command,
	f *cliFlags,
	fn func(ctx context.Context, cfg config.Config, logger *zap.Logger) error,
) error {
	if f.envFile != "" {
		if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f.envFile, err)
		}
	}

	env := config.GetEnv()
	cfg, err := config.Load(env, f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd, f, &cfg); err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Starting datasplit",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("command", cmd.Name()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, cfg, logger); err != nil {
		logger.Error("Dataset split failed", zap.Error(err))
		return err
	}
	return nil
}

// applyFlags copies explicitly set flags over cfg and re-validates it.
func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("images") {
		cfg.Dataset.ImagesDir = f.imagesDir
	}
	if changed("labels") {
		cfg.Dataset.LabelsDir = f.labelsDir
	}
	if changed("output") {
		cfg.Dataset.OutputDir = f.outputDir
	}
	if changed("seed") {
		cfg.Split.Seed = f.seed
	}
	if changed("train") || changed("val") || changed("test") {
		cfg.Split.Train, cfg.Split.Val, cfg.Split.Test = f.train, f.val, f.test
	}
	if changed("merge-policy") {
		cfg.Split.MergePolicy = f.mergePolicy
	}
	if changed("manifest") {
		cfg.Manifest.Path = f.manifest
		cfg.Manifest.Format = ""
	}
	if changed("publish") {
		cfg.Publish.Driver = f.publish
	}
	if changed("publish-addr") {
		cfg.Publish.Addrs = f.publishAddr
	}
	if changed("run-id") {
		cfg.Publish.RunID = f.runID
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.textfile
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
