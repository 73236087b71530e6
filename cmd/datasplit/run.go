package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/datasplit/internal/config"
	"github.com/kailas-cloud/datasplit/internal/db"
	dbRedis "github.com/kailas-cloud/datasplit/internal/db/redis"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
	logpkg "github.com/kailas-cloud/datasplit/internal/logger"
	"github.com/kailas-cloud/datasplit/internal/metrics"
	"github.com/kailas-cloud/datasplit/internal/repository/dataset"
	"github.com/kailas-cloud/datasplit/internal/repository/manifest"
	"github.com/kailas-cloud/datasplit/internal/repository/registry"
	"github.com/kailas-cloud/datasplit/internal/repository/source"
	materializeuc "github.com/kailas-cloud/datasplit/internal/usecase/materialize"
	splituc "github.com/kailas-cloud/datasplit/internal/usecase/split"
)

// openStore connects to the split registry. Replaced in tests.
var openStore = func(cfg config.PublishConfig) (db.Store, error) {
	return dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
}

// runSplit plans the split, exports and publishes it, then copies every pair.
// Nothing is written to the output tree until planning and publishing succeed.
func runSplit(ctx context.Context, cfg config.Config, logger *zap.Logger) (materializeuc.Report, error) {
	src := newSource(cfg)
	if err := src.Check(true); err != nil {
		return materializeuc.Report{}, err
	}

	rec := metrics.NewRun()
	if cfg.Metrics.Addr != "" {
		srv := rec.Serve(cfg.Metrics.Addr, logger)
		defer srv.Shutdown(context.Background())
	}

	plan, err := planSplit(ctx, cfg, src, rec, logger)
	if err != nil {
		return materializeuc.Report{}, err
	}

	if cfg.Manifest.Path != "" {
		if err := writeManifest(ctx, cfg, plan, src); err != nil {
			return materializeuc.Report{}, err
		}
		logger.Info("Manifest written",
			zap.String("path", cfg.Manifest.Path),
			zap.String("format", cfg.Manifest.Format),
		)
	}

	if cfg.Publish.Driver != "" {
		runID := cfg.Publish.RunID
		if runID == "" {
			runID = uuid.NewString()
		}
		pubCtx := logpkg.WithRun(ctx, logger, runID)
		if err := publish(pubCtx, cfg.Publish, runID, plan); err != nil {
			return materializeuc.Report{}, err
		}
	}

	start := time.Now()
	dst := dataset.New(cfg.Dataset.OutputDir)
	report, err := materializeuc.New(src, dst, logger).
		WithRecorder(rec).
		Materialize(ctx, plan.Assignment)
	rec.ObserveStage("materialize", time.Since(start))
	if err != nil {
		return report, fmt.Errorf("materialize: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, rec.Registry()); err != nil {
			logger.Error("Failed to write metrics textfile",
				zap.String("path", cfg.Metrics.Textfile),
				zap.Error(err),
			)
		}
	}

	total := report.Total()
	logger.Info("Dataset split completed successfully",
		zap.String("output", dst.Root()),
		zap.Int("copied", total.Copied),
		zap.Int("missing", total.Missing),
		zap.Int("failed", total.Failed),
	)
	return report, nil
}

func newSource(cfg config.Config) *source.Repository {
	return source.New(source.Config{
		ImagesDir: cfg.Dataset.ImagesDir,
		LabelsDir: cfg.Dataset.LabelsDir,
		ImageExt:  cfg.Dataset.ImageExt,
		LabelExt:  cfg.Dataset.LabelExt,
	})
}

func planSplit(
	ctx context.Context,
	cfg config.Config,
	src *source.Repository,
	rec splituc.Recorder,
	logger *zap.Logger,
) (splituc.Plan, error) {
	policy, err := splituc.ParseMergePolicy(cfg.Split.MergePolicy)
	if err != nil {
		return splituc.Plan{}, err
	}
	plan, err := splituc.New(src, cfg.Ratios(), cfg.Split.Seed, logger).
		WithPolicy(policy).
		WithRecorder(rec).
		Plan(ctx)
	if err != nil {
		return splituc.Plan{}, fmt.Errorf("plan split: %w", err)
	}
	return plan, nil
}

func writeManifest(ctx context.Context, cfg config.Config, plan splituc.Plan, src *source.Repository) error {
	w, err := manifest.NewWriter(cfg.Manifest.Path, cfg.Manifest.Format)
	if err != nil {
		return err
	}
	m := manifest.Build(plan.Assignment, plan.Index, src, manifest.Meta{
		Seed:   plan.Seed,
		Policy: string(plan.Policy),
		Train:  plan.Ratios.Train,
		Val:    plan.Ratios.Val,
		Test:   plan.Ratios.Test,
	})
	if err := w.Write(ctx, m); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func publish(ctx context.Context, cfg config.PublishConfig, runID string, plan splituc.Plan) error {
	logger := logpkg.FromContext(ctx)

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("connect registry: %w", err)
	}
	defer store.Close()

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("registry not ready: %w", err)
	}

	repo := registry.New(store, cfg.KeyPrefix)
	err = repo.Publish(ctx, runID, plan.Assignment, registry.Meta{
		Seed:   plan.Seed,
		Policy: string(plan.Policy),
		Ratios: plan.Ratios,
	})
	if err != nil {
		return fmt.Errorf("publish split: %w", err)
	}

	counts := plan.Assignment.Counts()
	logger.Info("Split published",
		zap.String("driver", cfg.Driver),
		zap.String("key", repo.MetaKey(runID)),
		zap.Int("train", counts[domsplit.Train]),
		zap.Int("val", counts[domsplit.Val]),
		zap.Int("test", counts[domsplit.Test]),
	)
	return nil
}
