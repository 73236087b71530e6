package materialize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
	"github.com/kailas-cloud/datasplit/internal/repository/dataset"
)

// Counts tallies pair outcomes for one split.
type Counts struct {
	Copied  int
	Missing int
	Failed  int
}

// Report is the outcome of copying an assignment.
type Report struct {
	Splits map[domsplit.Name]Counts
}

// Total sums the counts over all splits.
func (r Report) Total() Counts {
	var t Counts
	for _, c := range r.Splits {
		t.Copied += c.Copied
		t.Missing += c.Missing
		t.Failed += c.Failed
	}
	return t
}

// Service copies assigned image/annotation pairs into the split output tree.
type Service struct {
	src      Source
	dst      Target
	recorder Recorder
	logger   *zap.Logger
}

// New creates a materialize service.
func New(src Source, dst Target, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{src: src, dst: dst, recorder: nopRecorder{}, logger: logger}
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Materialize creates the output layout and copies every assigned pair.
// A pair with a missing image or annotation is skipped with a warning; a failed copy
// is logged and counted. Only layout creation and cancellation abort the run.
func (s *Service) Materialize(ctx context.Context, a *domsplit.Assignment) (Report, error) {
	if err := s.dst.EnsureLayout(ctx); err != nil {
		return Report{}, fmt.Errorf("create output layout: %w", err)
	}

	report := Report{Splits: make(map[domsplit.Name]Counts, 3)}
	for _, sp := range domsplit.Order() {
		var c Counts
		for _, label := range a.Files(sp) {
			if err := ctx.Err(); err != nil {
				report.Splits[sp] = c
				return report, err
			}
			switch s.copyPair(ctx, sp, label) {
			case outcomeCopied:
				c.Copied++
				s.recorder.PairCopied(sp)
			case outcomeMissing:
				c.Missing++
				s.recorder.PairMissing(sp)
			case outcomeFailed:
				c.Failed++
				s.recorder.PairFailed(sp)
			}
		}
		report.Splits[sp] = c
		s.logger.Info("Split copied",
			zap.String("split", string(sp)),
			zap.Int("copied", c.Copied),
			zap.Int("missing", c.Missing),
			zap.Int("failed", c.Failed),
		)
	}
	return report, nil
}

type outcome int

const (
	outcomeCopied outcome = iota
	outcomeMissing
	outcomeFailed
)

func (s *Service) copyPair(ctx context.Context, sp domsplit.Name, label string) outcome {
	image := s.src.ImageName(label)
	imagePath := s.src.ImagePath(label)
	labelPath := s.src.LabelPath(label)

	ok, err := s.bothExist(imagePath, labelPath)
	if err != nil {
		s.logger.Error("Pair check failed",
			zap.String("split", string(sp)),
			zap.String("label", label),
			zap.Error(err),
		)
		return outcomeFailed
	}
	if !ok {
		s.logger.Warn("Pair not found, skipping",
			zap.String("split", string(sp)),
			zap.String("image", image),
			zap.String("label", label),
		)
		return outcomeMissing
	}

	if err := s.dst.Copy(ctx, imagePath, sp, dataset.Images, image); err != nil {
		s.logger.Error("Image copy failed",
			zap.String("split", string(sp)),
			zap.String("image", image),
			zap.Error(err),
		)
		return outcomeFailed
	}
	if err := s.dst.Copy(ctx, labelPath, sp, dataset.Labels, label); err != nil {
		s.logger.Error("Label copy failed",
			zap.String("split", string(sp)),
			zap.String("label", label),
			zap.Error(err),
		)
		// A failed pair leaves neither half in the output tree.
		// The removal must run even when ctx is what failed the label copy.
		if rmErr := s.dst.Remove(context.WithoutCancel(ctx), sp, dataset.Images, image); rmErr != nil {
			s.logger.Error("Orphan image removal failed",
				zap.String("split", string(sp)),
				zap.String("image", image),
				zap.Error(rmErr),
			)
		}
		return outcomeFailed
	}
	return outcomeCopied
}

func (s *Service) bothExist(paths ...string) (bool, error) {
	for _, p := range paths {
		ok, err := s.src.Exists(p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
