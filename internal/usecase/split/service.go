package split

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/datasplit/internal/domain/classindex"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// Stage names reported to the Recorder.
const (
	StageIndex    = "index"
	StageAllocate = "allocate"
	StageMerge    = "merge"
)

// Plan is the outcome of a split run before anything is written.
type Plan struct {
	Index      *classindex.Index
	Slices     map[string]domsplit.Slices
	Assignment *domsplit.Assignment
	Seed       int64
	Ratios     domsplit.Ratios
	Policy     MergePolicy
}

// Service computes class-stratified split assignments.
type Service struct {
	labels   LabelReader
	ratios   domsplit.Ratios
	seed     int64
	policy   MergePolicy
	recorder Recorder
	logger   *zap.Logger
}

// New creates a split service.
func New(labels LabelReader, ratios domsplit.Ratios, seed int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		labels:   labels,
		ratios:   ratios,
		seed:     seed,
		policy:   PolicySplitOrder,
		recorder: nopRecorder{},
		logger:   logger,
	}
}

// WithPolicy configures the multi-class merge policy.
func (s *Service) WithPolicy(p MergePolicy) *Service {
	if p.IsValid() {
		s.policy = p
	}
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Plan indexes the annotations, allocates every class and merges the result.
// It has no side effects on the output tree.
func (s *Service) Plan(ctx context.Context) (Plan, error) {
	if err := s.ratios.Validate(); err != nil {
		return Plan{}, err
	}

	start := time.Now()
	idx, err := BuildIndex(ctx, s.labels)
	if err != nil {
		return Plan{}, fmt.Errorf("build class index: %w", err)
	}
	s.recorder.ObserveStage(StageIndex, time.Since(start))

	classes := idx.Classes()
	s.logger.Debug("Class index built",
		zap.Int("classes", len(classes)),
		zap.Int("files", len(idx.Universe())),
	)

	start = time.Now()
	slices := Allocate(idx, s.ratios, NewRand(s.seed))
	s.recorder.ObserveStage(StageAllocate, time.Since(start))

	for _, cls := range classes {
		sl := slices[cls]
		s.logger.Debug("Class allocated",
			zap.String("class", cls),
			zap.Int("files", sl.Len()),
			zap.Int("train", len(sl.Train)),
			zap.Int("val", len(sl.Val)),
			zap.Int("test", len(sl.Test)),
		)
	}

	start = time.Now()
	assignment := mergeWith(s.policy, classes, slices)
	s.recorder.ObserveStage(StageMerge, time.Since(start))

	counts := assignment.Counts()
	s.recorder.ObservePlan(assignment.Len(), len(classes), counts)
	s.logger.Info("Split planned",
		zap.Int64("seed", s.seed),
		zap.String("policy", string(s.policy)),
		zap.Int("classes", len(classes)),
		zap.Int("files", assignment.Len()),
		zap.Int("train", counts[domsplit.Train]),
		zap.Int("val", counts[domsplit.Val]),
		zap.Int("test", counts[domsplit.Test]),
	)

	return Plan{
		Index:      idx,
		Slices:     slices,
		Assignment: assignment,
		Seed:       s.seed,
		Ratios:     s.ratios,
		Policy:     s.policy,
	}, nil
}
