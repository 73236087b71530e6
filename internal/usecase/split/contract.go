package split

import (
	"context"
	"io"
	"time"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// LabelReader lists and opens annotation files.
// List must return names in a stable order; the order feeds the shuffle.
type LabelReader interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Recorder receives planning metrics.
type Recorder interface {
	ObservePlan(files, classes int, counts map[domsplit.Name]int)
	ObserveStage(stage string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObservePlan(int, int, map[domsplit.Name]int) {}
func (nopRecorder) ObserveStage(string, time.Duration)          {}
