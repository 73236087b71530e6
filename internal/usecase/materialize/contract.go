package materialize

import (
	"context"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
	"github.com/kailas-cloud/datasplit/internal/repository/dataset"
)

// Source resolves and checks the input files of a dataset pair.
type Source interface {
	LabelPath(name string) string
	ImageName(label string) string
	ImagePath(label string) string
	Exists(path string) (bool, error)
}

// Target is the split output tree.
type Target interface {
	EnsureLayout(ctx context.Context) error
	Copy(ctx context.Context, src string, sp domsplit.Name, kind dataset.Kind, name string) error
	Remove(ctx context.Context, sp domsplit.Name, kind dataset.Kind, name string) error
}

// Recorder receives per-pair outcomes.
type Recorder interface {
	PairCopied(sp domsplit.Name)
	PairMissing(sp domsplit.Name)
	PairFailed(sp domsplit.Name)
}

type nopRecorder struct{}

func (nopRecorder) PairCopied(domsplit.Name)  {}
func (nopRecorder) PairMissing(domsplit.Name) {}
func (nopRecorder) PairFailed(domsplit.Name)  {}
