package split

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/datasplit/internal/domain"
	"github.com/kailas-cloud/datasplit/internal/domain/annotation"
	"github.com/kailas-cloud/datasplit/internal/domain/classindex"
)

// BuildIndex reads every annotation file from r and groups file names by class.
// Any open or read failure aborts indexing.
func BuildIndex(ctx context.Context, r LabelReader) (*classindex.Index, error) {
	names, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	if len(names) == 0 {
		return nil, domain.ErrNoAnnotations
	}

	idx := classindex.New()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		classes, err := readClasses(ctx, r, name)
		if err != nil {
			return nil, err
		}
		idx.Add(name, classes)
	}
	return idx, nil
}

func readClasses(ctx context.Context, r LabelReader, name string) ([]string, error) {
	rc, err := r.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open annotation: %w", err)
	}
	defer rc.Close()

	classes, err := annotation.ParseClasses(rc)
	if err != nil {
		return nil, domain.NewIOError(domain.OpRead, name, err)
	}
	return classes, nil
}
