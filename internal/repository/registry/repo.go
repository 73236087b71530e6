package registry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// store is the consumer interface for registry operations (ISP).
type store interface {
	ReplaceList(ctx context.Context, key string, values []string) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
}

// Meta describes how a published assignment was produced.
type Meta struct {
	Seed   int64
	Policy string
	Ratios domsplit.Ratios
}

// Repository publishes split assignments so other jobs can read them by run ID.
//
// Keys:
//
//	<prefix><run>:train, <prefix><run>:val, <prefix><run>:test  lists of annotation files
//	<prefix><run>:meta                                           hash of run parameters and counts
type Repository struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a registry repository.
func New(s store, prefix string) *Repository {
	return &Repository{store: s, prefix: prefix, now: time.Now}
}

// SplitKey returns the list key for one split of a run.
func (r *Repository) SplitKey(runID string, sp domsplit.Name) string {
	return r.prefix + runID + ":" + string(sp)
}

// MetaKey returns the metadata hash key of a run.
func (r *Repository) MetaKey(runID string) string {
	return r.prefix + runID + ":meta"
}

// Publish replaces the stored lists of runID with the assignment and then writes the metadata.
// Metadata of a previous publish under the same run id is removed first and written
// again last, so its presence always marks the lists as complete.
func (r *Repository) Publish(ctx context.Context, runID string, a *domsplit.Assignment, meta Meta) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	metaKey := r.MetaKey(runID)
	if err := r.store.Del(ctx, metaKey); err != nil {
		return fmt.Errorf("publish %s: %w", metaKey, err)
	}

	for _, sp := range domsplit.Order() {
		key := r.SplitKey(runID, sp)
		if err := r.store.ReplaceList(ctx, key, a.Files(sp)); err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}

	counts := a.Counts()
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	fields := map[string]string{
		"seed":        strconv.FormatInt(meta.Seed, 10),
		"policy":      meta.Policy,
		"ratio_train": f(meta.Ratios.Train),
		"ratio_val":   f(meta.Ratios.Val),
		"ratio_test":  f(meta.Ratios.Test),
		"files":       strconv.Itoa(a.Len()),
		"created_at":  r.now().UTC().Format(time.RFC3339),
	}
	for _, sp := range domsplit.Order() {
		fields["count_"+string(sp)] = strconv.Itoa(counts[sp])
	}

	if err := r.store.HSet(ctx, metaKey, fields); err != nil {
		return fmt.Errorf("publish %s: %w", metaKey, err)
	}
	return nil
}
