package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/datasplit/internal/db"
)

// rpushChunk bounds the number of elements per RPUSH command.
const rpushChunk = 1000

// ReplaceList deletes key and appends values in order within a single DoMulti round-trip.
// An empty values slice leaves the key deleted.
func (s *Store) ReplaceList(ctx context.Context, key string, values []string) error {
	cmds := make([]rueidis.Completed, 0, 1+(len(values)+rpushChunk-1)/rpushChunk)
	cmds = append(cmds, s.b().Del().Key(key).Build())
	for start := 0; start < len(values); start += rpushChunk {
		end := min(start+rpushChunk, len(values))
		cmds = append(cmds, s.b().Rpush().Key(key).Element(values[start:end]...).Build())
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			op := db.OpRPush
			if i == 0 {
				op = db.OpDel
			}
			return &db.Error{Op: op, Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}
