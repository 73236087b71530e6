package split

import (
	"math/rand"

	"github.com/kailas-cloud/datasplit/internal/domain/classindex"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// NewRand returns the seeded generator shared by one allocation run.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible shuffles, not security
}

// Allocate shuffles each class's files with rng and cuts them into train/val/test slices.
// Classes are visited in sorted order so the same seed always draws the same permutations.
func Allocate(idx *classindex.Index, ratios domsplit.Ratios, rng *rand.Rand) map[string]domsplit.Slices {
	out := make(map[string]domsplit.Slices, idx.Len())
	for _, cls := range idx.Classes() {
		files := idx.Files(cls)
		rng.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})

		nTrain, nVal, _ := ratios.Counts(len(files))
		out[cls] = domsplit.Slices{
			Train: files[:nTrain:nTrain],
			Val:   files[nTrain : nTrain+nVal : nTrain+nVal],
			Test:  files[nTrain+nVal:],
		}
	}
	return out
}
