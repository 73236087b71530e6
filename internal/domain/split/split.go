package split

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/datasplit/internal/domain"
)

// Name identifies one of the three output subsets.
type Name string

// Split names.
const (
	Train Name = "train"
	Val   Name = "val"
	Test  Name = "test"
)

// IsValid checks if the name is one of the supported splits.
func (n Name) IsValid() bool {
	return n == Train || n == Val || n == Test
}

// Order returns the fixed split iteration order. Earlier splits win ties in the merge.
func Order() []Name {
	return []Name{Train, Val, Test}
}

const ratioTolerance = 1e-9

// Ratios holds the per-split proportions. Test absorbs the rounding remainder.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios returns 0.70/0.15/0.15.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.70, Val: 0.15, Test: 0.15}
}

// Validate checks that every ratio lies in [0,1] and that they sum to 1.
func (r Ratios) Validate() error {
	for _, v := range []struct {
		name  Name
		value float64
	}{{Train, r.Train}, {Val, r.Val}, {Test, r.Test}} {
		if math.IsNaN(v.value) || v.value < 0 || v.value > 1 {
			return fmt.Errorf("%w: %s ratio %v out of range [0,1]", domain.ErrInvalidRatios, v.name, v.value)
		}
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("%w: ratios sum to %v, want 1", domain.ErrInvalidRatios, sum)
	}
	return nil
}

// Counts splits n items into floor(train*n), floor(val*n) and the remainder.
// The three counts always add up to n.
func (r Ratios) Counts(n int) (train, val, test int) {
	if n <= 0 {
		return 0, 0, 0
	}
	train = int(r.Train * float64(n))
	val = int(r.Val * float64(n))
	if train > n {
		train = n
	}
	if train+val > n {
		val = n - train
	}
	return train, val, n - train - val
}

// Slices is the per-class allocation: three contiguous slices of the shuffled file list.
type Slices struct {
	Train []string
	Val   []string
	Test  []string
}

// Get returns the files allocated to the given split.
func (s Slices) Get(name Name) []string {
	switch name {
	case Train:
		return s.Train
	case Val:
		return s.Val
	case Test:
		return s.Test
	default:
		return nil
	}
}

// Len returns the total number of files across the three slices.
func (s Slices) Len() int {
	return len(s.Train) + len(s.Val) + len(s.Test)
}

// Assignment is the final disjoint three-way partition of annotation files.
type Assignment struct {
	files map[Name][]string
	index map[string]Name
}

// NewAssignment creates an empty assignment.
func NewAssignment() *Assignment {
	return &Assignment{
		files: make(map[Name][]string, 3),
		index: make(map[string]Name),
	}
}

// Add appends file to the given split unless it is already assigned anywhere.
// Returns false if the file was already present.
func (a *Assignment) Add(name Name, file string) bool {
	if _, ok := a.index[file]; ok {
		return false
	}
	a.files[name] = append(a.files[name], file)
	a.index[file] = name
	return true
}

// Files returns the ordered file list of a split.
func (a *Assignment) Files(name Name) []string {
	return a.files[name]
}

// SplitOf reports which split a file was assigned to.
func (a *Assignment) SplitOf(file string) (Name, bool) {
	n, ok := a.index[file]
	return n, ok
}

// Len returns the number of assigned files across all splits.
func (a *Assignment) Len() int {
	return len(a.index)
}

// Counts returns the number of files per split.
func (a *Assignment) Counts() map[Name]int {
	out := make(map[Name]int, 3)
	for _, n := range Order() {
		out[n] = len(a.files[n])
	}
	return out
}
