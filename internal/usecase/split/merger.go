package split

import (
	"fmt"

	"github.com/kailas-cloud/datasplit/internal/domain"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// MergePolicy decides which split a file listed under several classes ends up in.
type MergePolicy string

// Merge policies.
const (
	// PolicySplitOrder assigns a file to the first split, in train/val/test order,
	// that any of its classes allocated it to.
	PolicySplitOrder MergePolicy = "split-order"
	// PolicyPrimaryClass assigns a file to the split chosen by its rarest class.
	PolicyPrimaryClass MergePolicy = "primary-class"
)

// IsValid checks if the policy is supported.
func (p MergePolicy) IsValid() bool {
	return p == PolicySplitOrder || p == PolicyPrimaryClass
}

// ParseMergePolicy maps a config value to a policy. Empty means split-order.
func ParseMergePolicy(s string) (MergePolicy, error) {
	if s == "" {
		return PolicySplitOrder, nil
	}
	p := MergePolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownMergePolicy, s)
	}
	return p, nil
}

// Merge walks splits in order and, within each split, classes in the given order,
// appending every file not yet in assigned. assigned spans all splits; a nil set
// starts empty. The updated set is returned with the assignment.
func Merge(
	classes []string, slices map[string]domsplit.Slices, assigned map[string]struct{},
) (*domsplit.Assignment, map[string]struct{}) {
	if assigned == nil {
		assigned = make(map[string]struct{})
	}
	out := domsplit.NewAssignment()
	for _, sp := range domsplit.Order() {
		for _, cls := range classes {
			for _, f := range slices[cls].Get(sp) {
				if _, ok := assigned[f]; ok {
					continue
				}
				assigned[f] = struct{}{}
				out.Add(sp, f)
			}
		}
	}
	return out, assigned
}

// MergeByPrimaryClass places every file where its primary class put it.
// The primary class is the one with the fewest files; ties go to the earlier class in classes.
func MergeByPrimaryClass(
	classes []string, slices map[string]domsplit.Slices, assigned map[string]struct{},
) (*domsplit.Assignment, map[string]struct{}) {
	if assigned == nil {
		assigned = make(map[string]struct{})
	}

	primary := make(map[string]string)
	size := make(map[string]int)
	for _, cls := range classes {
		s := slices[cls]
		n := s.Len()
		for _, sp := range domsplit.Order() {
			for _, f := range s.Get(sp) {
				if cur, ok := primary[f]; ok && size[cur] <= n {
					continue
				}
				primary[f] = cls
			}
		}
		size[cls] = n
	}

	out := domsplit.NewAssignment()
	for _, sp := range domsplit.Order() {
		for _, cls := range classes {
			for _, f := range slices[cls].Get(sp) {
				if primary[f] != cls {
					continue
				}
				if _, ok := assigned[f]; ok {
					continue
				}
				assigned[f] = struct{}{}
				out.Add(sp, f)
			}
		}
	}
	return out, assigned
}

func mergeWith(
	policy MergePolicy, classes []string, slices map[string]domsplit.Slices,
) *domsplit.Assignment {
	var out *domsplit.Assignment
	switch policy {
	case PolicyPrimaryClass:
		out, _ = MergeByPrimaryClass(classes, slices, nil)
	default:
		out, _ = Merge(classes, slices, nil)
	}
	return out
}
