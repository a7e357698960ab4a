// Package reconcile decides whether a tracked step table still matches a
// freshly parsed one.
//
// The comparison is positional: persisted step i is compared with fresh step
// i. Inserting or removing a step shifts every later position, so such a
// change is always reported as stale. Steps appended after the persisted
// table ends are not compared.
package reconcile

import (
	"github.com/robotomize/go-testflo/internal/slice"
	"github.com/robotomize/go-testflo/internal/testflo"
)

type Verdict struct {
	Current bool
	// MismatchIndex is the first persisted position that did not match, or -1.
	MismatchIndex int
	// Fresh holds the fresh steps when the verdict is stale, so the caller
	// can create the next version of the tracked artifact.
	Fresh []testflo.Step
}

// IsCurrent reports whether every persisted step equals the fresh step at
// the same position.
func IsCurrent(persisted, fresh []testflo.Step) bool {
	return mismatch(persisted, fresh) == -1
}

func Check(persisted, fresh []testflo.Step) Verdict {
	idx := mismatch(persisted, fresh)
	if idx == -1 {
		return Verdict{Current: true, MismatchIndex: -1}
	}

	return Verdict{MismatchIndex: idx, Fresh: cloneSteps(fresh)}
}

// Untracked is the verdict for steps that have no persisted table yet: the
// artifact is missing, so it is stale from the first position.
func Untracked(fresh []testflo.Step) Verdict {
	return Verdict{MismatchIndex: 0, Fresh: cloneSteps(fresh)}
}

func cloneSteps(steps []testflo.Step) []testflo.Step {
	return slice.Map(steps, testflo.Step.Clone)
}

// Labels builds plain step rows from labels.
func Labels(labels ...string) []testflo.Step {
	return slice.Map(labels, testflo.NewStep)
}

func mismatch(persisted, fresh []testflo.Step) int {
	for idx := range persisted {
		if idx >= len(fresh) {
			return idx
		}

		if !cellsEqual(persisted[idx].Cells, fresh[idx].Cells) {
			return idx
		}
	}

	return -1
}

// cellsEqual compares every fresh cell with the persisted cell at the same
// position. A fresh cell without a persisted counterpart is a mismatch.
func cellsEqual(persisted, fresh []string) bool {
	for idx := range fresh {
		if idx >= len(persisted) || persisted[idx] != fresh[idx] {
			return false
		}
	}

	return true
}
