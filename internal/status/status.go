// Package status reduces step outcomes to a single verdict.
package status

import (
	"fmt"

	"github.com/robotomize/go-testflo/internal/slice"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// SkippedPolicy decides how skipped steps affect a verdict.
type SkippedPolicy int

const (
	// SkippedPasses ignores skipped steps: only a failed step fails the verdict.
	SkippedPasses SkippedPolicy = iota
	// SkippedFails treats a skipped step like a failed one.
	SkippedFails
)

// DefaultSkippedPolicy keeps verdicts compatible with test cases already
// tracked downstream, which never failed on skipped-only runs.
const DefaultSkippedPolicy = SkippedPasses

func (p SkippedPolicy) String() string {
	switch p {
	case SkippedFails:
		return "fails"
	default:
		return "passes"
	}
}

// ParseSkippedPolicy accepts the String form of a policy. An empty string
// selects DefaultSkippedPolicy.
func ParseSkippedPolicy(s string) (SkippedPolicy, error) {
	switch s {
	case "":
		return DefaultSkippedPolicy, nil
	case SkippedPasses.String():
		return SkippedPasses, nil
	case SkippedFails.String():
		return SkippedFails, nil
	default:
		return DefaultSkippedPolicy, fmt.Errorf("unknown skipped policy %q", s)
	}
}

type Option func(*options)

type options struct {
	policy SkippedPolicy
}

func WithSkippedPolicy(p SkippedPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

type Verdict struct {
	Status            testflo.Outcome
	FirstFailureIndex int
}

// Reduce folds outcomes into one verdict. The verdict is failed when any
// outcome fails; FirstFailureIndex is the position of the first failed
// outcome or -1. Boundary markers keep their position in the count. Under
// SkippedFails a skipped outcome counts as a failure when no failed outcome
// exists.
func Reduce(outcomes []testflo.Outcome, opts ...Option) Verdict {
	o := options{policy: DefaultSkippedPolicy}
	for _, opt := range opts {
		opt(&o)
	}

	idx := slice.Index(outcomes, testflo.OutcomeFailed)
	if idx == -1 && o.policy == SkippedFails {
		idx = slice.Index(outcomes, testflo.OutcomeSkipped)
	}

	if idx == -1 {
		return Verdict{Status: testflo.OutcomePassed, FirstFailureIndex: -1}
	}

	return Verdict{Status: testflo.OutcomeFailed, FirstFailureIndex: idx}
}

// ErrorMessage returns the first non-empty message.
func ErrorMessage(messages []string) string {
	msg, _ := slice.Find(
		messages, func(s string) bool {
			return s != ""
		},
	)

	return msg
}
