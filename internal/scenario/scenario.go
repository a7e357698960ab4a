// Package scenario builds canonical scenario results from report steps.
package scenario

import (
	"strings"

	"github.com/robotomize/go-testflo/internal/attachment"
	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/status"
	"github.com/robotomize/go-testflo/internal/tag"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// Label renders the visible label of a step.
func Label(step cucumber.Step) string {
	return step.Keyword + " " + step.Name
}

// Description is the label with double quotes removed so it can name files.
func Description(label string) string {
	return strings.ReplaceAll(label, `"`, "")
}

// Extract converts the raw steps of one scenario into a result. Hook steps
// are left out of the visible sequence; only their session markers are kept.
func Extract(steps []cucumber.Step, opts ...status.Option) testflo.ScenarioResult {
	result := testflo.ScenarioResult{
		Steps:            make([]testflo.StepRecord, 0, len(steps)),
		Rows:             make([]testflo.Step, 0, len(steps)),
		StepDescriptions: make([]string, 0, len(steps)),
		StepStatuses:     make([]testflo.Outcome, 0, len(steps)),
		ManualTestCases:  make([]string, 0),
		Requirements:     make([]string, 0),
		Tags:             make([]string, 0),
		FreeTags:         make([]string, 0),
		Screenshots:      make([]string, 0),
		ScriptPath:       scriptPath(steps),
	}

	messages := make([]string, 0, len(steps))

	var hooksBefore int
	for idx, step := range steps {
		hook := step.IsHook()
		attachments := attachment.Classify(step.Embeddings, hook)
		attachment.Apply(&result, attachments, idx, hooksBefore)

		if step.IsBeforeHook() {
			hooksBefore++
		}

		if hook {
			continue
		}

		label := Label(step)
		record := testflo.StepRecord{
			Label:        label,
			Description:  Description(label),
			Outcome:      testflo.Outcome(step.Status()),
			ErrorMessage: step.ErrorMessage(),
		}
		if len(attachments) > 0 {
			record.Attachments = attachments
		}

		result.Steps = append(result.Steps, record)
		result.Rows = append(result.Rows, testflo.NewStep(label))
		result.StepDescriptions = append(result.StepDescriptions, record.Description)
		result.StepStatuses = append(result.StepStatuses, record.Outcome)
		messages = append(messages, record.ErrorMessage)
	}

	verdict := status.Reduce(result.StepStatuses, opts...)
	result.Status = verdict.Status
	result.FirstFailureIndex = verdict.FirstFailureIndex
	if verdict.Status == testflo.OutcomeFailed {
		result.ErrorMessage = status.ErrorMessage(messages)
	}

	return result
}

// FromScenario extracts the steps of sc and attaches its name and tags.
func FromScenario(sc cucumber.Scenario, opts ...status.Option) testflo.ScenarioResult {
	result := Extract(sc.Steps, opts...)
	result.Name = sc.Name

	tags := tag.NewSet(tag.Names(sc.Tags))
	result.Tags = tags.All
	result.FreeTags = tags.Free
	result.ManualTestCases = tags.ManualTestCases
	result.Requirements = tags.Requirements

	return result
}

// scriptPath returns the script location some runners print from the
// opening hook.
func scriptPath(steps []cucumber.Step) string {
	if len(steps) == 0 || !steps[0].IsHook() || len(steps[0].Embeddings) == 0 {
		return ""
	}

	e := steps[0].Embeddings[0]
	if e.MimeType != cucumber.MimeTextPlain {
		return ""
	}

	if _, ok := attachment.Session(e.Data); ok {
		return ""
	}

	return e.Data
}
