package parser

import (
	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/slice"
	"github.com/robotomize/go-testflo/internal/status"
	"github.com/robotomize/go-testflo/internal/tag"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// ScenarioOrder is the order in which a feature's scenarios are visited.
type ScenarioOrder int

const (
	ScenarioOrderDeclared ScenarioOrder = iota
	ScenarioOrderReversed
)

// FeatureScenarioOrder is used when aggregating a feature: the last
// declared scenario comes first. Test cases already tracked downstream were
// built in this order.
const FeatureScenarioOrder = ScenarioOrderReversed

// Apply returns scenarios in the order o, without modifying the input.
func (o ScenarioOrder) Apply(scenarios []cucumber.Scenario) []cucumber.Scenario {
	if o == ScenarioOrderReversed {
		return slice.Reverse(scenarios)
	}

	return slice.Filter(scenarios, nil)
}

// Aggregate flattens scenario results, given in visiting order, into one
// feature record. Every scenario contributes a boundary entry followed by its
// steps. The feature owns copies of all scenario data.
func Aggregate(feature cucumber.Feature, scenarios []testflo.ScenarioResult, opts ...status.Option) testflo.FeatureResult {
	fr := testflo.FeatureResult{
		Name:             testflo.FeatureNamePrefix + feature.Name,
		Description:      feature.Description,
		Scenarios:        make([]testflo.ScenarioResult, 0, len(scenarios)),
		Rows:             make([]testflo.Step, 0),
		StepDescriptions: make([]string, 0),
		StepStatuses:     make([]testflo.Outcome, 0),
		StepTags:         make([][]string, 0),
	}

	tagLists := make([][]string, 0, len(scenarios))
	messages := make([]string, 0, len(scenarios))
	screenshots := make([][]string, 0, len(scenarios))

	for _, src := range scenarios {
		sc := src.Clone()
		fr.Scenarios = append(fr.Scenarios, sc)

		fr.Rows = append(fr.Rows, testflo.NewGroupStep(sc.Name))
		for _, row := range sc.Rows {
			fr.Rows = append(fr.Rows, row.Clone())
		}

		fr.StepDescriptions = append(fr.StepDescriptions, "")
		fr.StepDescriptions = append(fr.StepDescriptions, sc.StepDescriptions...)

		fr.StepStatuses = append(fr.StepStatuses, testflo.OutcomeNone)
		fr.StepStatuses = append(fr.StepStatuses, sc.StepStatuses...)

		fr.StepTags = append(fr.StepTags, nil)
		for range sc.StepDescriptions {
			fr.StepTags = append(fr.StepTags, slice.Filter(sc.Tags, nil))
		}

		screenshots = append(screenshots, alignScreenshots(sc.Screenshots, len(sc.StepDescriptions)))

		if sc.CurrentURL != "" {
			fr.CurrentURL = sc.CurrentURL
		}

		tagLists = append(tagLists, sc.Tags)
		messages = append(messages, sc.ErrorMessage)
	}

	fr.Screenshots = slice.Flat(screenshots)

	tags := tag.NewSet(slice.Union(tagLists...))
	fr.Tags = tags.All
	fr.FreeTags = tags.Free
	fr.ManualTestCases = tags.ManualTestCases
	fr.Requirements = tags.Requirements
	fr.TestLevel = tags.TestLevels
	fr.TestKinds = tags.TestKinds

	verdict := status.Reduce(fr.StepStatuses, opts...)
	fr.Status = verdict.Status
	fr.FirstFailureIndex = verdict.FirstFailureIndex
	if verdict.Status == testflo.OutcomeFailed {
		fr.ErrorMessage = status.ErrorMessage(messages)
	}

	fr.ScriptPath = feature.URI
	if len(fr.Scenarios) > 0 && fr.Scenarios[0].ScriptPath != "" {
		fr.ScriptPath = fr.Scenarios[0].ScriptPath
	}

	return fr
}

// alignScreenshots pads shots with empty slots up to the scenario's visible
// step count so that positions stay aligned after flattening.
func alignScreenshots(shots []string, steps int) []string {
	if len(shots) >= steps {
		return shots
	}

	aligned := make([]string, steps)
	copy(aligned, shots)

	return aligned
}
