package parser

import (
	"bytes"
	_ "embed"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/slice"
	"github.com/robotomize/go-testflo/internal/status"
	"github.com/robotomize/go-testflo/internal/testflo"
)

//go:embed testdata/checkout.json
var checkoutJSON []byte

//go:embed testdata/missing_steps.json
var missingStepsJSON []byte

//go:embed testdata/missing_elements.json
var missingElementsJSON []byte

//go:embed testdata/missing_status.json
var missingStatusJSON []byte

func newTestParser(buf *bytes.Buffer, opts ...Option) *Parser {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func scenarioNames(records []testflo.ScenarioResult) []string {
	return slice.Map(records, testflo.ScenarioResult.RecordName)
}

func featureNames(records []testflo.FeatureResult) []string {
	return slice.Map(records, testflo.FeatureResult.RecordName)
}

func TestParser_ParseScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     []byte
		expected  []string
		expectLog bool
	}{
		{
			name:     "test_declaration_order",
			input:    checkoutJSON,
			expected: []string{"Add to cart", "Pay with card", "Browse catalogue", "Login succeeds"},
		},
		{
			name:      "test_partial_on_missing_steps",
			input:     missingStepsJSON,
			expected:  []string{"Search by name"},
			expectLog: true,
		},
		{
			name:      "test_partial_on_missing_elements",
			input:     missingElementsJSON,
			expected:  []string{"Only"},
			expectLog: true,
		},
		{
			name:      "test_partial_on_missing_status",
			input:     missingStatusJSON,
			expected:  []string{"Edit name"},
			expectLog: true,
		},
		{
			name:      "test_not_json",
			input:     []byte("not json"),
			expected:  []string{},
			expectLog: true,
		},
		{
			name:     "test_empty_document",
			input:    []byte("[]"),
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(
			tc.name, func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer
				records := newTestParser(&buf).ParseScenarios(tc.input)

				if diff := cmp.Diff(tc.expected, scenarioNames(records)); diff != "" {
					t.Errorf("mismatch (-want, +got):\n%s", diff)
				}

				if logged := strings.Contains(buf.String(), "level=ERROR"); logged != tc.expectLog {
					t.Errorf("got logged: %v, want: %v\n%s", logged, tc.expectLog, buf.String())
				}
			},
		)
	}
}

func TestParser_ParseScenarios_Record(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	records := newTestParser(&buf).ParseScenarios(checkoutJSON)

	got := records[1]

	expected := testflo.ScenarioResult{
		Name: "Pay with card",
		Steps: []testflo.StepRecord{
			{
				Label:       "Given I am logged in",
				Description: "Given I am logged in",
				Outcome:     testflo.OutcomePassed,
				Attachments: []testflo.Attachment{
					{Kind: testflo.AttachmentEmail, MimeType: cucumber.MimeTextPlain, Data: "jane@example.com"},
					{Kind: testflo.AttachmentUID, MimeType: cucumber.MimeTextPlain, Data: "uid-42"},
				},
			},
			{
				Label:        "When I pay with card",
				Description:  "When I pay with card",
				Outcome:      testflo.OutcomeFailed,
				ErrorMessage: "card declined",
				Attachments: []testflo.Attachment{
					{Kind: testflo.AttachmentScreenshot, MimeType: cucumber.MimeImagePNG, Data: "c2hvdA=="},
					{Kind: testflo.AttachmentURL, MimeType: cucumber.MimeTextPlain, Data: "https://shop.example.com/pay"},
				},
			},
			{
				Label:       "Then I see the receipt",
				Description: "Then I see the receipt",
				Outcome:     testflo.OutcomeSkipped,
			},
		},
		Rows: []testflo.Step{
			testflo.NewStep("Given I am logged in"),
			testflo.NewStep("When I pay with card"),
			testflo.NewStep("Then I see the receipt"),
		},
		StepDescriptions:  []string{"Given I am logged in", "When I pay with card", "Then I see the receipt"},
		StepStatuses:      []testflo.Outcome{testflo.OutcomePassed, testflo.OutcomeFailed, testflo.OutcomeSkipped},
		Status:            testflo.OutcomeFailed,
		FirstFailureIndex: 1,
		ErrorMessage:      "card declined",
		ManualTestCases:   []string{"SHOP-102"},
		Requirements:      []string{"REQ-7"},
		Tags:              []string{"@manualTct:SHOP-102", "@requirement:REQ-7", "@smoke"},
		FreeTags:          []string{"@smoke"},
		ScriptPath:        "features/checkout.feature:9",
		HSSession:         "HS session 2024-abc",
		CurrentURL:        "https://shop.example.com/pay",
		UserEmail:         "jane@example.com",
		UserUID:           "uid-42",
		Screenshots:       []string{"", "c2hvdA=="},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestParser_ParseFeatures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     []byte
		expected  []string
		expectLog bool
	}{
		{
			name:     "test_one_record_per_feature",
			input:    checkoutJSON,
			expected: []string{"(Auto-Generated) Checkout", "(Auto-Generated) Login"},
		},
		{
			name:      "test_feature_with_invalid_scenario_dropped",
			input:     missingStepsJSON,
			expected:  []string{},
			expectLog: true,
		},
		{
			name:      "test_partial_on_missing_elements",
			input:     missingElementsJSON,
			expected:  []string{"(Auto-Generated) Complete"},
			expectLog: true,
		},
		{
			name:      "test_feature_with_status_less_step_dropped",
			input:     missingStatusJSON,
			expected:  []string{},
			expectLog: true,
		},
		{
			name:      "test_not_json",
			input:     []byte("not json"),
			expected:  []string{},
			expectLog: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(
			tc.name, func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer
				records := newTestParser(&buf).ParseFeatures(tc.input)

				if diff := cmp.Diff(tc.expected, featureNames(records)); diff != "" {
					t.Errorf("mismatch (-want, +got):\n%s", diff)
				}

				if logged := strings.Contains(buf.String(), "level=ERROR"); logged != tc.expectLog {
					t.Errorf("got logged: %v, want: %v\n%s", logged, tc.expectLog, buf.String())
				}
			},
		)
	}
}

func TestParser_ParseFeatures_Aggregation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	got := newTestParser(&buf).ParseFeatures(checkoutJSON)[0]

	if diff := cmp.Diff(
		[]string{"Browse catalogue", "Pay with card", "Add to cart"},
		scenarioNames(got.Scenarios),
	); diff != "" {
		t.Errorf("visiting order mismatch (-want, +got):\n%s", diff)
	}

	none, passed, failed, skipped := testflo.OutcomeNone, testflo.OutcomePassed, testflo.OutcomeFailed, testflo.OutcomeSkipped
	if diff := cmp.Diff(
		[]testflo.Outcome{none, passed, none, passed, failed, skipped, none, passed, passed},
		got.StepStatuses,
	); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff(
		[]string{
			"", "Given I open the catalogue",
			"", "Given I am logged in", "When I pay with card", "Then I see the receipt",
			"", "Given I open the shop", "When I add socks to the cart",
		},
		got.StepDescriptions,
	); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	expectedRows := []testflo.Step{
		testflo.NewGroupStep("Browse catalogue"),
		testflo.NewStep("Given I open the catalogue"),
		testflo.NewGroupStep("Pay with card"),
		testflo.NewStep("Given I am logged in"),
		testflo.NewStep("When I pay with card"),
		testflo.NewStep("Then I see the receipt"),
		testflo.NewGroupStep("Add to cart"),
		testflo.NewStep("Given I open the shop"),
		testflo.NewStep(`When I add "socks" to the cart`),
	}
	if diff := cmp.Diff(expectedRows, got.Rows); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if got.Boundaries() != len(got.Scenarios) {
		t.Errorf("got: %d boundaries, want: %d", got.Boundaries(), len(got.Scenarios))
	}

	if len(got.StepTags) != len(got.StepStatuses) {
		t.Errorf("got: %d step tags, want: %d", len(got.StepTags), len(got.StepStatuses))
	}
	if diff := cmp.Diff([]string{"@requirement:REQ-8"}, got.StepTags[1]); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	expected := struct {
		Status            testflo.Outcome
		FirstFailureIndex int
		ErrorMessage      string
		Description       string
		ManualTestCases   []string
		Requirements      []string
		TestLevel         []string
		TestKinds         []string
		Tags              []string
		FreeTags          []string
		ScriptPath        string
		CurrentURL        string
		Screenshots       []string
	}{
		Status:            failed,
		FirstFailureIndex: 4,
		ErrorMessage:      "card declined",
		Description:       "Customers can pay for the cart",
		ManualTestCases:   []string{"SHOP-102", "SHOP-101"},
		Requirements:      []string{"REQ-8", "REQ-7"},
		TestLevel:         []string{":E2E"},
		TestKinds:         []string{},
		Tags: []string{
			"@requirement:REQ-8", "@manualTct:SHOP-102", "@requirement:REQ-7", "@smoke", "@manualTct:SHOP-101", "@testLevel:E2E",
		},
		FreeTags:    []string{"@smoke"},
		ScriptPath:  "features/checkout.feature",
		CurrentURL:  "https://shop.example.com",
		Screenshots: []string{"", "", "c2hvdA==", "", "", ""},
	}

	actual := expected
	actual.Status = got.Status
	actual.FirstFailureIndex = got.FirstFailureIndex
	actual.ErrorMessage = got.ErrorMessage
	actual.Description = got.Description
	actual.ManualTestCases = got.ManualTestCases
	actual.Requirements = got.Requirements
	actual.TestLevel = got.TestLevel
	actual.TestKinds = got.TestKinds
	actual.Tags = got.Tags
	actual.FreeTags = got.FreeTags
	actual.ScriptPath = got.ScriptPath
	actual.CurrentURL = got.CurrentURL
	actual.Screenshots = got.Screenshots

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestParser_ParseFeatures_PassedFeature(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	got := newTestParser(&buf).ParseFeatures(checkoutJSON)[1]

	if got.Status != testflo.OutcomePassed || got.FirstFailureIndex != -1 || got.ErrorMessage != "" {
		t.Errorf("got: %v %d %q, want passed feature", got.Status, got.FirstFailureIndex, got.ErrorMessage)
	}

	if got.ScriptPath != "features/login.feature" {
		t.Errorf("got: %q, want: %q", got.ScriptPath, "features/login.feature")
	}
}

func TestParser_Idempotent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newTestParser(&buf)

	if diff := cmp.Diff(p.ParseScenarios(checkoutJSON), p.ParseScenarios(checkoutJSON)); diff != "" {
		t.Errorf("scenario records differ between runs (-first, +second):\n%s", diff)
	}

	if diff := cmp.Diff(p.ParseFeatures(checkoutJSON), p.ParseFeatures(checkoutJSON)); diff != "" {
		t.Errorf("feature records differ between runs (-first, +second):\n%s", diff)
	}
}

func TestParser_SkippedPolicy(t *testing.T) {
	t.Parallel()

	doc := []byte(`[{"name": "F", "elements": [{"name": "S", "tags": [], "steps": [
		{"keyword": "Given", "name": "a", "result": {"status": "passed"}},
		{"keyword": "When", "name": "b", "result": {"status": "skipped"}}
	]}]}]`)

	var buf bytes.Buffer

	passes := newTestParser(&buf).ParseScenarios(doc)[0]
	if passes.Status != testflo.OutcomePassed {
		t.Errorf("got: %v, want: %v", passes.Status, testflo.OutcomePassed)
	}

	fails := newTestParser(&buf, WithSkippedPolicy(status.SkippedFails)).ParseFeatures(doc)[0]
	if fails.Status != testflo.OutcomeFailed || fails.FirstFailureIndex != 2 {
		t.Errorf("got: %v %d, want: %v %d", fails.Status, fails.FirstFailureIndex, testflo.OutcomeFailed, 2)
	}
}

func TestParseScenarios_NotJSON(t *testing.T) {
	t.Parallel()

	if got := ParseScenarios([]byte("not json")); len(got) != 0 {
		t.Errorf("got: %d records, want: 0", len(got))
	}

	if got := ParseFeatures([]byte("not json")); len(got) != 0 {
		t.Errorf("got: %d records, want: 0", len(got))
	}
}

func TestScenarioOrder_Apply(t *testing.T) {
	t.Parallel()

	input := []cucumber.Scenario{{Name: "first"}, {Name: "second"}, {Name: "third"}}

	names := func(s []cucumber.Scenario) []string {
		return slice.Map(
			s, func(sc cucumber.Scenario) string {
				return sc.Name
			},
		)
	}

	if diff := cmp.Diff([]string{"third", "second", "first"}, names(FeatureScenarioOrder.Apply(input))); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"first", "second", "third"}, names(ScenarioOrderDeclared.Apply(input))); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"first", "second", "third"}, names(input)); diff != "" {
		t.Errorf("input mutated (-want, +got):\n%s", diff)
	}
}

func TestAggregate_OwnsCopies(t *testing.T) {
	t.Parallel()

	scenarios := []testflo.ScenarioResult{
		{
			Name:             "S",
			Rows:             []testflo.Step{testflo.NewStep("Given a")},
			StepDescriptions: []string{"Given a"},
			StepStatuses:     []testflo.Outcome{testflo.OutcomePassed},
			Tags:             []string{"@smoke"},
		},
	}

	fr := Aggregate(cucumber.Feature{Name: "F"}, scenarios)

	scenarios[0].Rows[0].Cells[0] = "changed"
	scenarios[0].StepDescriptions[0] = "changed"
	scenarios[0].Tags[0] = "changed"

	if fr.Rows[1].Cells[0] != "Given a" || fr.Scenarios[0].Rows[0].Cells[0] != "Given a" {
		t.Errorf("feature rows alias scenario rows")
	}
	if fr.StepDescriptions[1] != "Given a" || fr.Scenarios[0].StepDescriptions[0] != "Given a" {
		t.Errorf("feature descriptions alias scenario descriptions")
	}
	if fr.Tags[0] != "@smoke" || fr.StepTags[1][0] != "@smoke" {
		t.Errorf("feature tags alias scenario tags")
	}
}

func TestAggregate_FeatureVerdict(t *testing.T) {
	t.Parallel()

	mk := func(name string, o testflo.Outcome) testflo.ScenarioResult {
		return testflo.ScenarioResult{
			Name:             name,
			Rows:             []testflo.Step{testflo.NewStep("Given " + name)},
			StepDescriptions: []string{"Given " + name},
			StepStatuses:     []testflo.Outcome{o},
		}
	}

	fr := Aggregate(
		cucumber.Feature{Name: "F"}, []testflo.ScenarioResult{
			mk("a", testflo.OutcomePassed),
			mk("b", testflo.OutcomeFailed),
			mk("c", testflo.OutcomePassed),
		},
	)

	if fr.Status != testflo.OutcomeFailed {
		t.Errorf("got: %v, want: %v", fr.Status, testflo.OutcomeFailed)
	}
	if fr.FirstFailureIndex != 3 {
		t.Errorf("got: %d, want: %d", fr.FirstFailureIndex, 3)
	}
	if fr.Boundaries() != 3 {
		t.Errorf("got: %d, want: %d", fr.Boundaries(), 3)
	}
}

func TestAggregate_AlignsScreenshots(t *testing.T) {
	t.Parallel()

	fr := Aggregate(
		cucumber.Feature{Name: "F"}, []testflo.ScenarioResult{
			{
				Name:             "A",
				StepDescriptions: []string{"Given a0", "Then a1"},
				StepStatuses:     []testflo.Outcome{testflo.OutcomePassed, testflo.OutcomePassed},
				Screenshots:      []string{"", "png-a1"},
			},
			{
				Name:             "B",
				StepDescriptions: []string{"Given b0", "Then b1"},
				StepStatuses:     []testflo.Outcome{testflo.OutcomePassed, testflo.OutcomePassed},
				Screenshots:      []string{"png-b0"},
			},
			{
				Name:             "C",
				StepDescriptions: []string{"Given c0"},
				StepStatuses:     []testflo.Outcome{testflo.OutcomePassed},
			},
		},
	)

	expected := []string{"", "png-a1", "png-b0", "", ""}
	if diff := cmp.Diff(expected, fr.Screenshots); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"png-b0"}, fr.Scenarios[1].Screenshots); diff != "" {
		t.Errorf("scenario screenshots changed (-want, +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for input, expected := range map[string]Mode{"": ModeScenario, "scenario": ModeScenario, "feature": ModeFeature} {
		got, err := ParseMode(input)
		if err != nil {
			t.Fatal(err)
		}
		if got != expected {
			t.Errorf("got: %v, want: %v", got, expected)
		}
	}

	if _, err := ParseMode("suite"); err == nil {
		t.Errorf("got: nil, want error")
	}
}
