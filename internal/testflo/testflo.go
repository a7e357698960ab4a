package testflo

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"

	// OutcomeNone marks a scenario boundary in flattened feature sequences.
	OutcomeNone Outcome = ""
)

// FeatureNamePrefix is prepended to every feature-granularity record name.
const FeatureNamePrefix = "(Auto-Generated) "

type Outcome string

func (o Outcome) IsBoundary() bool {
	return o == OutcomeNone
}

type AttachmentKind string

const (
	AttachmentURL        AttachmentKind = "url"
	AttachmentEmail      AttachmentKind = "email"
	AttachmentUID        AttachmentKind = "uid"
	AttachmentScreenshot AttachmentKind = "screenshot"
	AttachmentSession    AttachmentKind = "session"
)

type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	MimeType string         `json:"mimeType"`
	Data     string         `json:"data"`
}

// Step is a single row of a test steps table. Cells hold action, input and
// expected result in that order.
type Step struct {
	Cells   []string `json:"cells"`
	IsGroup bool     `json:"isGroup"`
}

func NewStep(label string) Step {
	return Step{Cells: []string{label, "", ""}}
}

func NewGroupStep(name string) Step {
	return Step{Cells: []string{name, "", ""}, IsGroup: true}
}

func (s Step) Clone() Step {
	cells := make([]string, len(s.Cells))
	copy(cells, s.Cells)

	return Step{Cells: cells, IsGroup: s.IsGroup}
}

type StepRecord struct {
	Label        string       `json:"label"`
	Description  string       `json:"description"`
	Outcome      Outcome      `json:"outcome"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

func (s StepRecord) Clone() StepRecord {
	c := s
	if s.Attachments != nil {
		c.Attachments = make([]Attachment, len(s.Attachments))
		copy(c.Attachments, s.Attachments)
	}

	return c
}

type ScenarioResult struct {
	Name              string       `json:"name"`
	Steps             []StepRecord `json:"steps"`
	Rows              []Step       `json:"rows"`
	StepDescriptions  []string     `json:"stepDescriptions"`
	StepStatuses      []Outcome    `json:"stepStatuses"`
	Status            Outcome      `json:"status"`
	FirstFailureIndex int          `json:"firstFailureIndex"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
	ManualTestCases   []string     `json:"manualTestCases"`
	Requirements      []string     `json:"requirements"`
	Tags              []string     `json:"tags"`
	FreeTags          []string     `json:"freeTags"`
	ScriptPath        string       `json:"scriptPath,omitempty"`
	HSSession         string       `json:"hsSession,omitempty"`
	CurrentURL        string       `json:"currentUrl,omitempty"`
	UserEmail         string       `json:"userEmail,omitempty"`
	UserUID           string       `json:"userUid,omitempty"`
	// Screenshots is indexed by visible step position; steps without a
	// screenshot hold an empty string.
	Screenshots []string `json:"screenshots"`
}

// Clone returns a deep copy that shares no slices with s.
func (s ScenarioResult) Clone() ScenarioResult {
	c := s
	c.Steps = cloneSlice(s.Steps)
	for i := range c.Steps {
		c.Steps[i] = c.Steps[i].Clone()
	}

	c.Rows = cloneSlice(s.Rows)
	for i := range c.Rows {
		c.Rows[i] = c.Rows[i].Clone()
	}

	c.StepDescriptions = cloneSlice(s.StepDescriptions)
	c.StepStatuses = cloneSlice(s.StepStatuses)
	c.ManualTestCases = cloneSlice(s.ManualTestCases)
	c.Requirements = cloneSlice(s.Requirements)
	c.Tags = cloneSlice(s.Tags)
	c.FreeTags = cloneSlice(s.FreeTags)
	c.Screenshots = cloneSlice(s.Screenshots)

	return c
}

type FeatureResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Scenarios are owned copies in visiting order.
	Scenarios []ScenarioResult `json:"scenarios"`
	// Rows, StepDescriptions, StepStatuses and StepTags carry one boundary
	// entry before the steps of every scenario: a group row, an empty
	// description, OutcomeNone and nil tags respectively.
	Rows              []Step     `json:"rows"`
	StepDescriptions  []string   `json:"stepDescriptions"`
	StepStatuses      []Outcome  `json:"stepStatuses"`
	StepTags          [][]string `json:"stepTags"`
	Status            Outcome    `json:"status"`
	FirstFailureIndex int        `json:"firstFailureIndex"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ManualTestCases   []string   `json:"manualTestCases"`
	Requirements      []string   `json:"requirements"`
	TestLevel         []string   `json:"testLevel"`
	TestKinds         []string   `json:"testKinds"`
	Tags              []string   `json:"tags"`
	FreeTags          []string   `json:"freeTags"`
	ScriptPath        string     `json:"scriptPath,omitempty"`
	CurrentURL        string     `json:"currentUrl,omitempty"`
	Screenshots       []string   `json:"screenshots"`
}

// Boundaries returns the number of scenario boundary markers.
func (f FeatureResult) Boundaries() int {
	var n int
	for _, s := range f.StepStatuses {
		if s.IsBoundary() {
			n++
		}
	}

	return n
}

// Record is the view shared by scenario and feature results that downstream
// consumers (exporter, reconciler) need.
type Record interface {
	RecordName() string
	RecordStatus() Outcome
	StepRows() []Step
	Descriptions() []string
	Statuses() []Outcome
	ScreenshotData() []string
}

var (
	_ Record = ScenarioResult{}
	_ Record = FeatureResult{}
)

func (s ScenarioResult) RecordName() string       { return s.Name }
func (s ScenarioResult) RecordStatus() Outcome    { return s.Status }
func (s ScenarioResult) StepRows() []Step         { return s.Rows }
func (s ScenarioResult) Descriptions() []string   { return s.StepDescriptions }
func (s ScenarioResult) Statuses() []Outcome      { return s.StepStatuses }
func (s ScenarioResult) ScreenshotData() []string { return s.Screenshots }

func (f FeatureResult) RecordName() string       { return f.Name }
func (f FeatureResult) RecordStatus() Outcome    { return f.Status }
func (f FeatureResult) StepRows() []Step         { return f.Rows }
func (f FeatureResult) Descriptions() []string   { return f.StepDescriptions }
func (f FeatureResult) Statuses() []Outcome      { return f.StepStatuses }
func (f FeatureResult) ScreenshotData() []string { return f.Screenshots }

// FailedSteps returns positions of failed steps counted over visible steps
// only, skipping boundary markers.
func FailedSteps(r Record) []int {
	indexes := make([]int, 0)
	var pos int
	for _, s := range r.Statuses() {
		if s.IsBoundary() {
			continue
		}
		if s == OutcomeFailed {
			indexes = append(indexes, pos)
		}
		pos++
	}

	return indexes
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}

	c := make([]T, len(s))
	copy(c, s)

	return c
}
