package cucumber

import (
	"errors"
	"fmt"
	"strings"
)

const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

const (
	KeywordBefore = "Before"
	KeywordAfter  = "After"

	// HookName is the name some formatters give to hook steps.
	HookName = "Hook"
)

const (
	MimeTextPlain = "text/plain"
	MimeImagePNG  = "image/png"
)

var ErrMissingField = errors.New("missing required field")

// FieldError reports a required field absent from a report element.
type FieldError struct {
	Path  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Path, ErrMissingField, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

type Feature struct {
	URI         string     `json:"uri"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Elements    []Scenario `json:"elements"`
}

func (f Feature) Validate() error {
	if f.Elements == nil {
		return &FieldError{Path: "feature " + quote(f.Name), Field: "elements"}
	}

	return nil
}

type Scenario struct {
	Name  string `json:"name"`
	Tags  []Tag  `json:"tags"`
	Steps []Step `json:"steps"`
}

func (s Scenario) Validate() error {
	path := "scenario " + quote(s.Name)
	if s.Steps == nil {
		return &FieldError{Path: path, Field: "steps"}
	}

	for idx, step := range s.Steps {
		stepPath := fmt.Sprintf("%s step %d", path, idx)
		if step.Result == nil {
			return &FieldError{Path: stepPath, Field: "result"}
		}

		// An empty status would collide with the feature boundary marker.
		if step.Result.Status == "" {
			return &FieldError{Path: stepPath, Field: "result.status"}
		}
	}

	return nil
}

type Tag struct {
	Name string `json:"name"`
}

type Step struct {
	Keyword    string      `json:"keyword"`
	Name       string      `json:"name"`
	Result     *Result     `json:"result"`
	Embeddings []Embedding `json:"embeddings"`
}

// IsHook reports whether the step is a setup or teardown step that has no
// user-visible name.
func (s Step) IsHook() bool {
	return s.Name == "" || s.Name == HookName
}

func (s Step) IsBeforeHook() bool {
	return strings.TrimSpace(s.Keyword) == KeywordBefore
}

func (s Step) Status() string {
	if s.Result == nil {
		return ""
	}

	return s.Result.Status
}

func (s Step) ErrorMessage() string {
	if s.Result == nil {
		return ""
	}

	return s.Result.ErrorMessage
}

type Result struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Duration     int64  `json:"duration,omitempty"`
}

type Embedding struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
