// Package tag sorts scenario tags into the categories a test management
// system understands.
package tag

import (
	"regexp"
	"strings"

	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/slice"
)

// Category is the label prefix that marks a tag as belonging to a category.
type Category string

const (
	// CategoryNone selects every tag unchanged.
	CategoryNone           Category = ""
	CategoryManualTestCase Category = "@manualTct"
	CategoryRequirement    Category = "@requirement"
	CategoryTestLevel      Category = "@testLevel"
	CategoryTestKind       Category = "@testKind"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryManualTestCase,
	CategoryRequirement,
	CategoryTestLevel,
	CategoryTestKind,
}

var (
	issueKeyPattern = regexp.MustCompile(`\w+-\d+`)
	levelPattern    = regexp.MustCompile(`:\w+-?\d*`)
)

// Pattern returns the expression that extracts a category value from a tag.
// Issue-like categories capture "KEY-123"; level and kind capture ":Value"
// including the leading colon.
func (c Category) Pattern() *regexp.Regexp {
	switch c {
	case CategoryManualTestCase, CategoryRequirement:
		return issueKeyPattern
	case CategoryTestLevel, CategoryTestKind:
		return levelPattern
	default:
		return nil
	}
}

// Classify returns the values of tags that belong to category, in input
// order. A tag belongs to the category when it contains the category label;
// its value is the first match of the category pattern. Tags that contain
// the label but carry no value are dropped. CategoryNone returns a copy of
// tags.
func Classify(tags []string, category Category) []string {
	output := make([]string, 0, len(tags))
	if category == CategoryNone {
		return append(output, tags...)
	}

	pattern := category.Pattern()
	for _, t := range tags {
		if !strings.Contains(t, string(category)) {
			continue
		}

		if pattern == nil {
			output = append(output, t)
			continue
		}

		if match := pattern.FindString(t); match != "" {
			output = append(output, match)
		}
	}

	return output
}

// Free returns tags that contain no known category label.
func Free(tags []string) []string {
	return slice.Filter(
		tags, func(t string) bool {
			for _, c := range Categories {
				if strings.Contains(t, string(c)) {
					return false
				}
			}

			return true
		},
	)
}

// Names flattens report tag objects into their names.
func Names(tags []cucumber.Tag) []string {
	return slice.Map(
		tags, func(t cucumber.Tag) string {
			return t.Name
		},
	)
}

// Set is the categorized view of one tag list.
type Set struct {
	All             []string
	Free            []string
	ManualTestCases []string
	Requirements    []string
	TestLevels      []string
	TestKinds       []string
}

func NewSet(tags []string) Set {
	return Set{
		All:             Classify(tags, CategoryNone),
		Free:            Free(tags),
		ManualTestCases: Classify(tags, CategoryManualTestCase),
		Requirements:    Classify(tags, CategoryRequirement),
		TestLevels:      Classify(tags, CategoryTestLevel),
		TestKinds:       Classify(tags, CategoryTestKind),
	}
}

// Value strips the leading colon captured for level and kind categories.
func Value(v string) string {
	return strings.TrimPrefix(v, ":")
}
