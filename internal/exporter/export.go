package exporter

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/robotomize/go-testflo/internal/ingest"
	"github.com/robotomize/go-testflo/internal/slice"
	"github.com/robotomize/go-testflo/internal/testflo"
)

const (
	KindScenario = "scenario"
	KindFeature  = "feature"
)

const (
	screenshotExt  = ".png"
	screenshotMime = "image/png"
)

// Envelope wraps one canonical record for the output directory.
type Envelope struct {
	UUID      string         `json:"uuid"`
	HistoryID string         `json:"historyId"`
	Kind      string         `json:"kind"`
	Source    string         `json:"source"`
	Record    testflo.Record `json:"record"`
}

type Attachment struct {
	Name   string
	Mime   string
	Source string
	Body   []byte
}

type Report struct {
	Err         error
	Envelopes   []Envelope
	Attachments []Attachment
}

// Export converts ingested batches into envelopes and screenshot
// attachments. Screenshots that are not valid base64 are collected into
// Report.Err; the rest of the report is still produced.
func Export(batches []ingest.Batch) Report {
	var (
		result Report
		errs   []error
	)

	hashFn := md5.New()
	hasher := func(b []byte) string {
		hashFn.Reset()
		hashFn.Write(b)

		return hex.EncodeToString(hashFn.Sum(nil))
	}

	// All screenshots land in one directory, so names are unique per export.
	used := make(map[string]struct{})

	for _, b := range batches {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.File, b.Err))
			continue
		}

		for _, r := range b.Records() {
			kind := KindScenario
			if _, ok := r.(testflo.FeatureResult); ok {
				kind = KindFeature
			}

			result.Envelopes = append(
				result.Envelopes, Envelope{
					UUID:      uuid.NewString(),
					HistoryID: hasher([]byte(b.File + r.RecordName())),
					Kind:      kind,
					Source:    b.File,
					Record:    r,
				},
			)

			attachments, err := Screenshots(r)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %q: %w", b.File, r.RecordName(), err))
			}

			for _, a := range attachments {
				a.Source = reserve(used, a.Source)
				a.Name = a.Source
				result.Attachments = append(result.Attachments, a)
			}
		}
	}

	result.Err = errors.Join(errs...)

	return result
}

// Screenshots decodes the screenshots of r into PNG attachments named by
// ScreenshotPaths.
func Screenshots(r testflo.Record) ([]Attachment, error) {
	var (
		errs        []error
		attachments []Attachment
	)

	names := ScreenshotPaths(r)
	for i, data := range slice.Filter(r.ScreenshotData(), notEmpty) {
		body, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("base64 DecodeString %s: %w", names[i], err))
			continue
		}

		attachments = append(
			attachments, Attachment{
				Name:   names[i],
				Mime:   screenshotMime,
				Source: names[i],
				Body:   body,
			},
		)
	}

	return attachments, errors.Join(errs...)
}

// ScreenshotPaths returns one file name per non-empty screenshot of r. When
// the number of screenshots equals the number of failed steps, screenshots
// are named after the failed steps' descriptions in order; otherwise they
// follow their own slot in the visible step list.
func ScreenshotPaths(r testflo.Record) []string {
	descriptions := visibleDescriptions(r)
	failed := testflo.FailedSteps(r)

	var slots []int
	for i, s := range r.ScreenshotData() {
		if s != "" {
			slots = append(slots, i)
		}
	}

	used := make(map[string]struct{}, len(slots))
	paths := make([]string, 0, len(slots))
	for k, slot := range slots {
		pos := slot
		if len(failed) == len(slots) {
			pos = failed[k]
		}

		name := fmt.Sprintf("screenshot-%d", k)
		if pos < len(descriptions) && descriptions[pos] != "" {
			name = sanitize(descriptions[pos])
		}

		paths = append(paths, reserve(used, name+screenshotExt))
	}

	return paths
}

// reserve returns name, or name with a "-N" suffix before its extension
// when name is already taken, and marks the result as taken.
func reserve(used map[string]struct{}, name string) string {
	candidate := name
	ext := path.Ext(name)
	for n := 1; ; n++ {
		if _, ok := used[candidate]; !ok {
			used[candidate] = struct{}{}
			return candidate
		}

		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
}

func visibleDescriptions(r testflo.Record) []string {
	statuses := r.Statuses()
	descriptions := make([]string, 0, len(statuses))
	for i, d := range r.Descriptions() {
		if i < len(statuses) && statuses[i].IsBoundary() {
			continue
		}

		descriptions = append(descriptions, d)
	}

	return descriptions
}

func notEmpty(s string) bool {
	return s != ""
}

var pathReplacer = strings.NewReplacer("/", "_", "\\", "_")

func sanitize(name string) string {
	return pathReplacer.Replace(strings.TrimSpace(name))
}
