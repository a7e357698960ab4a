// Package attachment assigns step embeddings to the semantic slots of a
// scenario result.
package attachment

import (
	"strings"

	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/testflo"
)

const (
	urlMarker     = "https://"
	emailMarker   = "@"
	sessionMarker = "HS session"
)

// Classify returns the recognised embeddings of one step. Hook steps only
// contribute session markers; visible steps contribute page URLs, user
// identity and screenshots. Unknown mime types are ignored.
func Classify(embeddings []cucumber.Embedding, hook bool) []testflo.Attachment {
	output := make([]testflo.Attachment, 0, len(embeddings))
	for _, e := range embeddings {
		a, ok := classify(e, hook)
		if !ok {
			continue
		}

		output = append(output, a)
	}

	return output
}

func classify(e cucumber.Embedding, hook bool) (testflo.Attachment, bool) {
	a := testflo.Attachment{MimeType: e.MimeType, Data: e.Data}

	if hook {
		session, ok := Session(e.Data)
		if !ok {
			return a, false
		}

		a.Kind = testflo.AttachmentSession
		a.Data = session

		return a, true
	}

	switch e.MimeType {
	case cucumber.MimeTextPlain:
		switch {
		case strings.Contains(e.Data, urlMarker):
			a.Kind = testflo.AttachmentURL
		case strings.Contains(e.Data, emailMarker):
			a.Kind = testflo.AttachmentEmail
		default:
			a.Kind = testflo.AttachmentUID
		}
	case cucumber.MimeImagePNG:
		a.Kind = testflo.AttachmentScreenshot
	default:
		return a, false
	}

	return a, true
}

// Session extracts a session marker from hook output. The marker is the
// first line of the text, kept only when it holds a "-" delimited token.
func Session(data string) (string, bool) {
	if !strings.Contains(data, sessionMarker) {
		return "", false
	}

	line, _, _ := strings.Cut(data, "\n")
	if !strings.Contains(line, "-") {
		return "", false
	}

	return line, true
}

// Apply folds the attachments of the step at rawIndex into result. Later
// values overwrite earlier ones. Screenshots are placed at rawIndex minus
// hooksBefore so that they line up with visible steps.
func Apply(result *testflo.ScenarioResult, attachments []testflo.Attachment, rawIndex, hooksBefore int) {
	for _, a := range attachments {
		switch a.Kind {
		case testflo.AttachmentURL:
			result.CurrentURL = a.Data
		case testflo.AttachmentEmail:
			result.UserEmail = a.Data
		case testflo.AttachmentUID:
			result.UserUID = a.Data
		case testflo.AttachmentSession:
			result.HSSession = a.Data
		case testflo.AttachmentScreenshot:
			idx := rawIndex - hooksBefore
			if idx < 0 {
				continue
			}

			for len(result.Screenshots) <= idx {
				result.Screenshots = append(result.Screenshots, "")
			}
			result.Screenshots[idx] = a.Data
		}
	}
}
