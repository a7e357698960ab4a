package cucumber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Report holds the features decoded from one document. Err is set when
// decoding stopped early; Features then holds everything decoded before the
// failing feature.
type Report struct {
	Err      error
	Features []Feature
}

// Decode splits doc into feature objects and decodes them in order. A
// document that is not a JSON array yields an empty report.
func Decode(doc []byte) Report {
	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(doc), &raw); err != nil {
		return Report{Err: fmt.Errorf("json.Unmarshal: %w", err)}
	}

	features := make([]Feature, 0, len(raw))
	for idx, msg := range raw {
		var feature Feature
		if err := json.Unmarshal(msg, &feature); err != nil {
			return Report{
				Err:      fmt.Errorf("feature %d json.Unmarshal: %w", idx, err),
				Features: features,
			}
		}

		features = append(features, feature)
	}

	return Report{Features: features}
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Reader decodes a whole report document from an underlying stream.
type Reader struct {
	r io.Reader
}

func (r *Reader) ReadAll(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	doc, err := io.ReadAll(r.r)
	if err != nil {
		return Report{}, fmt.Errorf("io.ReadAll: %w", err)
	}

	return Decode(doc), nil
}
