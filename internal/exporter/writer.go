package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Writer interface {
	WriteReport(ctx context.Context, envelopes []Envelope) error
	WriteAttachments(ctx context.Context, attachments []Attachment) error
}

type WriterOption func(*writer)

func WriteToFile(pth string) WriterOption {
	return func(w *writer) {
		w.pth = pth
	}
}

func WriteReportTo(writers ...io.Writer) WriterOption {
	return func(w *writer) {
		w.reportWriters = append(w.reportWriters, writers...)
	}
}

func NewWriter(opts ...WriterOption) Writer {
	w := writer{reportWriters: []io.Writer{io.Discard}}
	for _, o := range opts {
		o(&w)
	}

	return &w
}

type writer struct {
	pth           string
	reportWriters []io.Writer
}

// WriteReport writes every envelope to the report writers and, when a path
// is set, to <uuid>-result.json under it.
func (o *writer) WriteReport(ctx context.Context, envelopes []Envelope) error {
	// Stop early when the context is already done.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Make sure the output directory exists before any envelope is written.
	if len(o.pth) > 0 {
		if err := mkdir(o.pth); err != nil {
			return err
		}
	}

	// Each envelope goes to its own result file.
	for _, e := range envelopes {
		if err := o.writeReport(e); err != nil {
			return fmt.Errorf("writeReport envelope: %w", err)
		}
	}

	return nil
}

// WriteAttachments writes screenshot files next to the envelopes. Without an
// output path there is nowhere to put them and nothing is written.
func (o *writer) WriteAttachments(ctx context.Context, attachments []Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if o.pth == "" {
		return nil
	}

	if err := mkdir(o.pth); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	// Screenshot names are already unique within one export.
	for _, attachment := range attachments {
		if err := o.writeAttachmentFile(attachment); err != nil {
			return err
		}
	}

	return nil
}

// writeAttachmentFile stores the decoded body of one attachment under the
// output path.
func (o *writer) writeAttachmentFile(attachment Attachment) error {
	pth := filepath.Join(o.pth, attachment.Source)

	file, err := os.OpenFile(pth, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("os.OpenFile: %w", err)
	}

	// Close the file when the body is written.
	defer file.Close()

	if _, err = file.Write(attachment.Body); err != nil {
		return fmt.Errorf("os.OpenFile Write: %w", err)
	}

	// Sync the file to disk to ensure the data is actually written.
	if err = file.Sync(); err != nil {
		return fmt.Errorf("os.OpenFile Sync: %w", err)
	}

	return nil
}

// writeReport encodes one envelope to the report writers and, when an output
// path is set, to its result file.
func (o *writer) writeReport(e Envelope) (err error) {
	// Console writers first, then the result file when a path is set.
	writers := make([]io.Writer, len(o.reportWriters))
	copy(writers, o.reportWriters)

	if o.pth != "" {
		pth := filepath.Join(o.pth, fmt.Sprintf("%s-result.json", e.UUID))
		file, openErr := os.OpenFile(pth, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if openErr != nil {
			return fmt.Errorf("os.OpenFile: %w", openErr)
		}

		defer func() {
			if syncErr := file.Sync(); syncErr != nil && err == nil {
				err = fmt.Errorf("file Sync: %w", syncErr)
			}

			_ = file.Close()
		}()

		writers = append(writers, file)
	}

	// Envelopes are written indented, one JSON document each.
	enc := json.NewEncoder(io.MultiWriter(writers...))
	enc.SetIndent("", "  ")

	if encErr := enc.Encode(e); encErr != nil {
		return fmt.Errorf("json.NewEncoder.Encode: %w", encErr)
	}

	return nil
}
