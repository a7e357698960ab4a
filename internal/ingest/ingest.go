// Package ingest parses every report document of a results directory.
package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/robotomize/go-testflo/internal/cucumber"
	reportfs "github.com/robotomize/go-testflo/internal/fs"
	"github.com/robotomize/go-testflo/internal/logging"
	"github.com/robotomize/go-testflo/internal/parser"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// Batch is the outcome of one report document. Err is set when the
// document could not be read; the batch is then empty.
type Batch struct {
	File      string
	Scenarios []testflo.ScenarioResult
	Features  []testflo.FeatureResult
	Err       error
}

// Records returns the batch records as the shared Record view.
func (b Batch) Records() []testflo.Record {
	records := make([]testflo.Record, 0, len(b.Scenarios)+len(b.Features))
	for _, s := range b.Scenarios {
		records = append(records, s)
	}
	for _, f := range b.Features {
		records = append(records, f)
	}

	return records
}

type Option func(*Ingester)

func WithMode(mode parser.Mode) Option {
	return func(i *Ingester) {
		i.mode = mode
	}
}

// WithLimit bounds the number of documents parsed at once. Zero or less
// selects runtime.NumCPU.
func WithLimit(n int) Option {
	return func(i *Ingester) {
		i.limit = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingester) {
		i.logger = logger
	}
}

func New(p *parser.Parser, opts ...Option) *Ingester {
	i := Ingester{parser: p, mode: parser.ModeScenario}
	for _, o := range opts {
		o(&i)
	}

	if i.limit <= 0 {
		i.limit = runtime.NumCPU()
	}

	if i.logger == nil {
		i.logger = logging.New("ingest")
	}

	return &i
}

type Ingester struct {
	parser *parser.Parser
	mode   parser.Mode
	limit  int
	logger *slog.Logger
}

// Dir parses every report of fsys concurrently. A document that cannot be
// read is logged and reported in its batch; the remaining documents are
// still parsed. Batches are ordered by file name.
func (i *Ingester) Dir(ctx context.Context, fsys fs.FS) ([]Batch, error) {
	names, err := reportfs.Reports(fsys)
	if err != nil {
		return nil, fmt.Errorf("reportfs.Reports: %w", err)
	}

	i.logger.Info("report files found", slog.Int("count", len(names)))

	wg, childCtx := errgroup.WithContext(ctx)
	wg.SetLimit(i.limit)

	ch := make(chan Batch)
	closeCh := make(chan struct{})

	batches := make([]Batch, 0, len(names))
	go func() {
		defer close(closeCh)

		for b := range ch {
			batches = append(batches, b)
		}
	}()

OuterLoop:
	for _, name := range names {
		name := name

		select {
		case <-childCtx.Done():
			break OuterLoop
		default:
		}

		wg.Go(
			func() error {
				if err := childCtx.Err(); err != nil {
					return err
				}

				doc, err := fs.ReadFile(fsys, name)
				if err != nil {
					i.logger.Error("read report, skipping", slog.String("file", name), slog.Any("error", err))
					ch <- Batch{File: name, Err: fmt.Errorf("fs.ReadFile: %w", err)}
					return nil
				}

				ch <- i.parse(name, cucumber.Decode(doc))

				return nil
			},
		)
	}

	waitErr := wg.Wait()
	close(ch)
	<-closeCh

	if waitErr != nil {
		return nil, waitErr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(
		batches, func(a, b int) bool {
			return batches[a].File < batches[b].File
		},
	)

	return batches, nil
}

// Reader parses a single document read from r.
func (i *Ingester) Reader(ctx context.Context, name string, r io.Reader) (Batch, error) {
	report, err := cucumber.NewReader(r).ReadAll(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("cucumber.Reader ReadAll: %w", err)
	}

	return i.parse(name, report), nil
}

func (i *Ingester) parse(name string, report cucumber.Report) Batch {
	b := Batch{File: name}

	switch i.mode {
	case parser.ModeFeature:
		b.Features = i.parser.Features(report)
	default:
		b.Scenarios = i.parser.Scenarios(report)
	}

	i.logger.Debug(
		"report parsed",
		slog.String("file", name),
		slog.Int("scenarios", len(b.Scenarios)),
		slog.Int("features", len(b.Features)),
	)

	return b
}
