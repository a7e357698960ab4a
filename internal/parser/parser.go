package parser

import (
	"fmt"
	"log/slog"

	"github.com/robotomize/go-testflo/internal/cucumber"
	"github.com/robotomize/go-testflo/internal/logging"
	"github.com/robotomize/go-testflo/internal/scenario"
	"github.com/robotomize/go-testflo/internal/status"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// Mode selects the granularity of produced records.
type Mode string

const (
	ModeScenario Mode = "scenario"
	ModeFeature  Mode = "feature"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeScenario:
		return ModeScenario, nil
	case ModeFeature:
		return ModeFeature, nil
	default:
		return ModeScenario, fmt.Errorf("unknown mode %q", s)
	}
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

func WithSkippedPolicy(policy status.SkippedPolicy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

func New(opts ...Option) *Parser {
	p := Parser{policy: status.DefaultSkippedPolicy}
	for _, o := range opts {
		o(&p)
	}

	return &p
}

// Parser converts report documents into canonical records. It holds no
// state between calls and is safe for concurrent use.
type Parser struct {
	logger *slog.Logger
	policy status.SkippedPolicy
}

// ParseScenarios returns one record per scenario in declaration order.
// Parsing problems are logged; the records built before the problem are
// returned.
func ParseScenarios(doc []byte) []testflo.ScenarioResult {
	return New().ParseScenarios(doc)
}

// ParseFeatures returns one aggregated record per feature.
func ParseFeatures(doc []byte) []testflo.FeatureResult {
	return New().ParseFeatures(doc)
}

func (p *Parser) ParseScenarios(doc []byte) []testflo.ScenarioResult {
	return p.Scenarios(cucumber.Decode(doc))
}

func (p *Parser) ParseFeatures(doc []byte) []testflo.FeatureResult {
	return p.Features(cucumber.Decode(doc))
}

func (p *Parser) Scenarios(report cucumber.Report) []testflo.ScenarioResult {
	result := make([]testflo.ScenarioResult, 0)

	for _, feature := range report.Features {
		if err := feature.Validate(); err != nil {
			p.fail(err, len(result))
			return result
		}

		for _, sc := range ScenarioOrderDeclared.Apply(feature.Elements) {
			if err := sc.Validate(); err != nil {
				p.fail(err, len(result))
				return result
			}

			result = append(result, scenario.FromScenario(sc, p.statusOptions()...))
		}
	}

	if report.Err != nil {
		p.fail(report.Err, len(result))
	}

	return result
}

func (p *Parser) Features(report cucumber.Report) []testflo.FeatureResult {
	result := make([]testflo.FeatureResult, 0)

	for _, feature := range report.Features {
		fr, err := p.feature(feature)
		if err != nil {
			p.fail(err, len(result))
			return result
		}

		result = append(result, fr)
	}

	if report.Err != nil {
		p.fail(report.Err, len(result))
	}

	return result
}

func (p *Parser) feature(feature cucumber.Feature) (testflo.FeatureResult, error) {
	if err := feature.Validate(); err != nil {
		return testflo.FeatureResult{}, err
	}

	visited := FeatureScenarioOrder.Apply(feature.Elements)
	scenarios := make([]testflo.ScenarioResult, 0, len(visited))
	for _, sc := range visited {
		if err := sc.Validate(); err != nil {
			return testflo.FeatureResult{}, err
		}

		scenarios = append(scenarios, scenario.FromScenario(sc, p.statusOptions()...))
	}

	return Aggregate(feature, scenarios, p.statusOptions()...), nil
}

func (p *Parser) statusOptions() []status.Option {
	return []status.Option{status.WithSkippedPolicy(p.policy)}
}

func (p *Parser) fail(err error, parsed int) {
	logger := p.logger
	if logger == nil {
		logger = logging.New("parser")
	}

	logger.Error("parse report, continuing with partial results", slog.Any("error", err), slog.Int("parsed", parsed))
}
