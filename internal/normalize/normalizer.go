// Package normalize repairs semi-structured campaign flows produced by an
// upstream generator. It fills in defaults, coerces out-of-range values,
// drops unrecoverable steps and events, and checks referential integrity,
// recording every change in a ValidationReport.
package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/rendis/campaignflow/internal/expressions"
	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	defaultDescription = "Auto-generated campaign"
	unknownInitialStep = "Unknown"
)

// Result is the outcome of one normalization pass.
type Result struct {
	Flow   map[string]any           `json:"flow" yaml:"flow"`
	Report *schema.ValidationReport `json:"report" yaml:"report"`
}

// Valid reports whether the normalized flow has no errors.
func (r *Result) Valid() bool {
	return r.Report.Valid()
}

// Normalizer holds the immutable collaborators of a normalization pass.
// It is safe for concurrent use; every call owns its own report and copy.
type Normalizer struct {
	logger *slog.Logger
	exprs  *expressions.ExprEngine
	cron   cron.Parser
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for pass summaries.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// WithExprEngine shares an expr engine (and its compile cache) with the caller.
func WithExprEngine(e *expressions.ExprEngine) Option {
	return func(n *Normalizer) { n.exprs = e }
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger: logging.Discard(),
		exprs:  expressions.NewExprEngine(),
		cron:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// pass is the per-call state of one normalization.
type pass struct {
	n      *Normalizer
	report *schema.ValidationReport
}

func (n *Normalizer) newPass() *pass {
	return &pass{n: n, report: schema.NewValidationReport()}
}

// Normalize repairs a copy of raw and checks its references. The input is
// never modified. Normalizing the returned flow again changes nothing and
// emits no warnings.
func (n *Normalizer) Normalize(ctx context.Context, raw map[string]any) *Result {
	flow, _ := deepCopy(raw).(map[string]any)
	if flow == nil {
		flow = map[string]any{}
	}

	p := n.newPass()
	steps := p.normalizeSteps(flow)
	p.normalizeRoot(flow, steps)
	CheckReferences(flow, p.report)

	name, _ := flow[schema.KeyName].(string)
	logging.LogWith(logging.WithFlowName(ctx, name), n.logger).Debug("flow normalized",
		slog.Int("steps", len(steps)),
		slog.Int("errors", len(p.report.Errors)),
		slog.Int("warnings", len(p.report.Warnings)),
	)

	return &Result{Flow: flow, Report: p.report}
}

// NormalizeStep normalizes a single step in place, recording issues in
// report. It returns nil when the step is dropped.
func (n *Normalizer) NormalizeStep(step map[string]any, report *schema.ValidationReport) map[string]any {
	p := &pass{n: n, report: report}
	return p.normalizeStep(step, "step")
}

// NormalizeEvent normalizes a single event owned by stepID, recording issues
// in report. It returns nil when the event is dropped.
func (n *Normalizer) NormalizeEvent(event map[string]any, stepID string, report *schema.ValidationReport) map[string]any {
	p := &pass{n: n, report: report}
	return p.normalizeEvent(event, stepID, "event")
}

// normalizeSteps replaces flow.steps with the surviving normalized steps.
func (p *pass) normalizeSteps(flow map[string]any) []any {
	raw, ok := flow[schema.KeySteps]
	list, isList := raw.([]any)
	if ok && raw != nil && !isList {
		p.report.AddError(schema.KeySteps, schema.ErrCodeValidation, "Flow steps must be a list")
	}

	out := make([]any, 0, len(list))
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		path := fmt.Sprintf("steps[%d]", i)
		step := p.normalizeStep(item, path)
		if step == nil {
			continue
		}
		id := step[schema.KeyID].(string)
		if seen[id] {
			p.report.AddError(path+".id", schema.ErrCodeValidation,
				fmt.Sprintf("Duplicate step id '%s'; later step dropped", id))
			continue
		}
		seen[id] = true
		out = append(out, step)
	}

	flow[schema.KeySteps] = out
	return out
}

// normalizeRoot fills the top-level name, description and initialStepID.
func (p *pass) normalizeRoot(flow map[string]any, steps []any) {
	if _, ok := text(flow, schema.KeyInitialStepID); !ok && len(steps) > 0 {
		first := steps[0].(map[string]any)[schema.KeyID]
		flow[schema.KeyInitialStepID] = first
		p.report.AddWarning(schema.KeyInitialStepID, schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Set initialStepID to first step '%s'", display(first)))
	}

	if _, ok := text(flow, schema.KeyName); !ok {
		initial, ok := text(flow, schema.KeyInitialStepID)
		if !ok {
			initial = unknownInitialStep
		}
		name := "Generated Campaign " + initial
		flow[schema.KeyName] = name
		p.report.AddWarning(schema.KeyName, schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default name '%s'", name))
	}

	if _, ok := text(flow, schema.KeyDescription); !ok {
		desc := defaultDescription
		if meta, ok := flow[schema.KeyMetadata].(map[string]any); ok {
			if d, ok := text(meta, "campaign_description"); ok {
				desc = d
			}
		}
		flow[schema.KeyDescription] = desc
		p.report.AddWarning(schema.KeyDescription, schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added description '%s'", desc))
	}
}
