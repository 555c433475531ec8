// Package pipeline wires envelope validation, normalization, reachability,
// strict parsing, fallback transformation and linting into one call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rendis/campaignflow/internal/expressions"
	"github.com/rendis/campaignflow/internal/lint"
	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/internal/normalize"
	"github.com/rendis/campaignflow/internal/transform"
	"github.com/rendis/campaignflow/internal/validation"
	"github.com/rendis/campaignflow/pkg/schema"
)

// Mode tells which representation an Outcome carries.
type Mode string

const (
	// ModeNormalized: the repaired flow is valid and strictly typed.
	ModeNormalized Mode = "normalized"
	// ModeTransformed: repair failed and the canonical fallback was built.
	ModeTransformed Mode = "transformed"
	// ModeRejected: neither representation is usable.
	ModeRejected Mode = "rejected"
)

// Options selects the optional stages.
type Options struct {
	FallbackEnabled            bool
	LintEnabled                bool
	DuplicateTargetsAsWarnings bool

	Logger      *slog.Logger
	IDGenerator transform.IDGenerator
}

// Outcome is the result of processing one flow. Report always holds every
// issue found; Flow is nil only when the envelope check failed.
type Outcome struct {
	Mode      Mode                     `json:"mode" yaml:"mode"`
	Flow      map[string]any           `json:"flow,omitempty" yaml:"flow,omitempty"`
	Typed     *schema.Flow             `json:"-" yaml:"-"`
	Report    *schema.ValidationReport `json:"report" yaml:"report"`
	Transform *schema.TransformResult  `json:"transform,omitempty" yaml:"transform,omitempty"`
	Lint      *lint.Report             `json:"lint,omitempty" yaml:"lint,omitempty"`
}

// Processor runs the full pipeline. It holds only immutable collaborators
// and is safe for concurrent use.
type Processor struct {
	opts        Options
	logger      *slog.Logger
	validator   *validation.FlowValidator
	normalizer  *normalize.Normalizer
	transformer *transform.Transformer
	linter      *lint.Linter
}

// New builds a Processor. The expr engine is shared between the normalizer
// and the linter so both reuse one compile cache.
func New(opts Options) (*Processor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	v, err := validation.NewFlowValidator()
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	exprs := expressions.NewExprEngine()
	linter, err := lint.New(lint.WithLogger(logger), lint.WithExprEngine(exprs))
	if err != nil {
		return nil, fmt.Errorf("build linter: %w", err)
	}

	tOpts := []transform.Option{transform.WithLogger(logger), transform.WithCanonicalChecker(v)}
	if opts.IDGenerator != nil {
		tOpts = append(tOpts, transform.WithIDGenerator(opts.IDGenerator))
	}

	return &Processor{
		opts:        opts,
		logger:      logger,
		validator:   v,
		normalizer:  normalize.New(normalize.WithLogger(logger), normalize.WithExprEngine(exprs)),
		transformer: transform.New(tOpts...),
		linter:      linter,
	}, nil
}

// Normalizer exposes the processor's normalizer.
func (p *Processor) Normalizer() *normalize.Normalizer { return p.normalizer }

// Transformer exposes the processor's transformer.
func (p *Processor) Transformer() *transform.Transformer { return p.transformer }

// Validator exposes the processor's validator.
func (p *Processor) Validator() *validation.FlowValidator { return p.validator }

// Linter exposes the processor's linter.
func (p *Processor) Linter() *lint.Linter { return p.linter }

// Process runs every stage over raw. The returned Outcome is never nil; the
// error is non-nil exactly when the Outcome is rejected.
func (p *Processor) Process(ctx context.Context, raw any) (*Outcome, error) {
	if logging.RequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.LogWith(ctx, p.logger)

	out := &Outcome{Report: p.validator.Envelope(raw)}
	flowIn, isMap := raw.(map[string]any)
	if out.Report.Valid() && !isMap {
		out.Report.AddError("/", schema.ErrCodeValidation, fmt.Sprintf("flow must be a JSON object, got %T", raw))
	}
	if !out.Report.Valid() {
		out.Mode = ModeRejected
		logger.Info("flow rejected", slog.String("stage", "envelope"))
		return out, schema.NewError(schema.ErrCodeValidation, "flow envelope is invalid").
			WithDetails(map[string]any{"violations": out.Report.ErrorMessages()})
	}

	res := p.normalizer.Normalize(ctx, flowIn)
	out.Flow = res.Flow
	out.Report.Merge(res.Report)
	out.Report.Merge(p.validator.Reachability(res.Flow))

	if p.opts.DuplicateTargetsAsWarnings {
		out.Report.Downgrade(schema.ErrCodeDuplicateTarget)
	}

	if out.Report.Valid() {
		typed, strict := p.validator.Strict(res.Flow)
		out.Report.Merge(strict)
		out.Typed = typed
	}

	if p.opts.LintEnabled {
		out.Lint = p.linter.Lint(ctx, res.Flow)
		out.Report.Warnings = append(out.Report.Warnings, out.Lint.Issues(res.Flow)...)
		logger.Debug("flow linted", slog.String("grade", out.Lint.Grade), slog.Int("lint_warnings", len(out.Lint.Warnings())))
	}

	if out.Report.Valid() {
		out.Mode = ModeNormalized
		logger.Info("flow accepted", slog.String("mode", string(out.Mode)), slog.Int("warnings", len(out.Report.Warnings)))
		return out, nil
	}

	if !p.opts.FallbackEnabled {
		out.Mode = ModeRejected
		logger.Info("flow rejected", slog.String("stage", "normalize"), slog.Int("errors", len(out.Report.Errors)))
		return out, out.Report.ToError()
	}

	tr, err := p.transformer.Transform(ctx, flowIn)
	if err != nil {
		out.Mode = ModeRejected
		logger.Warn("fallback transformation failed", slog.Any("error", err))
		return out, err
	}
	out.Mode = ModeTransformed
	out.Transform = tr
	logger.Info("flow transformed",
		slog.Int("errors", len(out.Report.Errors)),
		slog.Bool("degraded", tr.Degraded()),
	)
	return out, nil
}
