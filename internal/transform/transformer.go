// Package transform maps flows the normalizer could not repair onto the
// canonical step graph of the execution engine. The mapping is lossy; it
// always produces a usable graph and records every step it dropped or
// synthesized.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/rendis/campaignflow/internal/expressions"
	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	canonicalVersion   = "1.0"
	defaultInitialStep = "welcome-step"
	defaultRawType     = "message"
)

// IDGenerator returns a fresh, unique step id.
type IDGenerator func() string

// CanonicalChecker reports schema violations of a canonical graph.
type CanonicalChecker interface {
	Canonical(g *schema.CanonicalGraph) []string
}

// Transformer converts raw flows into canonical graphs. It is safe for
// concurrent use as long as the IDGenerator is.
type Transformer struct {
	logger  *slog.Logger
	jq      *expressions.GoJQEngine
	newID   IDGenerator
	cron    cron.Parser
	checker CanonicalChecker
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) { t.logger = l }
}

// WithIDGenerator replaces uuid.NewString, mainly for deterministic tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Transformer) { t.newID = g }
}

// WithGoJQEngine shares a jq engine and its compile cache.
func WithGoJQEngine(e *expressions.GoJQEngine) Option {
	return func(t *Transformer) { t.jq = e }
}

// WithCanonicalChecker validates every produced graph. Violations are
// reported as degradations, never as failures.
func WithCanonicalChecker(c CanonicalChecker) Option {
	return func(t *Transformer) { t.checker = c }
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		logger: logging.Discard(),
		jq:     expressions.NewGoJQEngine(),
		newID:  uuid.NewString,
		cron:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform builds a canonical graph from raw. Steps that cannot be mapped
// are skipped and their indices reported in FailedSteps. It fails only when
// there are no steps or none of them could be mapped.
func (t *Transformer) Transform(ctx context.Context, raw map[string]any) (*schema.TransformResult, error) {
	rawSteps, _ := raw[schema.KeySteps].([]any)
	if len(rawSteps) == 0 {
		return nil, schema.NewError(schema.ErrCodeTransformation, "flow has no steps to transform")
	}

	logger := logging.LogWith(ctx, t.logger)
	result := &schema.TransformResult{
		Graph: &schema.CanonicalGraph{
			Metadata: metadataOf(raw),
			Version:  canonicalVersion,
			Active:   true,
		},
		FailedSteps:  []int{},
		Degradations: []string{},
	}

	idMap := make(map[string]string, len(rawSteps))
	for i, item := range rawSteps {
		step, oldID, err := t.transformStep(ctx, logger, i, item, result)
		if err != nil {
			logger.Warn("step skipped", slog.Int("step_index", i), slog.Any("error", err))
			result.FailedSteps = append(result.FailedSteps, i)
			continue
		}
		idMap[oldID] = step.ID
		result.Graph.Steps = append(result.Graph.Steps, step)
	}

	if len(result.Graph.Steps) == 0 {
		return nil, schema.NewError(schema.ErrCodeTransformation, "no step could be transformed").
			WithDetails(map[string]any{"failed_steps": result.FailedSteps})
	}

	remap(result.Graph, idMap)
	t.resolveInitial(raw, rawSteps, idMap, result)

	if t.checker != nil {
		for _, v := range t.checker.Canonical(result.Graph) {
			result.Degradations = append(result.Degradations, "canonical schema: "+v)
		}
	}

	logger.Info("flow transformed",
		slog.Int("steps", len(result.Graph.Steps)),
		slog.Int("failed", len(result.FailedSteps)),
		slog.Int("degradations", len(result.Degradations)),
	)
	return result, nil
}

func (t *Transformer) transformStep(
	ctx context.Context, logger *slog.Logger, index int, item any, result *schema.TransformResult,
) (schema.CanonicalStep, string, error) {
	raw, ok := item.(map[string]any)
	if !ok {
		return schema.CanonicalStep{}, "", schema.NewErrorf(schema.ErrCodeTransformation, "step %d is not an object", index)
	}
	oldID := stringify(raw[schema.KeyID])
	if oldID == "" {
		return schema.CanonicalStep{}, "", schema.NewErrorf(schema.ErrCodeTransformation, "step %d has no id", index)
	}

	rawType := stringify(raw[schema.KeyType])
	if rawType == "" {
		rawType = defaultRawType
	}
	kind, known := kindMapping[rawType]
	if !known {
		kind = schema.CanonicalSendMessage
		result.Degradations = append(result.Degradations,
			fmt.Sprintf("step '%s': unknown type '%s' rendered as SendMessage", oldID, rawType))
	}

	v := &stepView{
		ctx:    logging.WithStepID(ctx, oldID),
		raw:    raw,
		index:  index,
		t:      t,
		logger: logger.With(slog.String("step_id", oldID)),
	}

	return schema.CanonicalStep{
		ID:         t.newID(),
		Type:       kind,
		Config:     buildConfig(kind, v),
		NextStepID: v.queryString(nextChain, ""),
		Active:     v.active(),
	}, oldID, nil
}

// remap rewrites references from raw ids to generated ids. References to ids
// that were never mapped are left as they are.
func remap(g *schema.CanonicalGraph, idMap map[string]string) {
	lookup := func(id string) string {
		if mapped, ok := idMap[id]; ok {
			return mapped
		}
		return id
	}
	for i := range g.Steps {
		s := &g.Steps[i]
		if s.NextStepID != "" {
			s.NextStepID = lookup(s.NextStepID)
		}
		if rc, ok := s.Config.(schema.RandomConfig); ok {
			if rc.TrueStepID != "" {
				rc.TrueStepID = lookup(rc.TrueStepID)
			}
			if rc.FalseStepID != "" {
				rc.FalseStepID = lookup(rc.FalseStepID)
			}
			s.Config = rc
		}
	}
}

func (t *Transformer) resolveInitial(raw map[string]any, rawSteps []any, idMap map[string]string, result *schema.TransformResult) {
	initial := stringify(raw[schema.KeyInitialStepID])
	if initial == "" {
		if first, ok := rawSteps[0].(map[string]any); ok {
			initial = stringify(first[schema.KeyID])
		}
	}
	if initial == "" {
		initial = defaultInitialStep
	}

	if mapped, ok := idMap[initial]; ok {
		result.Graph.InitialStepID = mapped
		return
	}
	result.Graph.InitialStepID = result.Graph.Steps[0].ID
	result.Degradations = append(result.Degradations,
		fmt.Sprintf("initial step '%s' not found; using first transformed step", initial))
}

func metadataOf(raw map[string]any) map[string]any {
	if m, ok := raw[schema.KeyMetadata].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
