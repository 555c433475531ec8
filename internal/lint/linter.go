// Package lint grades a normalized campaign flow against SMS marketing
// practice. Advisories never change whether a flow is accepted.
package lint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rendis/campaignflow/internal/expressions"
	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/pkg/schema"
)

// Advisory is one best-practice finding.
type Advisory struct {
	Rule       string `json:"rule" yaml:"rule"`
	Level      Level  `json:"level" yaml:"level"`
	StepID     string `json:"step_id,omitempty" yaml:"step_id,omitempty"`
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Report is the result of linting one flow.
type Report struct {
	Advisories []Advisory `json:"advisories" yaml:"advisories"`
	Score      float64    `json:"score" yaml:"score"`
	Grade      string     `json:"grade" yaml:"grade"`
}

// Warnings returns the warning-level advisories.
func (r *Report) Warnings() []Advisory {
	var out []Advisory
	for _, a := range r.Advisories {
		if a.Level == LevelWarning {
			out = append(out, a)
		}
	}
	return out
}

// Issues renders the advisories as LINT warnings for a ValidationReport.
// Paths index into flow's steps like every other report path.
func (r *Report) Issues(flow map[string]any) []schema.ValidationIssue {
	index := map[string]int{}
	steps, _ := flow[schema.KeySteps].([]any)
	for i, raw := range steps {
		if step, ok := raw.(map[string]any); ok {
			if id, ok := step[schema.KeyID].(string); ok {
				if _, seen := index[id]; !seen {
					index[id] = i
				}
			}
		}
	}

	out := make([]schema.ValidationIssue, 0, len(r.Advisories))
	for _, a := range r.Advisories {
		path := "/"
		if i, ok := index[a.StepID]; ok {
			path = fmt.Sprintf("steps[%d]", i)
			if a.Field != "" {
				path += "." + a.Field
			}
		}
		out = append(out, schema.ValidationIssue{
			Path:     path,
			Code:     schema.ErrCodeLint,
			Message:  fmt.Sprintf("%s: %s", a.Rule, a.Message),
			Severity: schema.SeverityWarning,
		})
	}
	return out
}

// Linter evaluates the built-in rules. Step rules run on expr, flow rules on
// CEL; both engines cache compiled programs, so one Linter serves every
// request.
type Linter struct {
	logger *slog.Logger
	exprs  *expressions.ExprEngine
	cel    *expressions.CELEngine
}

// Option configures a Linter.
type Option func(*Linter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lt *Linter) { lt.logger = l }
}

// WithExprEngine shares an expr engine with other components.
func WithExprEngine(e *expressions.ExprEngine) Option {
	return func(lt *Linter) { lt.exprs = e }
}

// New creates a Linter and compiles every rule up front.
func New(opts ...Option) (*Linter, error) {
	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	lt := &Linter{
		logger: logging.Discard(),
		exprs:  expressions.NewExprEngine(),
		cel:    celEngine,
	}
	for _, opt := range opts {
		opt(lt)
	}

	for _, r := range stepRules {
		if err := lt.exprs.Check(r.When); err != nil {
			return nil, fmt.Errorf("step rule %s: %w", r.ID, err)
		}
	}
	for _, r := range flowRules {
		if err := lt.cel.Check(r.When); err != nil {
			return nil, fmt.Errorf("flow rule %s: %w", r.ID, err)
		}
	}
	return lt, nil
}

// Lint runs every rule over flow. A rule that fails to evaluate is logged
// and skipped.
func (lt *Linter) Lint(ctx context.Context, flow map[string]any) *Report {
	logger := logging.LogWith(ctx, lt.logger)
	report := &Report{Advisories: []Advisory{}}

	rawSteps, _ := flow[schema.KeySteps].([]any)
	steps := make([]map[string]any, 0, len(rawSteps))
	for _, item := range rawSteps {
		if s, ok := item.(map[string]any); ok {
			steps = append(steps, s)
		}
	}

	for _, step := range steps {
		facts := stepFacts(step)
		stepID, _ := step[schema.KeyID].(string)
		for _, r := range stepRules {
			hit, err := lt.exprs.EvaluateBool(ctx, r.When, facts)
			if err != nil {
				logger.Warn("lint rule failed", slog.String("rule", r.ID), slog.String("step_id", stepID), slog.Any("error", err))
				continue
			}
			if hit {
				report.Advisories = append(report.Advisories, Advisory{
					Rule: r.ID, Level: r.Level, StepID: stepID, Field: r.Field,
					Message: r.Message(facts), Suggestion: r.Suggestion,
				})
			}
		}
	}

	stats := flowStats(steps)
	data := map[string]any{"flow": flow, "stats": stats}
	for _, r := range flowRules {
		out, err := lt.cel.Evaluate(ctx, r.When, data)
		if err != nil {
			logger.Warn("lint rule failed", slog.String("rule", r.ID), slog.Any("error", err))
			continue
		}
		if hit, _ := out.(bool); hit {
			report.Advisories = append(report.Advisories, Advisory{
				Rule: r.ID, Level: r.Level, Message: r.Message(stats), Suggestion: r.Suggestion,
			})
		}
	}

	report.Score = score(report.Advisories)
	report.Grade = grade(report.Score)
	logger.Debug("flow linted", slog.Int("advisories", len(report.Advisories)), slog.Float64("score", report.Score))
	return report
}

// score deducts 5 points per warning and 2 per info from 100.
func score(advisories []Advisory) float64 {
	s := 100.0
	for _, a := range advisories {
		switch a.Level {
		case LevelWarning:
			s -= 5
		case LevelInfo:
			s -= 2
		}
	}
	return max(s, 0)
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
