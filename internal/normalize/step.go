package normalize

import (
	"fmt"
	"strings"

	"github.com/rendis/campaignflow/internal/registry"
	"github.com/rendis/campaignflow/pkg/schema"
)

// stepCtx carries one step through its per-kind normalizer.
type stepCtx struct {
	m          map[string]any
	id         string
	kind       schema.StepKind
	path       string
	hadContent bool
}

// normalizeStep returns the normalized step, or nil when it is dropped.
func (p *pass) normalizeStep(raw any, path string) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		p.report.AddError(path, schema.ErrCodeValidation, "Step is not an object")
		return nil
	}

	id, ok := text(m, schema.KeyID)
	if !ok {
		p.report.AddError(path+".id", schema.ErrCodeMissingField, "Step missing required 'id' field")
		return nil
	}
	if !present(m, schema.KeyType) {
		p.report.AddError(path+".type", schema.ErrCodeMissingField,
			fmt.Sprintf("Step %s missing required 'type' field", id))
		return nil
	}
	kind, ok := registry.Lookup(m[schema.KeyType])
	if !ok {
		p.report.AddError(path+".type", schema.ErrCodeInvalidNodeType,
			fmt.Sprintf("Invalid node type: %s", display(m[schema.KeyType])))
		return nil
	}

	s := &stepCtx{m: m, id: id, kind: kind, path: path}
	_, s.hadContent = text(m, schema.KeyContent)

	if _, ok := text(m, schema.KeyLabel); !ok {
		label := titleCase(id)
		if label == "" {
			label = id
		}
		m[schema.KeyLabel] = label
		p.warn(s, schema.KeyLabel, schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default label '%s' to step %s", label, id))
	}
	if !s.hadContent {
		content := "Step " + m[schema.KeyLabel].(string)
		m[schema.KeyContent] = content
		p.warn(s, schema.KeyContent, schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default content '%s' to step %s", content, id))
	}

	setDefault(m, schema.KeyActive, true)
	setDefault(m, schema.KeyParameters, map[string]any{})
	for k, v := range registry.SilentDefaults(kind) {
		setDefault(m, k, v)
	}

	switch kind {
	case schema.StepMessage:
		p.messageStep(s)
	case schema.StepDelay:
		p.delayStep(s)
	case schema.StepSegment:
		p.segmentStep(s)
	case schema.StepProductChoice:
		p.productChoiceStep(s)
	case schema.StepPurchase:
		setDefault(m, "products", []any{})
	case schema.StepPurchaseOffer:
		setDefault(m, "messageText", p.messageSource(s, ""))
		setDefault(m, "products", []any{})
	case schema.StepReplyCartChoice:
		setDefault(m, "messageText", p.messageSource(s, registry.ReplyCartChoicePrompt))
		setDefault(m, "cartItems", []any{})
	case schema.StepNoReply:
		p.noReplyStep(s)
	case schema.StepProperty:
		if emptyList(m["properties"]) {
			m["properties"] = registry.DefaultProperties(id)
			p.warn(s, "properties", schema.ErrCodeDefaultApplied,
				fmt.Sprintf("Added default properties to property step %s", id))
		}
	case schema.StepRateLimit:
		p.limitStep(s, registry.DefaultRateLimitOccurrences, "rateLimit", "limit")
	case schema.StepLimit:
		p.limitStep(s, registry.DefaultLimitOccurrences, "limit", "value")
	case schema.StepExperiment:
		p.experimentStep(s)
	case schema.StepQuiz:
		p.quizStep(s)
	case schema.StepSchedule:
		p.scheduleStep(s)
	case schema.StepSplit, schema.StepSplitGroup, schema.StepSplitRange, schema.StepReply,
		schema.StepEnd, schema.StepStart:
		// Profile defaults only.
	}

	p.normalizeEvents(m, id, path)
	return m
}

func (p *pass) warn(s *stepCtx, field, code, message string) {
	p.report.AddWarning(s.path+"."+field, code, message)
}

// defaulted sets field to value when absent and records a warning.
func (p *pass) defaulted(s *stepCtx, field string, value any) {
	if present(s.m, field) {
		return
	}
	s.m[field] = value
	p.warn(s, field, schema.ErrCodeDefaultApplied,
		fmt.Sprintf("Added default %s '%v' to %s step %s", field, value, s.kind, s.id))
}

// period defaults or coerces a title-cased period field.
func (p *pass) period(s *stepCtx, field string) {
	v, ok := s.m[field]
	switch {
	case !ok || v == nil:
		p.defaulted(s, field, registry.DefaultPeriod)
	case !registry.ValidPeriod(v):
		s.m[field] = registry.DefaultPeriod
		p.warn(s, field, schema.ErrCodeValueCoerced,
			fmt.Sprintf("Coerced invalid %s '%s' to '%s' in step %s", field, display(v), registry.DefaultPeriod, s.id))
	}
}

// messageSource picks the text mirrored into messageText: the declared content,
// then a raw "text" field, then the synthesized content, then fallback.
func (p *pass) messageSource(s *stepCtx, fallback string) string {
	if s.hadContent {
		return s.m[schema.KeyContent].(string)
	}
	if t, ok := text(s.m, "text"); ok {
		return t
	}
	if c, ok := text(s.m, schema.KeyContent); ok {
		return c
	}
	return fallback
}

func (p *pass) messageStep(s *stepCtx) {
	if present(s.m, "messageText") {
		return
	}
	s.m["messageText"] = p.messageSource(s, "")
	p.warn(s, "messageText", schema.ErrCodeDefaultApplied,
		fmt.Sprintf("Set messageText from content for step %s", s.id))
}

func (p *pass) delayStep(s *stepCtx) {
	p.defaulted(s, "time", registry.DefaultDelayTime)
	p.period(s, "period")
	setDefault(s.m, "delay", map[string]any{"value": s.m["time"], "unit": s.m["period"]})
}

func (p *pass) segmentStep(s *stepCtx) {
	if emptyList(s.m["conditions"]) {
		s.m["conditions"] = []any{registry.DefaultSegmentCondition()}
		p.warn(s, "conditions", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default condition to segment step %s", s.id))
		return
	}

	for i, c := range s.m["conditions"].([]any) {
		cond, ok := c.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := cond["expression"]
		if !ok {
			continue
		}
		expression, _ := raw.(string)
		if err := p.n.exprs.Check(expression); err != nil {
			delete(cond, "expression")
			p.report.AddWarning(fmt.Sprintf("%s.conditions[%d].expression", s.path, i), schema.ErrCodeValueCoerced,
				fmt.Sprintf("Removed invalid expression from condition %d of segment step %s: %v", i, s.id, err))
		}
	}
}

func (p *pass) productChoiceStep(s *stepCtx) {
	setDefault(s.m, "messageText", p.messageSource(s, registry.ProductChoicePrompt))
	if emptyList(s.m["products"]) {
		s.m["products"] = registry.PlaceholderProducts()
		p.warn(s, "products", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added placeholder products to product_choice step %s", s.id))
	}
}

func (p *pass) noReplyStep(s *stepCtx) {
	p.defaulted(s, "value", registry.DefaultNoReplyValue)

	unit, ok := s.m["unit"]
	switch {
	case !ok || unit == nil:
		p.defaulted(s, "unit", registry.DefaultNoReplyUnit)
	case !registry.ValidUnit(unit):
		s.m["unit"] = registry.DefaultNoReplyUnit
		p.warn(s, "unit", schema.ErrCodeValueCoerced,
			fmt.Sprintf("Coerced invalid unit '%s' to '%s' in step %s", display(unit), registry.DefaultNoReplyUnit, s.id))
	}

	setDefault(s.m, "after", map[string]any{
		"value": s.m["value"],
		"unit":  titleCase(s.m["unit"].(string)),
	})
}

// limitStep handles rate_limit and limit, which share the occurrences,
// timespan and period triple and differ in the mirrored structure.
func (p *pass) limitStep(s *stepCtx, occurrences, mirror, countKey string) {
	p.defaulted(s, "occurrences", occurrences)
	p.defaulted(s, "timespan", registry.DefaultTimespan)
	p.period(s, "period")
	setDefault(s.m, mirror, map[string]any{
		countKey: s.m["occurrences"],
		"period": strings.ToLower(s.m["period"].(string)),
	})
}

func (p *pass) experimentStep(s *stepCtx) {
	p.defaulted(s, "experimentName", registry.DefaultExperimentName(s.id))
	p.defaulted(s, "version", registry.DefaultExperimentVersion)
}

func (p *pass) quizStep(s *stepCtx) {
	if emptyList(s.m["questions"]) {
		s.m["questions"] = registry.DefaultQuizQuestions()
		p.warn(s, "questions", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default question to quiz step %s", s.id))
	}
	setDefault(s.m, "quizConfig", registry.DefaultQuizConfig())
}

// scheduleStep drops cron specs that do not parse as five-field expressions.
func (p *pass) scheduleStep(s *stepCtx) {
	p.checkCron(s, s.m, "cron")
	if nested, ok := s.m["schedule"].(map[string]any); ok {
		p.checkCron(s, nested, "schedule.cron")
	}
}

func (p *pass) checkCron(s *stepCtx, m map[string]any, field string) {
	raw, ok := m["cron"]
	if !ok {
		return
	}
	spec, _ := raw.(string)
	if _, err := p.n.cron.Parse(spec); err != nil {
		delete(m, "cron")
		p.warn(s, field, schema.ErrCodeValueCoerced,
			fmt.Sprintf("Removed invalid cron expression '%s' from schedule step %s: %v", display(raw), s.id, err))
	}
}
