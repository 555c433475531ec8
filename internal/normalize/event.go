package normalize

import (
	"fmt"
	"strings"

	"github.com/rendis/campaignflow/internal/registry"
	"github.com/rendis/campaignflow/pkg/schema"
)

// normalizeEvents replaces step.events with the surviving normalized events.
func (p *pass) normalizeEvents(step map[string]any, stepID, path string) {
	raw, ok := step[schema.KeyEvents]
	if !ok || raw == nil {
		step[schema.KeyEvents] = []any{}
		return
	}
	list, ok := raw.([]any)
	if !ok {
		p.report.AddWarning(path+".events", schema.ErrCodeValueCoerced,
			fmt.Sprintf("Events of step %s is not a list; replaced with an empty list", stepID))
		step[schema.KeyEvents] = []any{}
		return
	}

	out := make([]any, 0, len(list))
	for i, ev := range list {
		if norm := p.normalizeEvent(ev, stepID, fmt.Sprintf("%s.events[%d]", path, i)); norm != nil {
			out = append(out, norm)
		}
	}
	step[schema.KeyEvents] = out
}

// normalizeEvent returns the normalized event, or nil when it is dropped.
func (p *pass) normalizeEvent(raw any, stepID, path string) map[string]any {
	ev, ok := raw.(map[string]any)
	if !ok {
		p.report.AddError(path, schema.ErrCodeInvalidEventType,
			fmt.Sprintf("Event in step %s is not an object", stepID))
		return nil
	}

	kind, ok := registry.LookupEvent(ev[schema.KeyType])
	if !ok {
		p.report.AddError(path, schema.ErrCodeInvalidEventType,
			fmt.Sprintf("Invalid event type '%s' in step %s", display(ev[schema.KeyType]), stepID))
		return nil
	}

	if _, ok := text(ev, schema.KeyNextStepID); !ok {
		p.report.AddWarning(path, schema.ErrCodeEventDropped,
			fmt.Sprintf("Event missing nextStepID in step %s", stepID))
		return nil
	}

	setDefault(ev, schema.KeyActive, true)
	setDefault(ev, schema.KeyParameters, map[string]any{})

	switch kind {
	case schema.EventReply:
		p.replyEvent(ev, stepID, path)
	case schema.EventNoReply:
		p.noReplyEvent(ev, stepID, path)
	case schema.EventSplit:
		p.splitEvent(ev, stepID, path)
	case schema.EventDefault:
	}

	allowed := registry.EventFields(kind)
	for k := range ev {
		if !allowed[k] {
			delete(ev, k)
		}
	}
	return ev
}

func (p *pass) replyEvent(ev map[string]any, stepID, path string) {
	if _, ok := text(ev, "intent"); !ok {
		ev["intent"] = registry.DefaultReplyIntent
		p.report.AddWarning(path+".intent", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default intent '%s' to reply event in step %s", registry.DefaultReplyIntent, stepID))
	}
	setDefault(ev, "description", fmt.Sprintf("Customer replied with intent: %s", display(ev["intent"])))
}

func (p *pass) noReplyEvent(ev map[string]any, stepID, path string) {
	after, set := ev["after"]
	if !set || after == nil {
		ev["after"] = defaultAfter()
		p.report.AddWarning(path+".after", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default after timing to noreply event in step %s", stepID))
		return
	}

	m, ok := after.(map[string]any)
	value, valueOK := asFloat(m["value"])
	unit, unitOK := m["unit"].(string)
	if !ok || !valueOK || value <= 0 || !unitOK {
		ev["after"] = defaultAfter()
		p.report.AddWarning(path+".after", schema.ErrCodeValueCoerced,
			fmt.Sprintf("Fixed invalid after structure in noreply event of step %s", stepID))
		return
	}

	lower := strings.ToLower(unit)
	switch {
	case registry.ValidUnit(unit), registry.ValidUnit(lower) && unit == titleCase(lower):
	case registry.ValidUnit(lower):
		m["unit"] = lower
		p.report.AddWarning(path+".after.unit", schema.ErrCodeValueCoerced,
			fmt.Sprintf("Coerced after unit '%s' to '%s' in step %s", unit, lower, stepID))
	default:
		m["unit"] = registry.DefaultEventAfterUnit
		p.report.AddWarning(path+".after.unit", schema.ErrCodeValueCoerced,
			fmt.Sprintf("Coerced invalid after unit '%s' to '%s' in step %s", unit, registry.DefaultEventAfterUnit, stepID))
	}
}

func (p *pass) splitEvent(ev map[string]any, stepID, path string) {
	if _, ok := text(ev, "label"); !ok {
		ev["label"] = registry.DefaultSplitLabel
		p.report.AddWarning(path+".label", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default label to split event in step %s", stepID))
	}
	if _, ok := text(ev, "action"); !ok {
		ev["action"] = registry.DefaultSplitAction
		p.report.AddWarning(path+".action", schema.ErrCodeDefaultApplied,
			fmt.Sprintf("Added default action to split event in step %s", stepID))
	}
}

func defaultAfter() map[string]any {
	return map[string]any{
		"value": registry.DefaultEventAfterValue,
		"unit":  registry.DefaultEventAfterUnit,
	}
}
