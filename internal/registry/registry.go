// Package registry holds the per-kind knowledge the normalizer applies to
// flow steps and events: which kinds exist, which fields each kind gets
// silently, the reported defaults and the enumerations values are coerced to.
package registry

import (
	"fmt"

	"github.com/rendis/campaignflow/pkg/schema"
)

// Reported defaults. Applying one of these always produces a warning.
const (
	DefaultDelayTime            = "1"
	DefaultPeriod               = "Hours"
	DefaultNoReplyValue         = 2
	DefaultNoReplyUnit          = "hours"
	DefaultRateLimitOccurrences = "12"
	DefaultLimitOccurrences     = "5"
	DefaultTimespan             = "1"
	DefaultExperimentVersion    = "1"

	DefaultEventAfterValue = 24
	DefaultEventAfterUnit  = "hours"
	DefaultReplyIntent     = "yes"
	DefaultSplitLabel      = "Split Branch"
	DefaultSplitAction     = "include"

	ProductChoicePrompt   = "Choose your product:"
	ReplyCartChoicePrompt = "Choose from your cart:"
)

var validPeriods = map[string]bool{"Seconds": true, "Minutes": true, "Hours": true, "Days": true}

var validUnits = map[string]bool{"seconds": true, "minutes": true, "hours": true, "days": true}

// ValidPeriod reports whether p is one of the title-cased delay periods.
func ValidPeriod(p any) bool {
	s, ok := p.(string)
	return ok && validPeriods[s]
}

// ValidUnit reports whether u is one of the lower-case no-reply units.
func ValidUnit(u any) bool {
	s, ok := u.(string)
	return ok && validUnits[s]
}

// Lookup resolves a raw type value to a step kind.
func Lookup(raw any) (schema.StepKind, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	kind := schema.StepKind(s)
	return kind, kind.Valid()
}

// LookupEvent resolves a raw type value to an event kind.
func LookupEvent(raw any) (schema.EventKind, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	kind := schema.EventKind(s)
	return kind, kind.Valid()
}

var baseEventFields = []string{"id", "type", schema.KeyNextStepID, "active", "parameters"}

var eventFields = map[schema.EventKind][]string{
	schema.EventReply:   {"intent", "description"},
	schema.EventNoReply: {"after"},
	schema.EventSplit:   {"label", "action"},
	schema.EventDefault: nil,
}

// EventFields returns the whitelist of keys an event of the given kind keeps
// after normalization.
func EventFields(kind schema.EventKind) map[string]bool {
	allowed := make(map[string]bool, len(baseEventFields)+2)
	for _, k := range baseEventFields {
		allowed[k] = true
	}
	for _, k := range eventFields[kind] {
		allowed[k] = true
	}
	return allowed
}

// SilentDefaults returns a fresh map of the fields a step of the given kind
// receives without a warning when they are absent.
func SilentDefaults(kind schema.StepKind) map[string]any {
	p, ok := profiles()[kind]
	if !ok {
		return map[string]any{}
	}
	return cloneMap(p)
}

// DefaultSegmentCondition is the condition synthesized for a segment step
// that declares none.
func DefaultSegmentCondition() map[string]any {
	return map[string]any{
		"id":                1,
		"type":              "property",
		"action":            "custom_property",
		"operator":          "has",
		"filter":            "all",
		"timePeriod":        "within the last 30 days",
		"timePeriodType":    "relative",
		"propertyName":      "customer_type",
		"propertyValue":     "active",
		"showFilterOptions": false,
	}
}

// PlaceholderProducts are the products synthesized for a product_choice step
// that lists none.
func PlaceholderProducts() []any {
	return []any{
		map[string]any{"id": "prod-1", "label": "Product 1", "showLabel": true, "uniqueId": 1},
		map[string]any{"id": "prod-2", "label": "Product 2", "showLabel": true, "uniqueId": 2},
	}
}

// DefaultProperties is the property list synthesized for a property step.
func DefaultProperties(stepID string) []any {
	return []any{
		map[string]any{
			"name":  "custom_property",
			"value": "updated",
			"id":    fmt.Sprintf("prop_%s_1", stepID),
		},
	}
}

// DefaultQuizQuestions is the question list synthesized for a quiz step.
func DefaultQuizQuestions() []any {
	return []any{
		map[string]any{
			"id":            "q1",
			"question":      "What type of products do you prefer?",
			"type":          "single",
			"options":       []any{"Electronics", "Clothing", "Food"},
			"correctAnswer": "Electronics",
			"points":        10,
		},
	}
}

// DefaultQuizConfig is the quizConfig given to a quiz step without one.
func DefaultQuizConfig() map[string]any {
	return encodeProfile(&quizConfigProfile{})
}

// DefaultExperimentName names an experiment step that has no name.
func DefaultExperimentName(stepID string) string {
	return "Experiment " + stepID
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
