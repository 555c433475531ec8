package normalize

import (
	"fmt"

	"github.com/rendis/campaignflow/pkg/schema"
)

// CheckReferences verifies that every event targets an existing step, that no
// two events anywhere in the flow share a target, and that initialStepID names
// a step. Violations are appended to report as errors; it never fails on
// malformed input.
func CheckReferences(flow map[string]any, report *schema.ValidationReport) {
	steps, _ := flow[schema.KeySteps].([]any)

	ids := make(map[string]bool, len(steps))
	for _, s := range steps {
		if m, ok := s.(map[string]any); ok {
			if id, ok := m[schema.KeyID].(string); ok {
				ids[id] = true
			}
		}
	}

	// Target -> origin step of the first event pointing at it.
	targets := make(map[string]string)
	for i, s := range steps {
		m, ok := s.(map[string]any)
		if !ok {
			continue
		}
		origin := display(m[schema.KeyID])
		events, _ := m[schema.KeyEvents].([]any)
		for j, e := range events {
			ev, ok := e.(map[string]any)
			if !ok {
				continue
			}
			target, ok := ev[schema.KeyNextStepID].(string)
			if !ok || target == "" {
				continue
			}
			path := fmt.Sprintf("steps[%d].events[%d].%s", i, j, schema.KeyNextStepID)

			if !ids[target] {
				report.AddError(path, schema.ErrCodeDanglingReference,
					fmt.Sprintf("Event in step '%s' references non-existent step: '%s'", origin, target))
			}
			if first, dup := targets[target]; dup {
				report.AddError(path, schema.ErrCodeDuplicateTarget,
					fmt.Sprintf("Multiple events point to nextStepID '%s': event in step '%s' and event in step '%s'",
						target, origin, first))
				continue
			}
			targets[target] = origin
		}
	}

	initial, ok := text(flow, schema.KeyInitialStepID)
	switch {
	case !ok && len(steps) == 0:
		report.AddError(schema.KeyInitialStepID, schema.ErrCodeMissingInitialStep,
			"No initialStepID found and no steps available")
	case !ok:
		report.AddError(schema.KeyInitialStepID, schema.ErrCodeMissingInitialStep,
			"Flow has no initialStepID")
	case !ids[initial]:
		report.AddError(schema.KeyInitialStepID, schema.ErrCodeMissingInitialStep,
			fmt.Sprintf("initialStepID '%s' does not match any step", initial))
	}
}
