package validation

import (
	"fmt"

	"github.com/rendis/campaignflow/pkg/schema"
)

// CheckReachability warns about every step a breadth-first walk from
// initialStepID never visits. Cycles are legal in campaign flows (reply
// loops), so only reachability is reported. Dangling targets and a missing
// initial step belong to the reference checker and are skipped here.
func CheckReachability(flow map[string]any) *schema.ValidationReport {
	report := schema.NewValidationReport()

	order := Reachable(flow)
	if order == nil {
		return report
	}
	reachable := make(map[string]bool, len(order))
	for _, id := range order {
		reachable[id] = true
	}

	steps, _ := flow[schema.KeySteps].([]any)
	for i, s := range steps {
		m, _ := s.(map[string]any)
		id, ok := m[schema.KeyID].(string)
		if !ok || reachable[id] {
			continue
		}
		report.AddWarning(fmt.Sprintf("steps[%d]", i), schema.ErrCodeUnreachableStep,
			fmt.Sprintf("Step '%s' is unreachable from initial step '%s'", id, order[0]))
	}

	return report
}

// Reachable returns the ids of the steps reachable from initialStepID in
// breadth-first order, or nil when initialStepID names no step.
func Reachable(flow map[string]any) []string {
	steps, _ := flow[schema.KeySteps].([]any)
	initial, _ := flow[schema.KeyInitialStepID].(string)

	// edges[id] = event targets of step id, in declaration order.
	edges := make(map[string][]string, len(steps))
	for _, s := range steps {
		m, _ := s.(map[string]any)
		id, ok := m[schema.KeyID].(string)
		if !ok {
			continue
		}
		events, _ := m[schema.KeyEvents].([]any)
		targets := make([]string, 0, len(events))
		for _, e := range events {
			ev, _ := e.(map[string]any)
			if t, ok := ev[schema.KeyNextStepID].(string); ok && t != "" {
				targets = append(targets, t)
			}
		}
		edges[id] = targets
	}
	if _, ok := edges[initial]; !ok {
		return nil
	}

	order := []string{initial}
	seen := map[string]bool{initial: true}
	for i := 0; i < len(order); i++ {
		for _, next := range edges[order[i]] {
			if _, ok := edges[next]; ok && !seen[next] {
				seen[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}
