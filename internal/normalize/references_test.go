package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

func edge(target string) map[string]any {
	return map[string]any{"type": "default", "nextStepID": target}
}

func flowOf(initial string, steps ...map[string]any) map[string]any {
	list := make([]any, len(steps))
	for i, s := range steps {
		list[i] = s
	}
	return map[string]any{"initialStepID": initial, "steps": list}
}

func stepWith(id string, targets ...string) map[string]any {
	events := make([]any, len(targets))
	for i, t := range targets {
		events[i] = edge(t)
	}
	return map[string]any{"id": id, "events": events}
}

func TestCheckReferences_CleanGraph(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("a", stepWith("a", "b", "c"), stepWith("b", "d"), stepWith("c"), stepWith("d")), report)

	assert.True(t, report.Valid())
	assert.Empty(t, report.Warnings)
}

func TestCheckReferences_Dangling(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("a", stepWith("a", "zz")), report)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, schema.ErrCodeDanglingReference, report.Errors[0].Code)
	assert.Equal(t, "Event in step 'a' references non-existent step: 'zz'", report.Errors[0].Message)
	assert.Equal(t, "steps[0].events[0].nextStepID", report.Errors[0].Path)
}

func TestCheckReferences_DuplicateAcrossSteps(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("a", stepWith("a", "c"), stepWith("b", "c"), stepWith("c")), report)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, schema.ErrCodeDuplicateTarget, report.Errors[0].Code)
	assert.Equal(t, "Multiple events point to nextStepID 'c': event in step 'b' and event in step 'a'", report.Errors[0].Message)
}

func TestCheckReferences_DuplicateWithinStep(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("a", stepWith("a", "b", "b"), stepWith("b")), report)

	assert.Len(t, report.ErrorsWithCode(schema.ErrCodeDuplicateTarget), 1)
}

func TestCheckReferences_ThreeWayDuplicateNamesFirstOrigin(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("a", stepWith("a", "d"), stepWith("b", "d"), stepWith("c", "d"), stepWith("d")), report)

	dups := report.ErrorsWithCode(schema.ErrCodeDuplicateTarget)
	require.Len(t, dups, 2)
	for _, d := range dups {
		assert.Contains(t, d.Message, "event in step 'a'")
	}
}

func TestCheckReferences_MissingInitial(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(flowOf("nope", stepWith("a")), report)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, schema.ErrCodeMissingInitialStep, report.Errors[0].Code)
	assert.Equal(t, "initialStepID", report.Errors[0].Path)
}

func TestCheckReferences_OnlyReferenceCodes(t *testing.T) {
	report := schema.NewValidationReport()
	CheckReferences(map[string]any{
		"initialStepID": 5,
		"steps": []any{
			"garbage",
			map[string]any{"id": "a", "events": "nope"},
			map[string]any{"id": "b", "events": []any{"x", edge("q"), edge("a"), edge("a"), map[string]any{"nextStepID": 3}}},
		},
	}, report)

	allowed := map[string]bool{
		schema.ErrCodeDanglingReference:  true,
		schema.ErrCodeDuplicateTarget:    true,
		schema.ErrCodeMissingInitialStep: true,
	}
	require.NotEmpty(t, report.Errors)
	for _, e := range report.Errors {
		assert.True(t, allowed[e.Code], "unexpected code %s", e.Code)
	}
	assert.Empty(t, report.Warnings)
}
