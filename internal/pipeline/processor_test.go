package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	cleanFlow = `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"Hi","events":[{"id":"e1","type":"noreply","nextStepID":"s2"}]},
		{"id":"s2","type":"end"}]}`

	duplicateTargetFlow = `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"a","events":[{"id":"e1","type":"default","nextStepID":"s2"}]},
		{"id":"s3","type":"message","content":"b","events":[{"id":"e2","type":"default","nextStepID":"s2"}]},
		{"id":"s2","type":"end"}]}`

	bogusTypeFlow = `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"a","events":[{"type":"default","nextStepID":"s2"}]},
		{"id":"s2","type":"bogus_type"}]}`
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func newProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	n := 0
	opts.IDGenerator = func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func flowErrorCode(t *testing.T, err error) string {
	t.Helper()
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	return fe.Code
}

// --- Modes ---

func TestProcess_Normalized(t *testing.T) {
	out, err := newProcessor(t, Options{}).Process(context.Background(), decode(t, cleanFlow))
	require.NoError(t, err)

	assert.Equal(t, ModeNormalized, out.Mode)
	require.NotNil(t, out.Typed)
	assert.Equal(t, "s1", out.Typed.InitialStepID)
	assert.Len(t, out.Typed.Steps, 2)
	assert.NotEmpty(t, out.Report.Warnings)
	assert.Nil(t, out.Transform)
	assert.Nil(t, out.Lint)
}

func TestProcess_RejectedWithoutFallback(t *testing.T) {
	out, err := newProcessor(t, Options{}).Process(context.Background(), decode(t, duplicateTargetFlow))

	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, flowErrorCode(t, err))
	assert.Equal(t, ModeRejected, out.Mode)
	assert.NotNil(t, out.Flow)
	assert.Nil(t, out.Typed)
	assert.Len(t, out.Report.ErrorsWithCode(schema.ErrCodeDuplicateTarget), 1)
}

func TestProcess_DuplicateTargetsAsWarnings(t *testing.T) {
	out, err := newProcessor(t, Options{DuplicateTargetsAsWarnings: true}).
		Process(context.Background(), decode(t, duplicateTargetFlow))
	require.NoError(t, err)

	assert.Equal(t, ModeNormalized, out.Mode)
	var codes []string
	for _, w := range out.Report.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, schema.ErrCodeDuplicateTarget)
	assert.Contains(t, codes, schema.ErrCodeUnreachableStep)
}

func TestProcess_Transformed(t *testing.T) {
	out, err := newProcessor(t, Options{FallbackEnabled: true}).Process(context.Background(), decode(t, bogusTypeFlow))
	require.NoError(t, err)

	assert.Equal(t, ModeTransformed, out.Mode)
	assert.False(t, out.Report.Valid())
	require.NotNil(t, out.Transform)

	g := out.Transform.Graph
	require.Len(t, g.Steps, 2)
	assert.Equal(t, "gen-1", g.InitialStepID)
	assert.Equal(t, "gen-2", g.Steps[0].NextStepID)
	assert.Equal(t, schema.CanonicalSendMessage, g.Steps[1].Type)
	assert.True(t, out.Transform.Degraded())
}

func TestProcess_FallbackFails(t *testing.T) {
	out, err := newProcessor(t, Options{FallbackEnabled: true}).Process(context.Background(),
		decode(t, `{"steps":[{"type":"message","content":"no id"}]}`))

	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeTransformation, flowErrorCode(t, err))
	assert.Equal(t, ModeRejected, out.Mode)
	assert.Nil(t, out.Transform)
}

// --- Envelope ---

func TestProcess_EnvelopeRejected(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"array", []any{map[string]any{"id": "s1"}}},
		{"steps not a list", map[string]any{"steps": "s1"}},
		{"step not an object", map[string]any{"steps": []any{"s1"}}},
		{"typed map", map[string]string{"initialStepID": "s1"}},
	}
	p := newProcessor(t, Options{FallbackEnabled: true, LintEnabled: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Process(context.Background(), tt.raw)

			require.Error(t, err)
			require.NotNil(t, out)
			assert.Equal(t, ModeRejected, out.Mode)
			assert.Nil(t, out.Flow)
			assert.Nil(t, out.Lint)
			assert.NotEmpty(t, out.Report.Errors)
		})
	}
}

func TestProcess_UpperCaseAfterUnitIsRepaired(t *testing.T) {
	raw := decode(t, `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"Hi","events":[{"id":"e1","type":"noreply","after":{"value":2,"unit":"HOURS"},"nextStepID":"s2"}]},
		{"id":"s2","type":"end"}]}`)

	out, err := newProcessor(t, Options{FallbackEnabled: true}).Process(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, ModeNormalized, out.Mode)
	require.NotNil(t, out.Typed)
	assert.Equal(t, "hours", out.Typed.Steps[0].Events[0].After.Unit)
}

// --- Lint ---

func TestProcess_LintDoesNotChangeMode(t *testing.T) {
	out, err := newProcessor(t, Options{LintEnabled: true}).Process(context.Background(), decode(t, cleanFlow))
	require.NoError(t, err)

	assert.Equal(t, ModeNormalized, out.Mode)
	require.NotNil(t, out.Lint)
	assert.NotEmpty(t, out.Lint.Advisories)
	assert.Less(t, out.Lint.Score, 100.0)

	lintWarnings := 0
	for _, w := range out.Report.Warnings {
		if w.Code == schema.ErrCodeLint {
			lintWarnings++
			assert.NotContains(t, w.Path, "steps[s")
		}
	}
	assert.Equal(t, len(out.Lint.Advisories), lintWarnings)
}

func TestProcess_InputUntouched(t *testing.T) {
	raw := decode(t, bogusTypeFlow)
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = newProcessor(t, Options{FallbackEnabled: true, LintEnabled: true}).Process(context.Background(), raw)
	require.NoError(t, err)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
