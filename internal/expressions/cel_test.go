package expressions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

func newCEL(t *testing.T) *CELEngine {
	t.Helper()
	e, err := NewCELEngine()
	require.NoError(t, err)
	return e
}

func TestNewCELEngine(t *testing.T) {
	e := newCEL(t)
	assert.Equal(t, "cel", e.Name())
}

// --- Flow rules ---

func TestCEL_StatsAccess(t *testing.T) {
	e := newCEL(t)
	data := map[string]any{
		"stats": map[string]any{"messages": 12, "delays": 0},
	}

	out, err := e.Evaluate(context.Background(), `stats.messages > 10 && stats.delays == 0`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_FlowAccess(t *testing.T) {
	e := newCEL(t)
	data := map[string]any{
		"flow": map[string]any{
			"name":  "Winback",
			"steps": []any{map[string]any{"id": "s1"}, map[string]any{"id": "s2"}},
		},
	}

	out, err := e.Evaluate(context.Background(), `size(flow.steps) == 2 && flow.name.startsWith("Win")`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_StepAccess(t *testing.T) {
	e := newCEL(t)
	data := map[string]any{"step": map[string]any{"type": "message", "content": "Hi {{first_name}}"}}

	out, err := e.Evaluate(context.Background(), `step.type == "message" && step.content.contains("{{")`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_MissingDataKeys_DefaultToEmpty(t *testing.T) {
	e := newCEL(t)

	out, err := e.Evaluate(context.Background(), `has(stats.messages)`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

// --- Errors ---

func TestCEL_EmptyExpression(t *testing.T) {
	e := newCEL(t)

	_, err := e.Evaluate(context.Background(), "", nil)
	var fe *schema.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, schema.ErrCodeExpression, fe.Code)
	assert.Contains(t, fe.Message, "empty")
}

func TestCEL_CompileError(t *testing.T) {
	e := newCEL(t)

	err := e.Check(`stats.messages >>>`)
	var fe *schema.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Message, "compile")
	assert.Equal(t, `stats.messages >>>`, fe.Details["expression"])
}

func TestCEL_UndeclaredVariable(t *testing.T) {
	e := newCEL(t)
	assert.Error(t, e.Check(`os.env["HOME"] == ""`))
}

func TestCEL_RuntimeError_MissingField(t *testing.T) {
	e := newCEL(t)

	_, err := e.Evaluate(context.Background(), `stats.nonexistent > 0`, map[string]any{"stats": map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation failed")
}

// --- Caching and concurrency ---

func TestCEL_ProgramCaching(t *testing.T) {
	e := newCEL(t)

	require.NoError(t, e.Check(`stats.messages > 1`))
	require.NoError(t, e.Check(`stats.messages > 1`))
	assert.Len(t, e.cache, 1)
}

func TestCEL_Concurrent(t *testing.T) {
	e := newCEL(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), `stats.messages * 2`,
				map[string]any{"stats": map[string]any{"messages": n}})
			assert.NoError(t, err)
			assert.Equal(t, int64(n*2), out)
		}(i)
	}
	wg.Wait()
}
