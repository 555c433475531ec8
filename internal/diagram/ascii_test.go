package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderASCIIWelcome(t *testing.T) {
	model, err := Build(welcomeFlow())
	require.NoError(t, err)

	output := RenderASCII(model)

	assert.Contains(t, output, "=== Welcome Series ===")

	// Box-drawing characters.
	assert.Contains(t, output, "┌")
	assert.Contains(t, output, "┐")
	assert.Contains(t, output, "└")
	assert.Contains(t, output, "┘")
	assert.Contains(t, output, "│")
	assert.Contains(t, output, "▼")

	for _, label := range []string{"Start", "End", "welcome label", "wait label", "vip_offer label"} {
		assert.Contains(t, output, label)
	}

	assert.Contains(t, output, "--- transitions ---")
	assert.Contains(t, output, "segment ─→ vip_offer  (VIP)")
}

func TestRenderASCIIIssueTags(t *testing.T) {
	model := &DiagramModel{
		Title: "Test",
		Nodes: []*Node{
			{ID: "__start__", Label: "Start", Kind: NodeKindStart},
			{ID: "a", Label: "A", Kind: NodeKindMessage, Issue: &IssueOverlay{Dangling: []string{"zz"}}},
			{ID: "b", Label: "B", Kind: NodeKindMessage, Issue: &IssueOverlay{Unreachable: true}},
		},
		Edges:  []Edge{{From: "__start__", To: "a"}},
		Levels: [][]string{{"__start__"}, {"a"}, {"b"}},
	}

	output := RenderASCII(model)

	assert.Contains(t, output, "[MISSING zz]")
	assert.Contains(t, output, "[UNREACHABLE]")
	assert.NotContains(t, output, "transitions")
}

func TestMakeBoxWidth(t *testing.T) {
	box := makeBox(&Node{ID: "x", Label: "héllo\nignored"})

	require.Len(t, box.lines, 3)
	assert.Equal(t, 9, box.width)
	assert.Equal(t, "│ héllo │", box.lines[1])
}
