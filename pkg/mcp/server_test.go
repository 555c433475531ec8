package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/internal/pipeline"
)

func newTestServer(t *testing.T, opts pipeline.Options) *FlowServer {
	t.Helper()
	p, err := pipeline.New(opts)
	require.NoError(t, err)
	return NewFlowServer(FlowServerDeps{Processor: p})
}

func TestNewFlowServer(t *testing.T) {
	s := newTestServer(t, pipeline.Options{})
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.Same(t, s.mcpServer, s.MCPServer())
}

func TestToolRegistration(t *testing.T) {
	s := newTestServer(t, pipeline.Options{})

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 5)

	for _, name := range []string{"flow.process", "flow.normalize", "flow.transform", "flow.lint", "flow.diagram"} {
		assert.NotNil(t, s.mcpServer.GetTool(name), "tool %s should be registered", name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name        string
		toolName    string
		description string
	}{
		{"process", "flow.process", "Validate and repair a campaign flow, falling back to the canonical graph when repair fails"},
		{"normalize", "flow.normalize", "Repair a campaign flow and report every default, coercion and error"},
		{"transform", "flow.transform", "Convert a campaign flow into the canonical execution graph"},
		{"lint", "flow.lint", "Grade a campaign flow against SMS marketing best practices"},
	}

	s := newTestServer(t, pipeline.Options{})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
			assert.Contains(t, tool.Tool.InputSchema.Required, "flow")
		})
	}
}

func TestDiagramToolSchema(t *testing.T) {
	s := newTestServer(t, pipeline.Options{})

	tool := s.mcpServer.GetTool("flow.diagram")
	require.NotNil(t, tool)
	assert.ElementsMatch(t, []string{"flow", "format"}, tool.Tool.InputSchema.Required)
	assert.Contains(t, tool.Tool.InputSchema.Properties, "view")
}
