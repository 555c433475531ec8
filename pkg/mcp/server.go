package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/campaignflow/internal/pipeline"
)

// FlowServerDeps holds the dependencies for creating a FlowServer.
type FlowServerDeps struct {
	Processor *pipeline.Processor
	Logger    *slog.Logger
	Version   string
}

// FlowServer wraps an MCP server with campaign flow tool handlers.
type FlowServer struct {
	processor *pipeline.Processor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewFlowServer creates a new FlowServer with all 5 tools registered.
func NewFlowServer(deps FlowServerDeps) *FlowServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &FlowServer{
		processor: deps.Processor,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"campaignflow",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("campaignflow repairs and validates generated SMS campaign flows. Use flow.process for the full pipeline, flow.normalize to see the repaired graph and its report, flow.transform to build the canonical execution graph, flow.lint for best-practice advisories, and flow.diagram to visualize a flow."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *FlowServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: processTool(), Handler: s.handleProcess},
		{Tool: normalizeTool(), Handler: s.handleNormalize},
		{Tool: transformTool(), Handler: s.handleTransform},
		{Tool: lintTool(), Handler: s.handleLint},
		{Tool: diagramTool(), Handler: s.handleDiagram},
	}
}

// --- Tool definitions ---

func flowArg() mcp.ToolOption {
	return mcp.WithObject("flow", mcp.Required(), mcp.Description("Campaign flow as produced by the generator: {initialStepID, steps[]}"))
}

func processTool() mcp.Tool {
	return mcp.NewTool("flow.process",
		mcp.WithDescription("Validate and repair a campaign flow, falling back to the canonical graph when repair fails"),
		flowArg(),
	)
}

func normalizeTool() mcp.Tool {
	return mcp.NewTool("flow.normalize",
		mcp.WithDescription("Repair a campaign flow and report every default, coercion and error"),
		flowArg(),
	)
}

func transformTool() mcp.Tool {
	return mcp.NewTool("flow.transform",
		mcp.WithDescription("Convert a campaign flow into the canonical execution graph"),
		flowArg(),
	)
}

func lintTool() mcp.Tool {
	return mcp.NewTool("flow.lint",
		mcp.WithDescription("Grade a campaign flow against SMS marketing best practices"),
		flowArg(),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flow.diagram",
		mcp.WithDescription("Generate a diagram of a campaign flow. Returns Mermaid flowchart syntax, ASCII art, or base64-encoded PNG image"),
		flowArg(),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("mermaid", "image", "ascii"),
			mcp.Description("Output format: mermaid (flowchart syntax), image (base64 PNG), or ascii (text)"),
		),
		mcp.WithString("view",
			mcp.Enum("normalized", "canonical"),
			mcp.Description("Graph to draw: the repaired flow (default) or the canonical transformer output"),
		),
	)
}
