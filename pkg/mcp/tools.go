package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/campaignflow/internal/diagram"
	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/pkg/schema"
)

// requestFlow extracts the flow argument and tags ctx with a request id.
func requestFlow(ctx context.Context, req mcp.CallToolRequest) (context.Context, map[string]any, *mcp.CallToolResult) {
	flow := mcp.ParseStringMap(req, "flow", nil)
	if flow == nil {
		return ctx, nil, mcp.NewToolResultError("flow is required and must be an object")
	}
	return logging.WithRequestID(ctx, uuid.NewString()), flow, nil
}

// handleProcess runs the full pipeline. A rejected flow is a tool error whose
// text carries the outcome, so callers can inspect the report.
func (s *FlowServer) handleProcess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, flow, bad := requestFlow(ctx, req)
	if bad != nil {
		return bad, nil
	}

	out, err := s.processor.Process(ctx, flow)
	if err != nil {
		logging.LogWith(ctx, s.logger).Info("flow.process rejected", slog.Any("error", err))
		data, mErr := json.Marshal(out)
		if mErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("flow rejected: %v", err)), nil
		}
		return mcp.NewToolResultError(string(data)), nil
	}
	return marshalResult(out)
}

// handleNormalize returns the repaired flow and its report.
func (s *FlowServer) handleNormalize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, flow, bad := requestFlow(ctx, req)
	if bad != nil {
		return bad, nil
	}
	return marshalResult(s.processor.Normalizer().Normalize(ctx, flow))
}

// handleTransform returns the canonical graph of the raw flow.
func (s *FlowServer) handleTransform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, flow, bad := requestFlow(ctx, req)
	if bad != nil {
		return bad, nil
	}

	res, err := s.processor.Transformer().Transform(ctx, flow)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transformation failed: %s", errorText(err))), nil
	}
	return marshalResult(res)
}

// handleLint lints the normalized form of the flow.
func (s *FlowServer) handleLint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, flow, bad := requestFlow(ctx, req)
	if bad != nil {
		return bad, nil
	}

	res := s.processor.Normalizer().Normalize(ctx, flow)
	return marshalResult(s.processor.Linter().Lint(ctx, res.Flow))
}

// handleDiagram draws the normalized flow or its canonical graph.
func (s *FlowServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	f := diagram.Format(format)
	if f != diagram.FormatMermaid && f != diagram.FormatImage && f != diagram.FormatASCII {
		return mcp.NewToolResultError("format must be mermaid, image, or ascii"), nil
	}

	ctx, flow, bad := requestFlow(ctx, req)
	if bad != nil {
		return bad, nil
	}

	var model *diagram.DiagramModel
	switch view := req.GetString("view", "normalized"); view {
	case "normalized":
		res := s.processor.Normalizer().Normalize(ctx, flow)
		model, err = diagram.Build(res.Flow)
	case "canonical":
		tr, tErr := s.processor.Transformer().Transform(ctx, flow)
		if tErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transformation failed: %s", errorText(tErr))), nil
		}
		model, err = diagram.BuildCanonical(tr.Graph)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown view: %s", view)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram build failed: %v", err)), nil
	}

	data, err := diagram.Render(ctx, model, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram render failed: %v", err)), nil
	}
	if f == diagram.FormatImage {
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}

// errorText renders a FlowError with its details, or any other error as is.
func errorText(err error) string {
	var fe *schema.FlowError
	if errors.As(err, &fe) && len(fe.Details) > 0 {
		details, mErr := json.Marshal(fe.Details)
		if mErr == nil {
			return fmt.Sprintf("%s %s", fe.Error(), details)
		}
	}
	return err.Error()
}
