package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rendis/campaignflow/internal/diagram"
	"github.com/rendis/campaignflow/internal/pipeline"
	flowmcp "github.com/rendis/campaignflow/pkg/mcp"
)

var errRejected = errors.New("flow rejected")

var (
	fallbackFlag   bool
	lintFlag       bool
	dupWarnFlag    bool
	diagramFormat  string
	diagramView    string
	diagramOutFile string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <flow-file>",
	Short: "Repair a flow and print it with its validation report",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

var transformCmd = &cobra.Command{
	Use:   "transform <flow-file>",
	Short: "Convert a flow into the canonical execution graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransform,
}

var processCmd = &cobra.Command{
	Use:   "process <flow-file>",
	Short: "Run the full pipeline: validate, repair, fall back and lint",
	Long:  "Runs the full pipeline over a flow. Exits non-zero when the flow is rejected; the outcome is printed either way.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

var lintCmd = &cobra.Command{
	Use:   "lint <flow-file>",
	Short: "Grade a flow against SMS marketing best practices",
	Args:  cobra.ExactArgs(1),
	RunE:  runLint,
}

var diagramCmd = &cobra.Command{
	Use:   "diagram <flow-file>",
	Short: "Draw a flow as Mermaid, ASCII or PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the campaignflow version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	processCmd.Flags().BoolVar(&fallbackFlag, "fallback", true, "build the canonical graph when repair fails")
	processCmd.Flags().BoolVar(&lintFlag, "lint", false, "attach best-practice advisories")
	processCmd.Flags().BoolVar(&dupWarnFlag, "duplicate-targets-as-warnings", false, "report shared event targets as warnings")

	diagramCmd.Flags().StringVar(&diagramFormat, "format", "mermaid", "diagram format: mermaid, ascii or image")
	diagramCmd.Flags().StringVar(&diagramView, "view", "normalized", "graph to draw: normalized or canonical")
	diagramCmd.Flags().StringVar(&diagramOutFile, "out", "", "write the diagram to a file instead of stdout")

	rootCmd.AddCommand(normalizeCmd, transformCmd, processCmd, lintCmd, diagramCmd, mcpCmd, versionCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	flow, err := readFlow(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), p.Normalizer().Normalize(cmd.Context(), flow), cfg.Output)
}

func runTransform(cmd *cobra.Command, args []string) error {
	flow, err := readFlow(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}
	res, err := p.Transformer().Transform(cmd.Context(), flow)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), res, cfg.Output)
}

func runProcess(cmd *cobra.Command, args []string) error {
	flow, err := readFlow(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fallback") {
		cfg.Fallback = fallbackFlag
	}
	if cmd.Flags().Changed("lint") {
		cfg.Lint = lintFlag
	}
	if cmd.Flags().Changed("duplicate-targets-as-warnings") {
		cfg.DuplicateTargetsAsWarnings = dupWarnFlag
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}

	out, procErr := p.Process(cmd.Context(), flow)
	if err := writeResult(cmd.OutOrStdout(), out, cfg.Output); err != nil {
		return err
	}
	if out.Mode == pipeline.ModeRejected {
		return fmt.Errorf("%w: %v", errRejected, procErr)
	}
	return nil
}

func runLint(cmd *cobra.Command, args []string) error {
	flow, err := readFlow(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}
	res := p.Normalizer().Normalize(cmd.Context(), flow)
	return writeResult(cmd.OutOrStdout(), p.Linter().Lint(cmd.Context(), res.Flow), cfg.Output)
}

func runDiagram(cmd *cobra.Command, args []string) error {
	format := diagram.Format(diagramFormat)
	if format != diagram.FormatMermaid && format != diagram.FormatASCII && format != diagram.FormatImage {
		return fmt.Errorf("unknown diagram format %q", diagramFormat)
	}

	flow, err := readFlow(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}

	model, err := buildModel(cmd.Context(), p, flow, diagramView)
	if err != nil {
		return err
	}
	data, err := diagram.Render(cmd.Context(), model, format)
	if err != nil {
		return err
	}

	if diagramOutFile != "" {
		return os.WriteFile(diagramOutFile, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func buildModel(ctx context.Context, p *pipeline.Processor, flow map[string]any, view string) (*diagram.DiagramModel, error) {
	switch view {
	case "normalized":
		return diagram.Build(p.Normalizer().Normalize(ctx, flow).Flow)
	case "canonical":
		tr, err := p.Transformer().Transform(ctx, flow)
		if err != nil {
			return nil, err
		}
		return diagram.BuildCanonical(tr.Graph)
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}
	srv := flowmcp.NewFlowServer(flowmcp.FlowServerDeps{
		Processor: p,
		Logger:    logger,
		Version:   version,
	})
	logger.Info("campaignflow MCP server listening on stdio", "version", version)
	return srv.Serve(cmd.Context())
}
