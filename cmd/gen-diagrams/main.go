// gen-diagrams renders every sample flow under examples/ into docs/assets.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rendis/campaignflow/internal/diagram"
	"github.com/rendis/campaignflow/internal/normalize"
)

func main() {
	paths, err := filepath.Glob(filepath.Join("examples", "*.json"))
	if err != nil || len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no sample flows under examples/")
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	n := normalize.New()
	failed := false
	for _, path := range paths {
		if err := render(ctx, n, path, outDir); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func render(ctx context.Context, n *normalize.Normalizer, path, outDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var flow map[string]any
	if err := json.Unmarshal(data, &flow); err != nil {
		return err
	}

	// Drawn after repair so dangling and unreachable overlays show what is left.
	model, err := diagram.Build(n.Normalize(ctx, flow).Flow)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	base := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	ascii := diagram.RenderASCII(model)
	if err := os.WriteFile(base+"-ascii.txt", []byte(ascii), 0o644); err != nil {
		return err
	}
	fmt.Printf("=== %s (ASCII) ===\n%s\n", path, ascii)

	mermaid := diagram.RenderMermaid(model)
	if err := os.WriteFile(base+"-mermaid.md", []byte("```mermaid\n"+mermaid+"\n```\n"), 0o644); err != nil {
		return err
	}

	png, err := diagram.RenderImage(ctx, model)
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		return err
	}
	fmt.Printf("Written: %s.png (%d bytes)\n", base, len(png))
	return nil
}
