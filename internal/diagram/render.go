package diagram

import (
	"context"
	"fmt"
)

// Format selects a renderer.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatImage   Format = "image"
	FormatASCII   Format = "ascii"
)

// Render renders model in the requested format. Image output is PNG bytes;
// the text formats are UTF-8.
func Render(ctx context.Context, model *DiagramModel, format Format) ([]byte, error) {
	switch format {
	case FormatMermaid, "":
		return []byte(RenderMermaid(model)), nil
	case FormatASCII:
		return []byte(RenderASCII(model)), nil
	case FormatImage:
		return RenderImage(ctx, model)
	default:
		return nil, fmt.Errorf("diagram: unknown format %q (want mermaid, image or ascii)", format)
	}
}
