package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph TD\n")

	// Title as comment.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}

	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	for _, edge := range model.Edges {
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", mermaidEscapeLabel(edge.Label))
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n",
			mermaidSafeID(edge.From), label, mermaidSafeID(edge.To)))
	}

	// Dangling targets are drawn as dotted edges into a warning node.
	for _, node := range model.Nodes {
		if node.Issue == nil {
			continue
		}
		for _, target := range node.Issue.Dangling {
			missing := mermaidSafeID("missing_" + target)
			b.WriteString(fmt.Sprintf("    %s[%q]\n", missing, "missing: "+target))
			b.WriteString(fmt.Sprintf("    %s -.-> %s\n", mermaidSafeID(node.ID), missing))
			b.WriteString(fmt.Sprintf("    class %s dangling\n", missing))
		}
	}

	b.WriteString("\n")
	b.WriteString("    classDef unreachable fill:#6b6b6b,stroke:#4a4a4a,color:#ddd,stroke-dasharray:5 5\n")
	b.WriteString("    classDef dangling fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")

	for _, node := range model.Nodes {
		if node.Issue != nil && node.Issue.Unreachable {
			b.WriteString(fmt.Sprintf("    class %s unreachable\n", mermaidSafeID(node.ID)))
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(firstLine(node.Label))

	switch node.Kind {
	case NodeKindBranch:
		return fmt.Sprintf("%s{%q}", id, label)
	case NodeKindDelay:
		return fmt.Sprintf("%s([%q])", id, label)
	case NodeKindAction:
		return fmt.Sprintf("%s[[%q]]", id, label)
	case NodeKindStart, NodeKindEnd:
		return fmt.Sprintf("%s((%q))", id, label)
	default: // message
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return r.Replace(id)
}

// mermaidEscapeLabel strips characters that end a Mermaid label early.
func mermaidEscapeLabel(s string) string {
	return strings.NewReplacer(`"`, "'", "|", "/").Replace(s)
}
