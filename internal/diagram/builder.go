package diagram

import (
	"fmt"

	"github.com/rendis/campaignflow/pkg/schema"
)

// Build constructs a DiagramModel from a normalized flow. Steps are laid out
// in breadth-first levels from the initial step; steps the walk never reaches
// are collected into a trailing level and flagged.
func Build(flow map[string]any) (*DiagramModel, error) {
	if flow == nil {
		return nil, fmt.Errorf("diagram: flow is nil")
	}
	rawSteps, _ := flow[schema.KeySteps].([]any)

	model := &DiagramModel{Title: titleFromFlow(flow)}
	model.Nodes = append(model.Nodes, &Node{ID: startID, Label: "Start", Kind: NodeKindStart})

	adjacency := make(map[string][]string)
	var order []string
	for _, item := range rawSteps {
		step, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := step[schema.KeyID].(string)
		if id == "" || model.node(id) != nil {
			continue
		}
		kind, _ := step[schema.KeyType].(string)
		model.Nodes = append(model.Nodes, &Node{ID: id, Label: stepLabel(step, id, kind), Kind: kindOf(kind)})
		order = append(order, id)

		events, _ := step[schema.KeyEvents].([]any)
		for _, e := range events {
			ev, ok := e.(map[string]any)
			if !ok {
				continue
			}
			target, _ := ev[schema.KeyNextStepID].(string)
			if target == "" {
				continue
			}
			adjacency[id] = append(adjacency[id], target)
			model.Edges = append(model.Edges, Edge{From: id, To: target, Label: eventLabel(ev)})
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("diagram: flow has no steps")
	}

	initial, _ := flow[schema.KeyInitialStepID].(string)
	finish(model, order, adjacency, initial)
	return model, nil
}

// BuildCanonical constructs a DiagramModel from a transformer graph.
func BuildCanonical(g *schema.CanonicalGraph) (*DiagramModel, error) {
	if g == nil || len(g.Steps) == 0 {
		return nil, fmt.Errorf("diagram: canonical graph has no steps")
	}

	model := &DiagramModel{Title: titleFromMetadata(g.Metadata)}
	model.Nodes = append(model.Nodes, &Node{ID: startID, Label: "Start", Kind: NodeKindStart})

	adjacency := make(map[string][]string)
	order := make([]string, 0, len(g.Steps))
	for _, s := range g.Steps {
		model.Nodes = append(model.Nodes, &Node{
			ID:    s.ID,
			Label: fmt.Sprintf("%s\n%s", s.Type, s.ID),
			Kind:  canonicalKindOf(s.Type),
		})
		order = append(order, s.ID)

		link := func(target, label string) {
			if target == "" {
				return
			}
			adjacency[s.ID] = append(adjacency[s.ID], target)
			model.Edges = append(model.Edges, Edge{From: s.ID, To: target, Label: label})
		}
		link(s.NextStepID, "")
		if rc, ok := s.Config.(schema.RandomConfig); ok {
			link(rc.TrueStepID, "true")
			link(rc.FalseStepID, "false")
		}
	}

	finish(model, order, adjacency, g.InitialStepID)
	return model, nil
}

// finish adds the virtual start and end edges, computes levels and flags
// dangling and unreachable steps.
func finish(model *DiagramModel, order []string, adjacency map[string][]string, initial string) {
	known := make(map[string]bool, len(order))
	for _, id := range order {
		known[id] = true
	}

	// Drop edges to missing steps, remembering them on the source node.
	edges := model.Edges[:0]
	for _, e := range model.Edges {
		if known[e.To] {
			edges = append(edges, e)
			continue
		}
		n := model.node(e.From)
		overlay(n).Dangling = append(overlay(n).Dangling, e.To)
	}
	model.Edges = edges

	if known[initial] {
		model.Edges = append([]Edge{{From: startID, To: initial}}, model.Edges...)
	}

	terminal := false
	for _, id := range order {
		hasNext := false
		for _, t := range adjacency[id] {
			if known[t] {
				hasNext = true
				break
			}
		}
		if !hasNext {
			model.Edges = append(model.Edges, Edge{From: id, To: endID})
			terminal = true
		}
	}
	if terminal {
		model.Nodes = append(model.Nodes, &Node{ID: endID, Label: "End", Kind: NodeKindEnd})
	}

	model.Levels = [][]string{{startID}}
	visited := map[string]bool{}
	var frontier []string
	if known[initial] {
		frontier = []string{initial}
		visited[initial] = true
	}
	for len(frontier) > 0 {
		model.Levels = append(model.Levels, frontier)
		var next []string
		for _, id := range frontier {
			for _, t := range adjacency[id] {
				if known[t] && !visited[t] {
					visited[t] = true
					next = append(next, t)
				}
			}
		}
		frontier = next
	}

	var unreachable []string
	for _, id := range order {
		if !visited[id] {
			unreachable = append(unreachable, id)
			overlay(model.node(id)).Unreachable = true
		}
	}
	if len(unreachable) > 0 {
		model.Levels = append(model.Levels, unreachable)
	}
	if terminal {
		model.Levels = append(model.Levels, []string{endID})
	}
}

func overlay(n *Node) *IssueOverlay {
	if n.Issue == nil {
		n.Issue = &IssueOverlay{}
	}
	return n.Issue
}

// kindOf maps a normalized step type to a node kind.
func kindOf(kind string) NodeKind {
	switch schema.StepKind(kind) {
	case schema.StepMessage, schema.StepProductChoice, schema.StepPurchaseOffer,
		schema.StepReplyCartChoice, schema.StepQuiz:
		return NodeKindMessage
	case schema.StepDelay, schema.StepNoReply, schema.StepSchedule:
		return NodeKindDelay
	case schema.StepSegment, schema.StepExperiment, schema.StepSplit, schema.StepSplitGroup,
		schema.StepSplitRange, schema.StepReply, schema.StepProperty:
		return NodeKindBranch
	case schema.StepEnd:
		return NodeKindEnd
	case schema.StepStart:
		return NodeKindStart
	default:
		return NodeKindAction
	}
}

func canonicalKindOf(k schema.CanonicalKind) NodeKind {
	switch k {
	case schema.CanonicalSendMessage:
		return NodeKindMessage
	case schema.CanonicalDelay, schema.CanonicalWaitUntil:
		return NodeKindDelay
	case schema.CanonicalCondition, schema.CanonicalRandom, schema.CanonicalDistribute, schema.CanonicalATest:
		return NodeKindBranch
	default:
		return NodeKindAction
	}
}

// stepLabel puts the display label on the first line and the type below.
func stepLabel(step map[string]any, id, kind string) string {
	label, _ := step[schema.KeyLabel].(string)
	if label == "" {
		label = id
	}
	return fmt.Sprintf("%s\n(%s)", label, kind)
}

func eventLabel(ev map[string]any) string {
	kind, _ := ev[schema.KeyType].(string)
	switch schema.EventKind(kind) {
	case schema.EventReply:
		if intent, _ := ev["intent"].(string); intent != "" {
			return "reply: " + intent
		}
		return "reply"
	case schema.EventNoReply:
		if after, ok := ev["after"].(map[string]any); ok {
			return fmt.Sprintf("no reply %v %v", after["value"], after["unit"])
		}
		return "no reply"
	case schema.EventSplit:
		if label, _ := ev["label"].(string); label != "" {
			return label
		}
		return "split"
	default:
		return ""
	}
}

func titleFromFlow(flow map[string]any) string {
	if name, ok := flow[schema.KeyName].(string); ok && name != "" {
		return name
	}
	meta, _ := flow[schema.KeyMetadata].(map[string]any)
	return titleFromMetadata(meta)
}

func titleFromMetadata(meta map[string]any) string {
	for _, key := range []string{"name", "campaign_name"} {
		if name, ok := meta[key].(string); ok && name != "" {
			return name
		}
	}
	return "Campaign"
}
