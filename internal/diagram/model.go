package diagram

// NodeKind classifies a diagram node by the role of its campaign step.
type NodeKind string

const (
	NodeKindMessage NodeKind = "message"
	NodeKindDelay   NodeKind = "delay"
	NodeKindBranch  NodeKind = "branch"
	NodeKindAction  NodeKind = "action"
	NodeKindStart   NodeKind = "start"
	NodeKindEnd     NodeKind = "end"
)

const (
	startID = "__start__"
	endID   = "__end__"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string
}

// Node represents a single step in the diagram.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
	Issue *IssueOverlay
}

// IssueOverlay marks structural problems found while building the model.
type IssueOverlay struct {
	Unreachable bool
	Dangling    []string // targets that match no step
}

// Edge represents a transition between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
}

func (m *DiagramModel) node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
