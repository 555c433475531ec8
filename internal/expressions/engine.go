package expressions

import "context"

// Engine evaluates expressions against flow data.
// Three implementations: CEL (flow-level lint rules), GoJQ (field fallback
// chains in the transformer), Expr (step-level rules and segment conditions).
type Engine interface {
	Name() string
	Check(expression string) error
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
