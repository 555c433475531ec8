package schema

// Wire keys used by the upstream generator. Field casing follows its
// convention (e.g. "nextStepID"), not Go's.
const (
	KeyName          = "name"
	KeyDescription   = "description"
	KeyInitialStepID = "initialStepID"
	KeySteps         = "steps"
	KeyMetadata      = "metadata"
	KeyID            = "id"
	KeyType          = "type"
	KeyLabel         = "label"
	KeyContent       = "content"
	KeyActive        = "active"
	KeyParameters    = "parameters"
	KeyEvents        = "events"
	KeyNextStepID    = "nextStepID"
)

// StepKind enumerates the node types a flow step may declare.
type StepKind string

const (
	StepMessage         StepKind = "message"
	StepDelay           StepKind = "delay"
	StepSegment         StepKind = "segment"
	StepProductChoice   StepKind = "product_choice"
	StepPurchase        StepKind = "purchase"
	StepPurchaseOffer   StepKind = "purchase_offer"
	StepReplyCartChoice StepKind = "reply_cart_choice"
	StepNoReply         StepKind = "no_reply"
	StepEnd             StepKind = "end"
	StepStart           StepKind = "start"
	StepProperty        StepKind = "property"
	StepRateLimit       StepKind = "rate_limit"
	StepLimit           StepKind = "limit"
	StepSplit           StepKind = "split"
	StepReply           StepKind = "reply"
	StepExperiment      StepKind = "experiment"
	StepQuiz            StepKind = "quiz"
	StepSchedule        StepKind = "schedule"
	StepSplitGroup      StepKind = "split_group"
	StepSplitRange      StepKind = "split_range"
)

var stepKinds = []StepKind{
	StepMessage, StepDelay, StepSegment, StepProductChoice, StepPurchase,
	StepPurchaseOffer, StepReplyCartChoice, StepNoReply, StepEnd, StepStart,
	StepProperty, StepRateLimit, StepLimit, StepSplit, StepReply,
	StepExperiment, StepQuiz, StepSchedule, StepSplitGroup, StepSplitRange,
}

// StepKinds returns every valid step kind in declaration order.
func StepKinds() []StepKind {
	out := make([]StepKind, len(stepKinds))
	copy(out, stepKinds)
	return out
}

// Valid reports whether k is one of the known step kinds.
func (k StepKind) Valid() bool {
	for _, known := range stepKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EventKind enumerates the outgoing edge types of a step.
type EventKind string

const (
	EventReply   EventKind = "reply"
	EventNoReply EventKind = "noreply"
	EventSplit   EventKind = "split"
	EventDefault EventKind = "default"
)

// EventKinds returns every valid event kind.
func EventKinds() []EventKind {
	return []EventKind{EventReply, EventNoReply, EventSplit, EventDefault}
}

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventReply, EventNoReply, EventSplit, EventDefault:
		return true
	default:
		return false
	}
}

// Flow is the strongly-typed form of a normalized flow graph. It is produced
// by strict parsing of the normalizer's map output.
type Flow struct {
	Name          string         `json:"name" mapstructure:"name" validate:"required"`
	Description   string         `json:"description" mapstructure:"description"`
	InitialStepID string         `json:"initialStepID" mapstructure:"initialStepID" validate:"required"`
	Steps         []Step         `json:"steps" mapstructure:"steps" validate:"required,min=1,dive"`
	Metadata      map[string]any `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Step is a single typed node. Kind-specific fields stay in Fields.
type Step struct {
	ID         string         `json:"id" mapstructure:"id" validate:"required"`
	Type       StepKind       `json:"type" mapstructure:"type" validate:"required,step_kind"`
	Label      string         `json:"label" mapstructure:"label" validate:"required"`
	Content    string         `json:"content" mapstructure:"content" validate:"required"`
	Active     bool           `json:"active" mapstructure:"active"`
	Parameters map[string]any `json:"parameters" mapstructure:"parameters"`
	Events     []Event        `json:"events" mapstructure:"events" validate:"dive"`
	Fields     map[string]any `json:"-" mapstructure:",remain"`
}

// Event is a typed outgoing edge.
type Event struct {
	ID          string         `json:"id,omitempty" mapstructure:"id"`
	Type        EventKind      `json:"type" mapstructure:"type" validate:"required,event_kind"`
	NextStepID  string         `json:"nextStepID" mapstructure:"nextStepID" validate:"required"`
	Active      bool           `json:"active" mapstructure:"active"`
	Parameters  map[string]any `json:"parameters" mapstructure:"parameters"`
	Intent      string         `json:"intent,omitempty" mapstructure:"intent" validate:"required_if=Type reply"`
	Description string         `json:"description,omitempty" mapstructure:"description"`
	After       *After         `json:"after,omitempty" mapstructure:"after" validate:"required_if=Type noreply,omitempty"`
	Label       string         `json:"label,omitempty" mapstructure:"label" validate:"required_if=Type split"`
	Action      string         `json:"action,omitempty" mapstructure:"action" validate:"required_if=Type split"`
}

// After is the timeout of a noreply event.
type After struct {
	Value float64 `json:"value" mapstructure:"value" validate:"gt=0"`
	Unit  string  `json:"unit" mapstructure:"unit" validate:"required,oneof=seconds minutes hours days Seconds Minutes Hours Days"`
}
