package schema

// CanonicalKind enumerates the step kinds of the downstream execution engine.
type CanonicalKind string

const (
	CanonicalSendMessage   CanonicalKind = "SendMessage"
	CanonicalDelay         CanonicalKind = "Delay"
	CanonicalCondition     CanonicalKind = "Condition"
	CanonicalWebhook       CanonicalKind = "Webhook"
	CanonicalAddToCRM      CanonicalKind = "AddToCRM"
	CanonicalRemoveFromCRM CanonicalKind = "RemoveFromCRM"
	CanonicalUpdateContact CanonicalKind = "UpdateContact"
	CanonicalAddTag        CanonicalKind = "AddTag"
	CanonicalRemoveTag     CanonicalKind = "RemoveTag"
	CanonicalTrackEvent    CanonicalKind = "TrackEvent"
	CanonicalATest         CanonicalKind = "ATest"
	CanonicalDistribute    CanonicalKind = "Distribute"
	CanonicalRandom        CanonicalKind = "Random"
	CanonicalWaitUntil     CanonicalKind = "WaitUntil"
)

// CanonicalKinds returns every canonical kind.
func CanonicalKinds() []CanonicalKind {
	return []CanonicalKind{
		CanonicalSendMessage, CanonicalDelay, CanonicalCondition, CanonicalWebhook,
		CanonicalAddToCRM, CanonicalRemoveFromCRM, CanonicalUpdateContact,
		CanonicalAddTag, CanonicalRemoveTag, CanonicalTrackEvent, CanonicalATest,
		CanonicalDistribute, CanonicalRandom, CanonicalWaitUntil,
	}
}

// CanonicalGraph is the strongly-typed graph produced by the transformer.
// Step ids are freshly generated and references use "nextStepId".
type CanonicalGraph struct {
	InitialStepID string          `json:"initialStepId" yaml:"initialStepId"`
	Steps         []CanonicalStep `json:"steps" yaml:"steps"`
	Metadata      map[string]any  `json:"metadata" yaml:"metadata"`
	Version       string          `json:"version" yaml:"version"`
	Active        bool            `json:"active" yaml:"active"`
}

// StepIDs returns the set of step ids in the graph.
func (g *CanonicalGraph) StepIDs() map[string]bool {
	ids := make(map[string]bool, len(g.Steps))
	for _, s := range g.Steps {
		ids[s.ID] = true
	}
	return ids
}

// CanonicalStep is one node of a CanonicalGraph. Config holds one of the
// *Config types below, matching Type.
type CanonicalStep struct {
	ID         string        `json:"id" yaml:"id"`
	Type       CanonicalKind `json:"type" yaml:"type"`
	Config     any           `json:"config" yaml:"config"`
	NextStepID string        `json:"nextStepId,omitempty" yaml:"nextStepId,omitempty"`
	Active     bool          `json:"active" yaml:"active"`
}

// SendMessageConfig configures a SendMessage step.
type SendMessageConfig struct {
	MessageContent MessageContent `json:"messageContent" yaml:"messageContent"`
	Recipient      Recipient      `json:"recipient" yaml:"recipient"`
	Sender         *Sender        `json:"sender,omitempty" yaml:"sender,omitempty"`
}

// MessageContent is the body of an outgoing message.
type MessageContent struct {
	Body         string         `json:"body" yaml:"body"`
	Subject      string         `json:"subject" yaml:"subject"`
	MediaURL     string         `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
	TemplateID   string         `json:"templateId,omitempty" yaml:"templateId,omitempty"`
	TemplateData map[string]any `json:"templateData" yaml:"templateData"`
}

// Recipient selects who receives a message.
type Recipient struct {
	Type         string         `json:"type" yaml:"type"`
	SegmentID    string         `json:"segmentId,omitempty" yaml:"segmentId,omitempty"`
	ContactID    string         `json:"contactId,omitempty" yaml:"contactId,omitempty"`
	PhoneNumber  string         `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	Email        string         `json:"email,omitempty" yaml:"email,omitempty"`
	CustomFilter map[string]any `json:"customFilter" yaml:"customFilter"`
}

// Sender overrides the default sender of a message.
type Sender struct {
	Type        string `json:"type" yaml:"type"`
	UserID      string `json:"userId,omitempty" yaml:"userId,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DelayConfig configures a Delay step.
type DelayConfig struct {
	DelayMinutes      int    `json:"delayMinutes" yaml:"delayMinutes"`
	DelayType         string `json:"delayType" yaml:"delayType"`
	BusinessHoursOnly bool   `json:"businessHoursOnly" yaml:"businessHoursOnly"`
}

// ConditionConfig configures a Condition step.
type ConditionConfig struct {
	Conditions []SegmentCondition `json:"conditions" yaml:"conditions"`
	Operator   string             `json:"operator" yaml:"operator"`
}

// SegmentCondition is one predicate of a Condition step.
type SegmentCondition struct {
	ID               int            `json:"id" yaml:"id"`
	Type             string         `json:"type" yaml:"type"`
	Operator         string         `json:"operator" yaml:"operator"`
	Action           string         `json:"action,omitempty" yaml:"action,omitempty"`
	Filter           string         `json:"filter,omitempty" yaml:"filter,omitempty"`
	PropertyName     string         `json:"propertyName,omitempty" yaml:"propertyName,omitempty"`
	PropertyValue    string         `json:"propertyValue,omitempty" yaml:"propertyValue,omitempty"`
	PropertyOperator string         `json:"propertyOperator,omitempty" yaml:"propertyOperator,omitempty"`
	TimeSettings     map[string]any `json:"timeSettings,omitempty" yaml:"timeSettings,omitempty"`
	Display          map[string]any `json:"display,omitempty" yaml:"display,omitempty"`
}

// WebhookConfig configures a Webhook step.
type WebhookConfig struct {
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method" yaml:"method"`
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// CRMConfig configures AddToCRM, RemoveFromCRM and UpdateContact steps.
type CRMConfig struct {
	Operation   string         `json:"operation" yaml:"operation"`
	CRMSystem   string         `json:"crmSystem" yaml:"crmSystem"`
	ContactData map[string]any `json:"contactData,omitempty" yaml:"contactData,omitempty"`
	UpdateData  map[string]any `json:"updateData,omitempty" yaml:"updateData,omitempty"`
}

// TagConfig configures AddTag and RemoveTag steps.
type TagConfig struct {
	Operation string   `json:"operation" yaml:"operation"`
	Tags      []string `json:"tags" yaml:"tags"`
	ContactID string   `json:"contactId,omitempty" yaml:"contactId,omitempty"`
}

// TrackEventConfig configures a TrackEvent step.
type TrackEventConfig struct {
	EventName  string         `json:"eventName" yaml:"eventName"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// ATestConfig configures an ATest step.
type ATestConfig struct {
	TestName string `json:"testName" yaml:"testName"`
	Variants []any  `json:"variants" yaml:"variants"`
}

// DistributeConfig configures a Distribute step.
type DistributeConfig struct {
	DistributionType string `json:"distributionType" yaml:"distributionType"`
	Targets          []any  `json:"targets" yaml:"targets"`
}

// RandomConfig configures a Random step.
type RandomConfig struct {
	Probability float64 `json:"probability" yaml:"probability"`
	TrueStepID  string  `json:"trueStepId,omitempty" yaml:"trueStepId,omitempty"`
	FalseStepID string  `json:"falseStepId,omitempty" yaml:"falseStepId,omitempty"`
}

// WaitUntilConfig configures a WaitUntil step.
type WaitUntilConfig struct {
	WaitUntil string `json:"waitUntil" yaml:"waitUntil"`
	Timezone  string `json:"timezone" yaml:"timezone"`
	Cron      bool   `json:"cron" yaml:"cron"`
}

// TransformResult is the outcome of a fallback transformation. It always
// carries a usable graph; FailedSteps and Degradations record what was lost
// or synthesized along the way.
type TransformResult struct {
	Graph        *CanonicalGraph `json:"graph" yaml:"graph"`
	FailedSteps  []int           `json:"failedSteps" yaml:"failedSteps"`
	Degradations []string        `json:"degradations" yaml:"degradations"`
}

// Degraded reports whether the graph was recovered rather than mapped cleanly.
func (r *TransformResult) Degraded() bool {
	return len(r.FailedSteps) > 0 || len(r.Degradations) > 0
}
