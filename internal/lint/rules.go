package lint

import "fmt"

// Level grades an advisory.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// stepRule is an expr predicate over the facts of one step.
type stepRule struct {
	ID         string
	Level      Level
	When       string
	Field      string
	Message    func(facts map[string]any) string
	Suggestion string
}

// flowRule is a CEL predicate over the aggregate stats of a flow.
type flowRule struct {
	ID         string
	Level      Level
	When       string
	Message    func(stats map[string]any) string
	Suggestion string
}

func fixed(msg string) func(map[string]any) string {
	return func(map[string]any) string { return msg }
}

var stepRules = []stepRule{
	{
		ID: "message-empty", Level: LevelWarning,
		When:       `kind == "message" && text == "" && !has_prompt`,
		Message:    fixed("Message step has no text content"),
		Suggestion: "Add message text or AI generation prompt",
	},
	{
		ID: "message-two-segments", Level: LevelInfo, Field: "text",
		When: `kind == "message" && length > 160 && length <= 306`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Message uses 2 SMS segments (%v chars)", f["length"])
		},
		Suggestion: "Consider shortening to 160 chars for single SMS",
	},
	{
		ID: "message-borderline", Level: LevelWarning, Field: "text",
		When: `kind == "message" && length > 306 && length <= 320`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Message length (%v chars) may use 3 SMS segments", f["length"])
		},
		Suggestion: "Shorten to under 306 chars for 2 segments or under 160 for 1",
	},
	{
		ID: "message-long", Level: LevelWarning, Field: "text",
		When: `kind == "message" && length > 320`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Message is long (%v chars, ~%v SMS segments)", f["length"], f["segments"])
		},
		Suggestion: "Shorten message to reduce SMS costs and improve readability",
	},
	{
		ID: "no-personalization", Level: LevelInfo, Field: "text",
		When:       `kind == "message" && text != "" && !personalized`,
		Message:    fixed("Message has no personalization variables"),
		Suggestion: "Add variables like {{customer.first_name}} for personalization",
	},
	{
		ID: "uncommon-personalization", Level: LevelInfo, Field: "text",
		When:       `kind == "message" && personalized && !common_vars`,
		Message:    fixed("Message uses personalization but missing common variables"),
		Suggestion: "Consider adding {{customer.first_name}} or {{merchant.name}}",
	},
	{
		ID: "no-link", Level: LevelInfo, Field: "text",
		When:       `kind == "message" && text != "" && !has_url`,
		Message:    fixed("Message has no link/URL"),
		Suggestion: "Add {{merchant.url}} or specific link for user action",
	},
	{
		ID: "no-brand", Level: LevelWarning, Field: "text",
		When:       `kind == "message" && text != "" && !has_brand`,
		Message:    fixed("Message doesn't identify brand/merchant"),
		Suggestion: "Add {{merchant.name}} at start for brand recognition",
	},
	{
		ID: "spam-trigger", Level: LevelWarning, Field: "text",
		When: `kind == "message" && len(spam) > 0`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Message contains potential spam trigger: %v", f["spam"])
		},
		Suggestion: "Rephrase to avoid spam filters",
	},
	{
		ID: "excessive-punctuation", Level: LevelInfo, Field: "text",
		When:       `kind == "message" && excess_punct`,
		Message:    fixed("Message uses excessive punctuation"),
		Suggestion: "Use single ! or ? for more professional tone",
	},
	{
		ID: "all-caps", Level: LevelWarning, Field: "text",
		When: `kind == "message" && caps_words > 2`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Message has multiple ALL CAPS words (%v)", f["caps_words"])
		},
		Suggestion: "Use normal casing to avoid appearing spammy",
	},
	{
		ID: "no-call-to-action", Level: LevelInfo, Field: "text",
		When:       `kind == "message" && text != "" && !has_cta`,
		Message:    fixed("Message has no clear call-to-action"),
		Suggestion: "Add action words like 'Shop', 'Click', 'Reply', etc.",
	},
	{
		ID: "delay-short", Level: LevelInfo,
		When: `kind == "delay" && delay_seconds < 3600`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Delay is very short (%vs)", f["delay_seconds"])
		},
		Suggestion: "Consider 4-24 hour delays for better engagement",
	},
	{
		ID: "delay-long", Level: LevelInfo,
		When: `kind == "delay" && delay_seconds > 7 * 86400`,
		Message: func(f map[string]any) string {
			return fmt.Sprintf("Delay is very long (%.1f days)", float64(f["delay_seconds"].(int))/86400)
		},
		Suggestion: "Long delays may cause users to forget context",
	},
}

var flowRules = []flowRule{
	{
		ID: "low-personalization", Level: LevelInfo,
		When: `stats.messages > 0 && stats.personalized * 2 < stats.messages`,
		Message: func(s map[string]any) string {
			return fmt.Sprintf("Only %v%% of messages use personalization", s["personalized_percent"])
		},
		Suggestion: "Increase personalization for better engagement",
	},
	{
		ID: "no-pacing", Level: LevelWarning,
		When:       `stats.messages > 1 && stats.delays == 0`,
		Message:    fixed("Multiple messages without delays may overwhelm recipients"),
		Suggestion: "Add delay steps between messages for better pacing",
	},
	{
		ID: "no-opt-out", Level: LevelWarning,
		When:       `!stats.has_opt_out`,
		Message:    fixed("Campaign has no opt-out instructions"),
		Suggestion: "Include 'Reply STOP to unsubscribe' in at least one message",
	},
	{
		ID: "too-many-messages", Level: LevelInfo,
		When: `stats.messages > 5`,
		Message: func(s map[string]any) string {
			return fmt.Sprintf("Campaign has %v messages - may be too long", s["messages"])
		},
		Suggestion: "Consider breaking into multiple campaigns or reducing messages",
	},
	{
		ID: "single-message", Level: LevelInfo,
		When:       `stats.messages == 1`,
		Message:    fixed("Campaign has only one message"),
		Suggestion: "Consider adding follow-up for better engagement",
	},
	{
		ID: "no-experiment", Level: LevelInfo,
		When:       `stats.messages > 1 && stats.experiments == 0`,
		Message:    fixed("Campaign could benefit from A/B testing"),
		Suggestion: "Consider adding experiment step to test message variations",
	},
}
