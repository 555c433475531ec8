package lint

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	smsSegment      = 160
	smsMultiSegment = 153
)

var (
	personalizationRe = regexp.MustCompile(`\{\{[^}]+\}\}`)
	ctaRe             = regexp.MustCompile(`(?i)\b(shop|buy|click|reply|text|visit|view|check out|learn more|get|save|join|subscribe)\b`)

	commonVariables = []string{"{{customer.first_name}}", "{{customer.name}}", "{{merchant.name}}"}
	urlMarkers      = []string{"http://", "https://", "{{merchant.url}}", "{{url}}"}
	brandMarkers    = []string{"{{merchant.name}}", "{{brand}}"}
	optOutPhrases   = []string{"reply stop", "text stop", "stop to unsubscribe", "opt out"}
	spamTriggers    = []string{
		"FREE!!!", "CLICK HERE NOW", "LIMITED TIME ONLY!!!", "ACT NOW!!!",
		"$$$", "WINNER", "CONGRATULATIONS!!!",
	}
	periodSeconds = map[string]int{"seconds": 1, "minutes": 60, "hours": 3600, "days": 86400}
)

// stepFacts derives the variables step rules are evaluated against.
func stepFacts(step map[string]any) map[string]any {
	kind, _ := step[schema.KeyType].(string)
	facts := map[string]any{
		"id":   step[schema.KeyID],
		"kind": kind,
	}

	switch schema.StepKind(kind) {
	case schema.StepMessage:
		text := messageText(step)
		_, hasPrompt := step["prompt"].(string)
		facts["text"] = text
		facts["has_prompt"] = hasPrompt && strings.TrimSpace(step["prompt"].(string)) != ""
		facts["length"] = len([]rune(text))
		facts["segments"] = segments(text)
		facts["personalized"] = personalizationRe.MatchString(text)
		facts["common_vars"] = containsAny(text, commonVariables)
		facts["has_url"] = containsAny(text, urlMarkers)
		facts["has_brand"] = containsAny(text, brandMarkers)
		facts["has_cta"] = ctaRe.MatchString(text)
		facts["excess_punct"] = strings.Contains(text, "!!!") || strings.Contains(text, "???")
		facts["caps_words"] = capsWords(text)
		facts["spam"] = spamHits(text)
	case schema.StepDelay:
		facts["delay_seconds"] = delaySeconds(step)
	}
	return facts
}

// flowStats aggregates counts the flow rules are evaluated against.
func flowStats(steps []map[string]any) map[string]any {
	var messages, delays, experiments, personalized int
	optOut := false
	for _, s := range steps {
		text := strings.ToLower(messageText(s))
		if containsAny(text, optOutPhrases) {
			optOut = true
		}
		switch kind, _ := s[schema.KeyType].(string); schema.StepKind(kind) {
		case schema.StepMessage:
			messages++
			if strings.Contains(text, "{{") {
				personalized++
			}
		case schema.StepDelay:
			delays++
		case schema.StepExperiment:
			experiments++
		}
	}
	ratio := 0
	if messages > 0 {
		ratio = personalized * 100 / messages
	}
	return map[string]any{
		"steps":                len(steps),
		"messages":             messages,
		"delays":               delays,
		"experiments":          experiments,
		"personalized":         personalized,
		"personalized_percent": ratio,
		"has_opt_out":          optOut,
	}
}

// messageText returns the first non-blank of text, messageText and content.
func messageText(step map[string]any) string {
	for _, key := range []string{"text", "messageText", schema.KeyContent} {
		if s, ok := step[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func segments(text string) int {
	n := len([]rune(text))
	if n <= smsSegment {
		return 1
	}
	return n/smsMultiSegment + 1
}

func capsWords(text string) int {
	count := 0
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) <= 3 {
			continue
		}
		caps := true
		for _, r := range w {
			if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
				caps = false
				break
			}
		}
		if caps {
			count++
		}
	}
	return count
}

func spamHits(text string) []any {
	upper := strings.ToUpper(text)
	hits := []any{}
	for _, t := range spamTriggers {
		if strings.Contains(upper, t) {
			hits = append(hits, t)
		}
	}
	return hits
}

// delaySeconds reads time/period of a normalized delay step, falling back to
// a duration object of seconds/minutes/hours/days.
func delaySeconds(step map[string]any) int {
	if period, ok := step["period"].(string); ok {
		if mult, ok := periodSeconds[strings.ToLower(period)]; ok {
			if n, ok := number(step["time"]); ok {
				return int(n * float64(mult))
			}
		}
	}
	total := 0.0
	if d, ok := step["duration"].(map[string]any); ok {
		for unit, mult := range periodSeconds {
			if n, ok := number(d[unit]); ok {
				total += n * float64(mult)
			}
		}
	}
	return int(total)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
