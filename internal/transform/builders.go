package transform

import (
	"strings"

	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	defaultBody       = "Hi {{first_name}}! This is a campaign message."
	defaultSubject    = "SMS Campaign Message"
	defaultWebhookURL = "https://example.com/webhook"
	defaultCRM        = "default"
	defaultTag        = "default"
	defaultEventName  = "default_event"
	defaultTestName   = "default_test"
	defaultDistribute = "random"
	defaultWaitUntil  = "business_hours"
	defaultTimezone   = "UTC"
	defaultDelayMins  = 60
	defaultOperator   = "AND"
	defaultProb       = 0.5
)

// kindMapping maps declared raw types onto canonical kinds. Types not listed
// are rendered as SendMessage and recorded as a degradation.
var kindMapping = map[string]schema.CanonicalKind{
	"message":         schema.CanonicalSendMessage,
	"end":             schema.CanonicalSendMessage,
	"product_choice":  schema.CanonicalSendMessage,
	"purchase_offer":  schema.CanonicalSendMessage,
	"delay":           schema.CanonicalDelay,
	"segment":         schema.CanonicalCondition,
	"experiment":      schema.CanonicalCondition,
	"condition":       schema.CanonicalCondition,
	"webhook":         schema.CanonicalWebhook,
	"add_to_crm":      schema.CanonicalAddToCRM,
	"remove_from_crm": schema.CanonicalRemoveFromCRM,
	"update_contact":  schema.CanonicalUpdateContact,
	"add_tag":         schema.CanonicalAddTag,
	"remove_tag":      schema.CanonicalRemoveTag,
	"track_event":     schema.CanonicalTrackEvent,
	"a_test":          schema.CanonicalATest,
	"distribute":      schema.CanonicalDistribute,
	"random":          schema.CanonicalRandom,
	"wait_until":      schema.CanonicalWaitUntil,
}

// buildConfig dispatches to the builder of kind.
func buildConfig(kind schema.CanonicalKind, v *stepView) any {
	switch kind {
	case schema.CanonicalDelay:
		return delayConfig(v)
	case schema.CanonicalCondition:
		return conditionConfig(v)
	case schema.CanonicalWebhook:
		return webhookConfig(v)
	case schema.CanonicalAddToCRM:
		return schema.CRMConfig{
			Operation:   "add",
			CRMSystem:   v.str("crmId", defaultCRM),
			ContactData: v.object("contactData"),
		}
	case schema.CanonicalRemoveFromCRM:
		return schema.CRMConfig{
			Operation:   "remove",
			CRMSystem:   v.str("crmId", defaultCRM),
			ContactData: map[string]any{"contactId": v.raw["contactId"]},
		}
	case schema.CanonicalUpdateContact:
		cfg := schema.CRMConfig{
			Operation:  "update",
			CRMSystem:  v.str("crmId", defaultCRM),
			UpdateData: v.object("updateData"),
		}
		if id := v.optional("contactId"); id != "" {
			cfg.ContactData = map[string]any{"contactId": v.raw["contactId"]}
		}
		return cfg
	case schema.CanonicalAddTag:
		return tagConfig(v, "add")
	case schema.CanonicalRemoveTag:
		return tagConfig(v, "remove")
	case schema.CanonicalTrackEvent:
		return schema.TrackEventConfig{
			EventName:  v.str("eventName", defaultEventName),
			Properties: v.object("properties"),
		}
	case schema.CanonicalATest:
		return schema.ATestConfig{
			TestName: v.str("testName", defaultTestName),
			Variants: v.list("variants"),
		}
	case schema.CanonicalDistribute:
		targets, _ := v.query(targetsChain).([]any)
		if targets == nil {
			targets = []any{}
		}
		return schema.DistributeConfig{
			DistributionType: v.queryString(distributionChain, defaultDistribute),
			Targets:          targets,
		}
	case schema.CanonicalRandom:
		return schema.RandomConfig{
			Probability: v.number("probability", defaultProb),
			TrueStepID:  v.optional("trueStepId"),
			FalseStepID: v.optional("falseStepId"),
		}
	case schema.CanonicalWaitUntil:
		return waitUntilConfig(v)
	default:
		return sendMessageConfig(v)
	}
}

func sendMessageConfig(v *stepView) schema.SendMessageConfig {
	cfg := schema.SendMessageConfig{
		MessageContent: schema.MessageContent{
			Body:         v.queryString(bodyChain, defaultBody),
			Subject:      v.str("subject", defaultSubject),
			MediaURL:     v.optional("mediaUrl"),
			TemplateID:   v.optional("templateId"),
			TemplateData: v.object("templateData"),
		},
		Recipient: schema.Recipient{
			Type:         "all",
			SegmentID:    v.optional("segmentId"),
			ContactID:    v.optional("contactId"),
			PhoneNumber:  v.optional("phoneNumber"),
			Email:        v.optional("email"),
			CustomFilter: v.object("customFilter"),
		},
	}
	if senderType := v.optional("sender_type"); senderType != "" && senderType != "default" {
		cfg.Sender = &schema.Sender{
			Type:        senderType,
			UserID:      v.optional("senderId"),
			PhoneNumber: v.optional("senderPhone"),
			Email:       v.optional("senderEmail"),
			Name:        v.optional("senderName"),
		}
	}
	return cfg
}

// delayConfig converts the first noreply timeout to whole minutes.
func delayConfig(v *stepView) schema.DelayConfig {
	minutes := float64(defaultDelayMins)
	if after, ok := v.query(noReplyAfter).(map[string]any); ok {
		value, ok := toFloat(after["value"])
		if !ok {
			value = defaultDelayMins
		}
		unit, _ := after["unit"].(string)
		switch strings.ToLower(unit) {
		case "seconds":
			minutes = value / 60
		case "minutes", "":
			minutes = value
		case "hours":
			minutes = value * 60
		case "days":
			minutes = value * 24 * 60
		}
	}
	return schema.DelayConfig{
		DelayMinutes:      int(minutes),
		DelayType:         "minutes",
		BusinessHoursOnly: false,
	}
}

var displayFields = []string{
	"filterTab", "cartFilterTab", "optInFilterTab",
	"showFilterOptions", "showLinkFilterOptions",
	"showCartFilterOptions", "showOptInFilterOptions",
	"showPropertyValueInput", "showPropertyOperatorOptions",
}

func conditionConfig(v *stepView) schema.ConditionConfig {
	var conds []schema.SegmentCondition
	for _, raw := range v.list("conditions") {
		c, ok := raw.(map[string]any)
		if !ok || len(c) == 0 {
			continue
		}
		sc := schema.SegmentCondition{
			ID:       len(conds) + 1,
			Type:     stringOr(c["type"], "property"),
			Operator: stringOr(c["operator"], "has"),
		}
		if sc.Type == "event" {
			sc.Action = stringOr(c["action"], "performed")
			sc.Filter = stringify(c["filter"])
		} else {
			sc.PropertyName = stringOr(c["propertyName"], "customer_type")
			sc.PropertyValue = stringOr(c["propertyValue"], "vip")
			sc.PropertyOperator = stringOr(c["propertyOperator"], "with a value of")
		}
		if ts, ok := c["timeSettings"].(map[string]any); ok && len(ts) > 0 {
			sc.TimeSettings = ts
		}
		for _, f := range displayFields {
			if val, ok := c[f]; ok {
				if sc.Display == nil {
					sc.Display = map[string]any{}
				}
				sc.Display[f] = val
			}
		}
		conds = append(conds, sc)
	}

	if len(conds) == 0 {
		conds = []schema.SegmentCondition{{
			ID:               1,
			Type:             "property",
			Operator:         "has",
			PropertyName:     "customer_type",
			PropertyValue:    "vip",
			PropertyOperator: "with a value of",
			Display: map[string]any{
				"showPropertyValueInput":      false,
				"showPropertyOperatorOptions": false,
			},
		}}
	}

	return schema.ConditionConfig{
		Conditions: conds,
		Operator:   strings.ToUpper(v.str("operator", defaultOperator)),
	}
}

func webhookConfig(v *stepView) schema.WebhookConfig {
	headers := map[string]string{}
	for k, val := range v.object("headers") {
		headers[k] = stringify(val)
	}
	return schema.WebhookConfig{
		URL:     v.queryString(webhookURLChain, defaultWebhookURL),
		Method:  strings.ToUpper(v.str("method", "POST")),
		Headers: headers,
	}
}

func tagConfig(v *stepView, operation string) schema.TagConfig {
	var tags []string
	raw, _ := v.query(tagsChain).([]any)
	for _, t := range raw {
		if s := stringify(t); s != "" {
			tags = append(tags, s)
		}
	}
	if len(tags) == 0 {
		tags = []string{defaultTag}
	}
	return schema.TagConfig{
		Operation: operation,
		Tags:      tags,
		ContactID: v.optional("contactId"),
	}
}

// waitUntilConfig keeps waitUntil as given and flags five-field cron specs.
func waitUntilConfig(v *stepView) schema.WaitUntilConfig {
	wait := v.str("waitUntil", defaultWaitUntil)
	_, err := v.t.cron.Parse(wait)
	return schema.WaitUntilConfig{
		WaitUntil: wait,
		Timezone:  v.str("timezone", defaultTimezone),
		Cron:      err == nil,
	}
}

func stringOr(v any, def string) string {
	if s := stringify(v); s != "" {
		return s
	}
	return def
}
