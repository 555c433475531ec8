package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/campaignflow/pkg/schema"
)

const (
	envelopeSchemaURL  = "https://campaignflow.dev/schemas/envelope.json"
	canonicalSchemaURL = "https://campaignflow.dev/schemas/canonical.json"
)

// envelopeSchemaJSON is the minimal shape raw generator output must have
// before normalization is attempted. Everything inside a step is repairable.
const envelopeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://campaignflow.dev/schemas/envelope.json",
  "type": "object",
  "properties": {
    "steps": {
      "type": "array",
      "items": { "type": "object" }
    },
    "metadata": { "type": "object" }
  }
}`

// canonicalSchemaJSON describes a CanonicalGraph as the execution engine
// accepts it.
const canonicalSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://campaignflow.dev/schemas/canonical.json",
  "type": "object",
  "required": ["initialStepId", "steps", "version", "active"],
  "properties": {
    "initialStepId": { "type": "string", "minLength": 1 },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/step" }
    },
    "metadata": { "type": ["object", "null"] },
    "version": { "type": "string", "minLength": 1 },
    "active": { "type": "boolean" }
  },
  "$defs": {
    "step": {
      "type": "object",
      "required": ["id", "type", "config", "active"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "type": {
          "enum": ["SendMessage", "Delay", "Condition", "Webhook", "AddToCRM",
                   "RemoveFromCRM", "UpdateContact", "AddTag", "RemoveTag",
                   "TrackEvent", "ATest", "Distribute", "Random", "WaitUntil"]
        },
        "config": { "type": "object" },
        "nextStepId": { "type": "string", "minLength": 1 },
        "active": { "type": "boolean" }
      },
      "additionalProperties": false,
      "allOf": [
        {
          "if": { "properties": { "type": { "const": "SendMessage" } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/sendMessage" } } }
        },
        {
          "if": { "properties": { "type": { "const": "Delay" } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/delay" } } }
        },
        {
          "if": { "properties": { "type": { "const": "Condition" } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/condition" } } }
        },
        {
          "if": { "properties": { "type": { "const": "Webhook" } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/webhook" } } }
        },
        {
          "if": { "properties": { "type": { "enum": ["AddTag", "RemoveTag"] } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/tags" } } }
        },
        {
          "if": { "properties": { "type": { "const": "Random" } } },
          "then": { "properties": { "config": { "$ref": "#/$defs/random" } } }
        }
      ]
    },
    "sendMessage": {
      "type": "object",
      "required": ["messageContent", "recipient"],
      "properties": {
        "messageContent": {
          "type": "object",
          "required": ["body"],
          "properties": { "body": { "type": "string", "minLength": 1 } }
        },
        "recipient": {
          "type": "object",
          "required": ["type"],
          "properties": { "type": { "enum": ["all", "segment", "contact", "custom"] } }
        }
      }
    },
    "delay": {
      "type": "object",
      "required": ["delayMinutes", "delayType"],
      "properties": {
        "delayMinutes": { "type": "integer", "minimum": 0 },
        "delayType": { "enum": ["minutes", "hours", "days"] }
      }
    },
    "condition": {
      "type": "object",
      "required": ["conditions", "operator"],
      "properties": {
        "conditions": { "type": "array", "minItems": 1 },
        "operator": { "enum": ["AND", "OR"] }
      }
    },
    "webhook": {
      "type": "object",
      "required": ["url", "method"],
      "properties": {
        "url": { "type": "string", "format": "uri" },
        "method": { "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"] }
      }
    },
    "tags": {
      "type": "object",
      "required": ["tags"],
      "properties": {
        "tags": { "type": "array", "minItems": 1, "items": { "type": "string" } }
      }
    },
    "random": {
      "type": "object",
      "required": ["probability"],
      "properties": {
        "probability": { "type": "number", "minimum": 0, "maximum": 1 }
      }
    }
  }
}`

// JSONSchemaValidator checks raw flows and canonical graphs against embedded
// JSON Schema Draft 2020-12 documents. It is safe for concurrent use; both
// schemas are compiled once and only read afterwards.
type JSONSchemaValidator struct {
	envelope  *jsonschema.Schema
	canonical *jsonschema.Schema
}

// NewJSONSchemaValidator compiles the envelope and canonical schemas.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	for url, doc := range map[string]string{
		envelopeSchemaURL:  envelopeSchemaJSON,
		canonicalSchemaURL: canonicalSchemaJSON,
	} {
		parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, parsed); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	envelope, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	canonical, err := c.Compile(canonicalSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile canonical schema: %w", err)
	}

	return &JSONSchemaValidator{envelope: envelope, canonical: canonical}, nil
}

// ValidateEnvelope checks that raw is an object whose steps, if present, are
// a list of objects.
func (v *JSONSchemaValidator) ValidateEnvelope(raw any) error {
	if raw == nil {
		return schema.NewError(schema.ErrCodeValidation, "flow is nil")
	}
	return v.validate(v.envelope, raw, "flow")
}

// ValidateCanonical checks a transformer result against the canonical schema.
func (v *JSONSchemaValidator) ValidateCanonical(g *schema.CanonicalGraph) error {
	if g == nil {
		return schema.NewError(schema.ErrCodeValidation, "canonical graph is nil")
	}
	return v.validate(v.canonical, g, "canonical graph")
}

func (v *JSONSchemaValidator) validate(s *jsonschema.Schema, value any, what string) error {
	doc, err := toJSONValue(value)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "failed to serialize %s", what).WithCause(err)
	}
	if err := s.Validate(doc); err != nil {
		return toFlowError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toFlowError converts a jsonschema.ValidationError into a FlowError whose
// details list every leaf violation with its instance location.
func toFlowError(err error) *schema.FlowError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

// Violations extracts the violation list from an error returned by this
// package, falling back to the error text.
func Violations(err error) []string {
	if err == nil {
		return nil
	}
	var fe *schema.FlowError
	if errors.As(err, &fe) {
		if v, ok := fe.Details["violations"].([]string); ok {
			return v
		}
		return []string{fe.Message}
	}
	return []string{err.Error()}
}
