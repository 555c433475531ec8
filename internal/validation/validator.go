package validation

import (
	"github.com/rendis/campaignflow/pkg/schema"
)

// FlowValidator groups the checks that surround normalization:
// 1. Envelope (JSON Schema) on the raw input
// 2. Reachability on the normalized flow
// 3. Strict typed parse of the normalized flow
// 4. Canonical (JSON Schema) on transformer output
type FlowValidator struct {
	schemas *JSONSchemaValidator
	strict  *StrictParser
}

// NewFlowValidator compiles the schemas and registers the strict rules.
func NewFlowValidator() (*FlowValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	sp, err := NewStrictParser()
	if err != nil {
		return nil, err
	}
	return &FlowValidator{schemas: jsv, strict: sp}, nil
}

// Envelope reports structural problems that make normalization pointless.
func (v *FlowValidator) Envelope(raw any) *schema.ValidationReport {
	report := schema.NewValidationReport()
	for _, msg := range Violations(v.schemas.ValidateEnvelope(raw)) {
		report.AddError("/", schema.ErrCodeValidation, msg)
	}
	return report
}

// Reachability reports steps unreachable from the initial step as warnings.
func (v *FlowValidator) Reachability(flow map[string]any) *schema.ValidationReport {
	return CheckReachability(flow)
}

// Strict decodes the normalized flow into the typed model. On failure the
// returned report carries one STRICT_PARSE_ERROR per violation.
func (v *FlowValidator) Strict(flow map[string]any) (*schema.Flow, *schema.ValidationReport) {
	report := schema.NewValidationReport()
	typed, err := v.strict.Parse(flow)
	if err != nil {
		for _, msg := range Violations(err) {
			report.AddError("/", schema.ErrCodeStrictParse, msg)
		}
		return nil, report
	}
	return typed, report
}

// Canonical returns the canonical-schema violations of g, or nil.
func (v *FlowValidator) Canonical(g *schema.CanonicalGraph) []string {
	return Violations(v.schemas.ValidateCanonical(g))
}
