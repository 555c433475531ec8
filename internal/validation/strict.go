package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/rendis/campaignflow/pkg/schema"
)

// StrictParser decodes a normalized flow map into schema.Flow and enforces the
// struct constraints. Unlike normalization it repairs nothing.
type StrictParser struct {
	validate *validator.Validate
}

// NewStrictParser creates a parser with the step_kind and event_kind rules
// registered.
func NewStrictParser() (*StrictParser, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report wire names ("nextStepID") rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("step_kind", func(fl validator.FieldLevel) bool {
		return schema.StepKind(fl.Field().String()).Valid()
	}); err != nil {
		return nil, fmt.Errorf("register step_kind: %w", err)
	}
	if err := v.RegisterValidation("event_kind", func(fl validator.FieldLevel) bool {
		return schema.EventKind(fl.Field().String()).Valid()
	}); err != nil {
		return nil, fmt.Errorf("register event_kind: %w", err)
	}

	return &StrictParser{validate: v}, nil
}

// Parse decodes and validates flow. Errors are *schema.FlowError with code
// STRICT_PARSE_ERROR and a "violations" detail listing each failed field.
func (p *StrictParser) Parse(flow map[string]any) (*schema.Flow, error) {
	var out schema.Flow

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(flow); err != nil {
		return nil, schema.NewError(schema.ErrCodeStrictParse, "flow does not decode into the typed model").
			WithCause(err).
			WithDetails(map[string]any{"violations": decodeViolations(err)})
	}

	if err := p.validate.Struct(&out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, schema.NewError(schema.ErrCodeStrictParse, err.Error()).WithCause(err)
		}
		violations := make([]string, 0, len(verrs))
		for _, fieldErr := range verrs {
			violations = append(violations, fmt.Sprintf(
				"field '%s' failed validation (rule: %s)",
				strings.TrimPrefix(fieldErr.Namespace(), "Flow."),
				fieldErr.Tag(),
			))
		}
		return nil, schema.NewErrorf(schema.ErrCodeStrictParse,
			"flow failed strict validation with %d errors", len(violations)).
			WithCause(err).
			WithDetails(map[string]any{"violations": violations})
	}

	return &out, nil
}

func decodeViolations(err error) []string {
	var merr *mapstructure.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []string{err.Error()}
}
