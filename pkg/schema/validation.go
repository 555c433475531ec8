package schema

import "fmt"

// ValidationSeverity indicates whether an issue is an error or warning.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single validation problem with location context.
type ValidationIssue struct {
	Path     string             `json:"path" yaml:"path"`
	Code     string             `json:"code" yaml:"code"`
	Message  string             `json:"message" yaml:"message"`
	Severity ValidationSeverity `json:"severity" yaml:"severity"`
}

// ValidationReport aggregates the findings of one normalization pass.
// A report is created per call and never shared between requests.
type ValidationReport struct {
	Errors   []ValidationIssue `json:"errors" yaml:"errors"`
	Warnings []ValidationIssue `json:"warnings" yaml:"warnings"`
}

// NewValidationReport returns an empty report with non-nil issue lists so it
// serializes as {"errors":[],"warnings":[]}.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *ValidationReport) AddError(path, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		Path: path, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *ValidationReport) AddWarning(path, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Path: path, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another ValidationReport into this one.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ErrorsWithCode returns the errors carrying the given code.
func (r *ValidationReport) ErrorsWithCode(code string) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Errors {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

// Downgrade moves every error with the given code to the warnings list.
// It returns the number of issues moved.
func (r *ValidationReport) Downgrade(code string) int {
	kept := r.Errors[:0]
	moved := 0
	for _, issue := range r.Errors {
		if issue.Code != code {
			kept = append(kept, issue)
			continue
		}
		issue.Severity = SeverityWarning
		r.Warnings = append(r.Warnings, issue)
		moved++
	}
	r.Errors = kept
	return moved
}

// ErrorMessages returns the error messages in report order.
func (r *ValidationReport) ErrorMessages() []string {
	return messages(r.Errors)
}

// WarningMessages returns the warning messages in report order.
func (r *ValidationReport) WarningMessages() []string {
	return messages(r.Warnings)
}

func messages(issues []ValidationIssue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Message
	}
	return out
}

// ToError converts the report to a FlowError if invalid, nil if valid.
func (r *ValidationReport) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
