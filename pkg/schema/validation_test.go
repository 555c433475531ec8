package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationReport_EmptyIsValid(t *testing.T) {
	r := NewValidationReport()
	assert.True(t, r.Valid())
}

func TestValidationReport_EmptySerializesLists(t *testing.T) {
	data, err := json.Marshal(NewValidationReport())
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[],"warnings":[]}`, string(data))
}

func TestValidationReport_AddError(t *testing.T) {
	r := NewValidationReport()
	r.AddError("steps[0]", ErrCodeInvalidNodeType, "Invalid node type: bogus")

	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "steps[0]", r.Errors[0].Path)
	assert.Equal(t, ErrCodeInvalidNodeType, r.Errors[0].Code)
	assert.Equal(t, "Invalid node type: bogus", r.Errors[0].Message)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
}

func TestValidationReport_AddWarning(t *testing.T) {
	r := NewValidationReport()
	r.AddWarning("steps[1].label", ErrCodeDefaultApplied, "Added missing 'label' for step s1")

	assert.True(t, r.Valid(), "warnings alone should not make report invalid")
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
}

func TestValidationReport_Merge(t *testing.T) {
	r1 := NewValidationReport()
	r1.AddError("/", ErrCodeValidation, "err1")
	r1.AddWarning("/", ErrCodeValidation, "warn1")

	r2 := NewValidationReport()
	r2.AddError("steps[0]", ErrCodeDanglingReference, "err2")
	r2.AddWarning("steps[1]", ErrCodeDefaultApplied, "warn2")

	r1.Merge(r2)

	assert.Len(t, r1.Errors, 2)
	assert.Len(t, r1.Warnings, 2)
}

func TestValidationReport_MergeNil(t *testing.T) {
	r := NewValidationReport()
	r.AddError("/", ErrCodeValidation, "err")
	r.Merge(nil)
	assert.Len(t, r.Errors, 1)
}

func TestValidationReport_Downgrade(t *testing.T) {
	r := NewValidationReport()
	r.AddError("steps[0]", ErrCodeDuplicateTarget, "dup")
	r.AddError("steps[1]", ErrCodeDanglingReference, "dangling")
	r.AddWarning("steps[2]", ErrCodeDefaultApplied, "default")

	moved := r.Downgrade(ErrCodeDuplicateTarget)

	assert.Equal(t, 1, moved)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrCodeDanglingReference, r.Errors[0].Code)
	require.Len(t, r.Warnings, 2)
	assert.Equal(t, ErrCodeDuplicateTarget, r.Warnings[1].Code)
	assert.Equal(t, SeverityWarning, r.Warnings[1].Severity)
}

func TestValidationReport_Messages(t *testing.T) {
	r := NewValidationReport()
	r.AddError("/", ErrCodeValidation, "a")
	r.AddError("/", ErrCodeValidation, "b")
	r.AddWarning("/", ErrCodeValidation, "c")

	assert.Equal(t, []string{"a", "b"}, r.ErrorMessages())
	assert.Equal(t, []string{"c"}, r.WarningMessages())
	assert.Len(t, r.ErrorsWithCode(ErrCodeValidation), 2)
	assert.Empty(t, r.ErrorsWithCode(ErrCodeDuplicateTarget))
}

func TestValidationReport_ToError_Valid(t *testing.T) {
	r := NewValidationReport()
	r.AddWarning("/", ErrCodeValidation, "just a warning")
	assert.Nil(t, r.ToError())
}

func TestValidationReport_ToError_SingleError(t *testing.T) {
	r := NewValidationReport()
	r.AddError("steps[0]", ErrCodeInvalidNodeType, "Invalid node type: bogus")

	err := r.ToError()
	require.NotNil(t, err)

	var flowErr *FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, ErrCodeValidation, flowErr.Code)
	assert.Equal(t, "Invalid node type: bogus", flowErr.Message)
	assert.Equal(t, 1, flowErr.Details["error_count"])
}

func TestValidationReport_ToError_MultipleErrors(t *testing.T) {
	r := NewValidationReport()
	r.AddError("/", ErrCodeValidation, "err1")
	r.AddError("/", ErrCodeValidation, "err2")
	r.AddWarning("/", ErrCodeValidation, "warn1")

	err := r.ToError()
	require.NotNil(t, err)

	var flowErr *FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Contains(t, flowErr.Message, "2 errors")
	assert.Equal(t, 2, flowErr.Details["error_count"])
	assert.Equal(t, 1, flowErr.Details["warning_count"])
}

// --- FlowError ---

func TestFlowError_Format(t *testing.T) {
	err := NewError(ErrCodeTransformation, "no steps")
	assert.Equal(t, "[TRANSFORMATION_ERROR] no steps", err.Error())

	err = NewErrorf(ErrCodeMissingField, "missing %q", "id").WithStep("s1")
	assert.Equal(t, `[MISSING_FIELD] step s1: missing "id"`, err.Error())
}

func TestFlowError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrCodeStrictParse, "decode failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}
