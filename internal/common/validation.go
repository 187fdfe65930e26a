package common

import (
	"sort"
	"strings"
)

// Messages shared by the validators.
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

// ValidationError collects per-field messages. It unwraps to ErrorValidation.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add appends msg to field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no field has been flagged.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// OrNil returns v when it carries messages, nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return ErrorValidation
}
