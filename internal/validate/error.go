package validate

import (
	"sort"
	"strings"
)

// FieldsError maps field names to translated validation messages.
type FieldsError struct {
	Fields map[string]string
}

// NewFieldsError wraps translated field messages.
func NewFieldsError(fields map[string]string) *FieldsError {
	return &FieldsError{
		Fields: fields,
	}
}

func (f *FieldsError) Error() string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, f.Fields[name])
	}
	return strings.Join(msgs, "; ")
}
