package core

import "github.com/pkg/errors"

// FieldError is a message about one input field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned for input the caller can correct.
// Err is the underlying reason, when there is one.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError reports msg on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	switch {
	case err.Err != nil:
		return err.Err.Error()
	case len(err.Fields) > 0:
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "invalid data"
}

// FieldMessages maps each field to its message. It is nil when no field is involved.
func (err ValidationError) FieldMessages() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	msgs := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		msgs[f.Field] = f.Error
	}
	return msgs
}
