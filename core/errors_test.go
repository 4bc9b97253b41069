package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewFieldError("end_time", "end_time must be after start_time")

	var vErr *ValidationError
	require.True(t, errors.As(errors.Wrap(err, "creating slot"), &vErr))
	assert.Equal(t, "end_time must be after start_time", vErr.Error())
	assert.Equal(t, map[string]string{"end_time": "end_time must be after start_time"}, vErr.FieldMessages())

	noFields := NewValidationError(errors.New("invalid link")).(*ValidationError)
	assert.Nil(t, noFields.FieldMessages())
	assert.Equal(t, "invalid link", noFields.Error())

	onlyFields := NewValidationError(nil, FieldError{Field: "mentor_id", Error: "mentor not found"})
	assert.Equal(t, "mentor_id: mentor not found", onlyFields.Error())
	assert.Equal(t, "invalid data", ValidationError{}.Error())
}
