package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	err := NotFoundError("project foo")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "project foo not found", err.Error())
	assert.Equal(t, "project foo", err.Details)
}

func TestInvalidRequestWithError(t *testing.T) {
	err := InvalidRequestWithError(errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "unexpected EOF", err.Details)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{{Field: "format", Message: "oneof"}})

	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	details, ok := err.Details.([]ValidationError)
	assert.True(t, ok)
	assert.Len(t, details, 1)
}
