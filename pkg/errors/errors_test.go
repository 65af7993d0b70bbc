package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("recommendation", 42)

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "recommendation with id 42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("score must be between 0 and 5")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnsupportedMedia(t *testing.T) {
	err := UnsupportedMedia("application/json")

	assert.Equal(t, http.StatusUnsupportedMediaType, err.Status)
	assert.Contains(t, err.Message, "application/json")
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestAppError_Error(t *testing.T) {
	err := &AppError{Code: "NOT_FOUND", Message: "gone"}
	assert.Equal(t, "NOT_FOUND: gone", err.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: errors.New("cause")}
	assert.Equal(t, "INTERNAL_ERROR: boom: cause", wrapped.Error())
}

func TestWrap(t *testing.T) {
	base := errors.New("base")
	err := Wrap(base, "context")

	require.Error(t, err)
	assert.Equal(t, "context: base", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("recommendation", 1), http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"invalid input sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"unsupported media sentinel", ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
