package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
		target error
	}{
		{"not found", NotFound("prescription"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"not found with message", NotFoundf("Issue not found for drug %s", "Amoxil"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"bad request", BadRequest("Batch ID not provided"), "BAD_REQUEST", http.StatusBadRequest, ErrBadRequest},
		{"conflict", Conflict("prescription already completed"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"timeout", Timeout("bill calculation timed out"), "TIMEOUT", http.StatusGatewayTimeout, ErrTimeout},
		{"validation", Validation(map[string]string{"name": "required"}), "VALIDATION_ERROR", http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, Is(tt.err, tt.target))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "batch not found: resource not found", NotFound("batch").Error())
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("calculate bill: %w", Conflict("done"))
	assert.Equal(t, http.StatusConflict, StatusCode(wrapped))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(stderrors.New("plain")))

	var appErr *AppError
	assert.True(t, As(wrapped, &appErr))
	assert.Equal(t, "done", appErr.Message)
}
