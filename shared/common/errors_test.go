package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErrorPreservesAppError(t *testing.T) {
	original := ErrLinkageMissing("device registration")
	wrapped := WrapError(fmt.Errorf("outer: %w", original), ErrCodeInternal, "should not replace")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCodeLinkageMissing, wrapped.Code)
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrCodeInternal, "x"))
}

func TestHasErrorCode(t *testing.T) {
	err := fmt.Errorf("context: %w", ErrCountMismatch(3, 2))

	assert.True(t, HasErrorCode(err, ErrCodeCountMismatch))
	assert.False(t, HasErrorCode(err, ErrCodeLinkageMissing))
	assert.False(t, HasErrorCode(errors.New("plain"), ErrCodeCountMismatch))
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrNotFound("receipt"), http.StatusNotFound},
		{ErrInvalidInput("collection"), http.StatusBadRequest},
		{ErrInvalidFormat("too short"), http.StatusBadRequest},
		{ErrTypeConversion("nui", errors.New("bad")), http.StatusBadRequest},
		{ErrLinkageMissing("device registration"), http.StatusUnprocessableEntity},
		{ErrCountMismatch(3, 2), http.StatusUnprocessableEntity},
		{NewAppError(ErrCodeDatabaseConnection, "down"), http.StatusServiceUnavailable},
		{NewAppError(ErrCodeInternal, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode, string(tt.err.Code))
	}
}

func TestErrorFormatting(t *testing.T) {
	err := ErrCountMismatch(3, 2)
	assert.Equal(t, "COUNT_MISMATCH: receipt count mismatch: expected 3, matched 2", err.Error())

	withDetails := ErrInvalidFormat("identifier too short")
	assert.Contains(t, withDetails.Error(), "identifier too short")
}
