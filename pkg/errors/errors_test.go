package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load upload: %w", Clone(ErrNotFound, "upload not found"))

	got := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "upload not found", got.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	cause := stderrors.New("boom")

	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrUnprocessable, "missing column Client ID")
	assert.Equal(t, "missing column Client ID", clone.Message)
	assert.Equal(t, "dataset cannot be processed", ErrUnprocessable.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, clone.Status)
}
