package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	err := Clone(ErrNothingToCommit, "nothing queued")

	assert.True(t, stdErrors.Is(err, ErrNothingToCommit))
	assert.False(t, stdErrors.Is(err, ErrRunMismatch))
	assert.Equal(t, "nothing queued", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
}

func TestWrapHidesCauseButUnwraps(t *testing.T) {
	cause := fmt.Errorf("pq: connection reset")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to approve bank details")

	assert.True(t, stdErrors.Is(err, cause))
	assert.True(t, stdErrors.Is(err, ErrInternal))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFromErrorNormalisesUnknownErrors(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, ErrInternal.Message, err.Message)

	typed := FromError(fmt.Errorf("outer: %w", ErrAlreadyProcessed))
	assert.Equal(t, ErrAlreadyProcessed.Code, typed.Code)
	assert.Equal(t, http.StatusConflict, typed.Status)
}

func TestNothingToCommitAndMismatchAreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrNothingToCommit.Code, ErrRunMismatch.Code)
	assert.NotEqual(t, ErrNothingToCommit.Status, ErrRunMismatch.Status)
}
