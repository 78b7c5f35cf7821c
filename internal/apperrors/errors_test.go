package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsValidation(Validationf("bad input %d", 1)))
	assert.True(IsNotFound(NotFound("post")))
	assert.True(IsConflict(Conflictf("already claimed")))

	assert.False(IsValidation(errors.New("plain")))
	assert.False(IsNotFound(Validationf("bad")))
}

func TestClassificationThroughWrapping(t *testing.T) {
	assert := assert.New(t)

	wrapped := fmt.Errorf("handling request: %w", NotFound("client"))
	assert.True(IsNotFound(wrapped))
	assert.Equal("handling request: client not found", wrapped.Error())
}
