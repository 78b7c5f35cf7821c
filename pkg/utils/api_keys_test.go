package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomKey(t *testing.T) {
	assert := assert.New(t)

	key, err := GenerateRandomKey(32)
	assert.Nil(err)
	assert.NotEmpty(key)

	other, err := GenerateRandomKey(32)
	assert.Nil(err)
	assert.NotEqual(key, other)
}
