package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptDecrypt(t *testing.T) {
	assert := assert.New(t)
	key := []byte("0123456789abcdef0123456789abcdef")

	encrypted, err := Encrypt([]byte("oauth-access-token"), key)
	assert.Nil(err)
	assert.NotEqual("oauth-access-token", encrypted)

	decrypted, err := Decrypt(encrypted, key)
	assert.Nil(err)
	assert.Equal("oauth-access-token", decrypted)

	// Each encryption draws a fresh nonce.
	again, err := Encrypt([]byte("oauth-access-token"), key)
	assert.Nil(err)
	assert.NotEqual(encrypted, again)
}

func TestDecryptRejectsBadInput(t *testing.T) {
	assert := assert.New(t)
	key := []byte("0123456789abcdef0123456789abcdef")

	_, err := Decrypt("not base64!!", key)
	assert.NotNil(err)

	_, err = Decrypt("c2hvcnQ=", key) // valid base64, shorter than a nonce
	assert.NotNil(err)

	encrypted, _ := Encrypt([]byte("secret"), key)
	_, err = Decrypt(encrypted, []byte("ffffffffffffffffffffffffffffffff"))
	assert.NotNil(err, "a different key must not open the ciphertext")
}
