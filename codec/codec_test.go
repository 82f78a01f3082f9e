package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *AESGCM {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	c, err := NewAESGCMFromBase64(key)
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	c := testCodec(t)

	values := []string{
		"a",
		"4b825dc642cb6eb9a060e54bf8d69288fbee4904",
		strings.Repeat("x", 4096),
	}
	for _, v := range values {
		encrypted, err := c.Encrypt(v)
		require.NoError(t, err)
		assert.NotEqual(t, v, encrypted)

		decrypted, err := c.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, v, decrypted)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c := testCodec(t)

	first, err := c.Encrypt("token-value")
	require.NoError(t, err)
	second, err := c.Encrypt("token-value")
	require.NoError(t, err)

	// Random nonces mean two encryptions of the same value differ.
	assert.NotEqual(t, first, second)
}

func TestDecryptTampered(t *testing.T) {
	c := testCodec(t)

	encrypted, err := c.Encrypt("token-value")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecryptMalformed(t *testing.T) {
	c := testCodec(t)

	cases := []string{
		"",
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("short")),
	}
	for _, input := range cases {
		_, err := c.Decrypt(input)
		assert.ErrorIs(t, err, ErrDecode, "input %q", input)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	a := testCodec(t)
	b := testCodec(t)

	encrypted, err := a.Encrypt("token-value")
	require.NoError(t, err)

	_, err = b.Decrypt(encrypted)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNewAESGCMKeySize(t *testing.T) {
	_, err := NewAESGCM([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewAESGCMFromBase64("not-base64***")
	assert.Error(t, err)
}
