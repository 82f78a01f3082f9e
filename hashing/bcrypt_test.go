package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewBcrypt(bcryptTestCost)

	digest, err := h.Hash("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", digest)

	assert.True(t, h.Verify("correct-horse-battery", digest))
	assert.False(t, h.Verify("wrong-password", digest))
	assert.False(t, h.Verify("", digest))
}

func TestHashTooLong(t *testing.T) {
	h := NewBcrypt(bcryptTestCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewBcrypt(bcryptTestCost)

	assert.False(t, h.Verify("password", "not a bcrypt digest"))
	assert.False(t, h.Verify("password", ""))
}

func TestDefaultCost(t *testing.T) {
	h := NewBcrypt(0)
	assert.Equal(t, DefaultCost, h.cost)
}

// Low cost keeps the suite fast; production uses the configured cost.
const bcryptTestCost = 4
