package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("ssm123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "ssm123", hash)

	assert.True(t, VerifyPassword(hash, "ssm123"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "ssm123"))
}
