package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomString(t *testing.T) {
	s1, err := CryptoRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s1, 32)

	s2, err := CryptoRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)

	odd, err := CryptoRandomString(7)
	require.NoError(t, err)
	assert.Len(t, odd, 7)
}

func TestRandomDigits(t *testing.T) {
	code, err := RandomDigits(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("482913")
	require.NoError(t, err)
	assert.NotEqual(t, "482913", hash)

	assert.True(t, CheckPassword("482913", hash))
	assert.False(t, CheckPassword("482914", hash))
	assert.False(t, CheckPassword("482913", "not-a-hash"))
}
