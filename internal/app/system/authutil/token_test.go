package authutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestHashToken(t *testing.T) {
	h := HashToken("secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("secret"))
	assert.NotEqual(t, h, HashToken("Secret"))
}

func TestTokenMatches(t *testing.T) {
	h := HashToken("refresh-token")
	assert.True(t, TokenMatches("refresh-token", h))
	assert.False(t, TokenMatches("other", h))
	assert.False(t, TokenMatches("refresh-token", ""))
}
