package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	b := Bytes(128)
	require.Len(t, b, 128)
	assert.NotEqual(t, b, Bytes(128))
}

func TestLetterString(t *testing.T) {
	s := LetterString(64)
	require.Len(t, s, 64)
	for _, r := range s {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	}
}
