package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("book")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "book-"))
	// prefix + separator + 21-char nanoid
	assert.Len(t, id, len("book-")+21)
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("author")
		require.NoError(t, err)
		assert.False(t, seen[id], "ID should be unique: %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("user")
		assert.True(t, strings.HasPrefix(id, "user-"))
	})
}
