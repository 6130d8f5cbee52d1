package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeBounds(t *testing.T) {
	_, err := NewNode(-1)
	assert.Error(t, err)

	_, err = NewNode(1024)
	assert.Error(t, err)

	_, err = NewNode(0)
	assert.NoError(t, err)

	_, err = NewNode(1023)
	assert.NoError(t, err)
}

func TestGenerateIsStrictlyIncreasing(t *testing.T) {
	node, err := NewNode(1)
	require.NoError(t, err)

	prev := node.Generate()
	for i := 0; i < 10000; i++ {
		id := node.Generate()
		require.Greater(t, id, prev, "ids must be creation-ordered")
		prev = id
	}
}

func TestGenerateUnique(t *testing.T) {
	node, err := NewNode(2)
	require.NoError(t, err)

	seen := make(map[int64]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := node.Generate()
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}
