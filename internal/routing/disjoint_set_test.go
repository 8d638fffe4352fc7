package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisjointSetUnionFind(t *testing.T) {
	s := NewDisjointSet(6)
	require.Equal(t, 6, s.Len())
	assert.Equal(t, 6, s.Sets())

	assert.True(t, s.Union(0, 1))
	assert.True(t, s.Union(2, 3))
	assert.False(t, s.Union(1, 0), "already merged")
	assert.Equal(t, 4, s.Sets())
	assert.Equal(t, s.Find(0), s.Find(1))
	assert.NotEqual(t, s.Find(0), s.Find(2))

	assert.True(t, s.Union(1, 3))
	assert.Equal(t, s.Find(0), s.Find(2))
	assert.Equal(t, 3, s.Sets())
	assert.Equal(t, 4, s.Find(4))
}

func TestDisjointSetLongChainStaysIterative(t *testing.T) {
	const n = 200000
	s := NewDisjointSet(n)
	for i := 1; i < n; i++ {
		s.Union(i-1, i)
	}
	root := s.Find(n - 1)
	for _, id := range []int{0, n / 2, n - 1} {
		assert.Equal(t, root, s.Find(id))
	}
	assert.Equal(t, 1, s.Sets())
}
