package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupBy(t *testing.T) {
	groups := GroupBy([]string{"apple", "avocado", "banana", "apricot", "blueberry"}, func(s string) byte { return s[0] })

	assert.Equal(t, []Group[byte, string]{
		{Key: 'a', Members: []string{"apple", "avocado", "apricot"}},
		{Key: 'b', Members: []string{"banana", "blueberry"}},
	}, groups)
	assert.Empty(t, GroupBy(nil, func(s string) string { return s }))
}

func TestBest(t *testing.T) {
	greater := func(a, b int) bool { return a > b }

	best, ok := Best([]int{5, 9, 3}, greater)
	assert.True(t, ok)
	assert.Equal(t, 9, best)

	_, ok = Best(nil, greater)
	assert.False(t, ok)
}

func TestFoldGroups(t *testing.T) {
	groups := GroupBy([]int{14, 3, 21, 8, 12}, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{14, 21}, FoldGroups(groups, func(a, b int) bool { return a > b }))
}
