package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupBy(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		keys, groups := GroupBy([]int{}, func(x int) int { return x })
		assert.Empty(t, keys)
		assert.Empty(t, groups)
	})

	t.Run("parity", func(t *testing.T) {
		keys, groups := GroupBy([]int{1, 2, 3, 4}, func(x int) int { return x % 2 })
		assert.Equal(t, []int{1, 0}, keys)
		assert.Equal(t, map[int][]int{0: {2, 4}, 1: {1, 3}}, groups)
	})

	t.Run("first appearance order", func(t *testing.T) {
		words := []string{"name", "age", "name", "city", "age"}
		keys, groups := GroupBy(words, func(s string) string { return s })
		assert.Equal(t, []string{"name", "age", "city"}, keys)
		assert.Len(t, groups["name"], 2)
	})
}
