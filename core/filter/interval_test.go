package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterval(t *testing.T) {
	iv, err := NewInterval(1, 5)
	require.NoError(t, err)
	assert.Equal(t, Interval{Begin: 1, End: 5}, iv)

	_, err = NewInterval(5, 1)
	assert.Error(t, err)

	_, err = NewInterval(1, 5.0)
	assert.Error(t, err)
}

func TestIntervalFromValues(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   Interval
	}{
		{"unordered", []any{7, 3, 9, 1}, Interval{Begin: 1, End: 9}},
		{"ascending", []any{1, 2, 3}, Interval{Begin: 1, End: 3}},
		{"descending", []any{3, 2, 1}, Interval{Begin: 1, End: 3}},
		{"equal", []any{4, 4}, Interval{Begin: 4, End: 4}},
		{"strings", []any{"m", "z", "a"}, Interval{Begin: "a", End: "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := IntervalFromValues(tt.values...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, iv)
		})
	}

	errs := map[string][]any{
		"single value":           {1},
		"mixed types":            {1, "2"},
		"mixed type after max":   {1, 5, "x"},
		"mixed type after min":   {5, 1, 2.5},
		"unordered value type":   {[]int{1}, []int{2}},
		"wider integer in range": {1, 3, int64(2)},
	}
	for name, values := range errs {
		t.Run(name, func(t *testing.T) {
			_, err := IntervalFromValues(values...)
			assert.Error(t, err)
		})
	}
}

func TestInterval_Shift(t *testing.T) {
	tests := []struct {
		name  string
		iv    Interval
		delta any
		want  Interval
	}{
		{"int", Interval{Begin: 1, End: 4}, 2, Interval{Begin: 3, End: 6}},
		{"negative float", Interval{Begin: 1.5, End: 2.5}, -1.0, Interval{Begin: 0.5, End: 1.5}},
		{
			"time",
			Interval{Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			24 * time.Hour,
			Interval{Begin: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.iv.Shift(tt.delta)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := Interval{Begin: 1, End: 2}.Shift(1.0)
	assert.Error(t, err)
	_, err = Interval{Begin: "a", End: "b"}.Shift("c")
	assert.Error(t, err)
}

func TestInterval_Contains(t *testing.T) {
	iv := Interval{Begin: 18, End: 65}
	assert.True(t, iv.Contains(18))
	assert.True(t, iv.Contains(40))
	assert.True(t, iv.Contains(65))
	assert.False(t, iv.Contains(17))
	assert.False(t, iv.Contains(66))
	assert.False(t, iv.Contains("40"))
	assert.Equal(t, "[18, 65]", iv.String())
}
