package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
	}{
		{"eq", OperatorEq},
		{"NOT_IN", OperatorNotIn},
		{" ilike ", OperatorILike},
		{"==", OperatorEq},
		{"!=", OperatorNe},
		{"<", OperatorLt},
		{"<=", OperatorLe},
		{">", OperatorGt},
		{">=", OperatorGe},
		{"isnull", OperatorIsNull},
		{"option", OperatorOption},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperator(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOperator("between")
	assert.Error(t, err)
}

func TestOperatorSets(t *testing.T) {
	assert.True(t, CompareOperators.Contains(OperatorIsNull))
	assert.False(t, CompareOperators.Contains(OperatorIn))
	assert.False(t, CompareOperators.Contains(OperatorNot))
	assert.True(t, MoreOperators.Contains(OperatorGe))
	assert.False(t, MoreOperators.Contains(OperatorLt))
	assert.True(t, LessOperators.Contains(OperatorLe))
	assert.True(t, IncludeOperators.Contains(OperatorNotIn))
	assert.Len(t, Operators, 13)
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	var got []Entry
	err := json.Unmarshal([]byte(`[
		{"field": "age", "operator": ">", "value": 18},
		{"field": "score", "operator": "le", "value": 9.5},
		{"field": "status", "operator": "in", "value": ["open", "closed"]},
		{"field": "ids", "operator": "not_in", "value": [1, 2]},
		{"field": "deleted", "operator": "isnull", "value": true},
		{"field": "name", "operator": "eq"}
	]`), &got)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Field: "age", Operator: OperatorGt, Value: int64(18)},
		{Field: "score", Operator: OperatorLe, Value: 9.5},
		{Field: "status", Operator: OperatorIn, Value: []any{"open", "closed"}},
		{Field: "ids", Operator: OperatorNotIn, Value: []any{int64(1), int64(2)}},
		{Field: "deleted", Operator: OperatorIsNull, Value: true},
		{Field: "name", Operator: OperatorEq, Value: nil},
	}, got)

	t.Run("invalid", func(t *testing.T) {
		for _, doc := range []string{
			`{"field": "age", "operator": "between", "value": 1}`,
			`{"operator": "eq", "value": 1}`,
			`{"field": "age", "operator": "eq", "value": }`,
		} {
			var e Entry
			assert.Error(t, json.Unmarshal([]byte(doc), &e), doc)
		}
	})
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "age gt 18", Entry{Field: "age", Operator: OperatorGt, Value: 18}.String())
}
