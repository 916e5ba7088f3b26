package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Entry is a single raw (field, operator, value) triple submitted by a caller.
type Entry struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

// UnmarshalJSON decodes an entry, accepting legacy operator names and keeping
// integral JSON numbers as int64 instead of float64.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field    string          `json:"field"`
		Operator string          `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Field == "" {
		return errors.New("entry field must not be empty")
	}
	op, err := ParseOperator(raw.Operator)
	if err != nil {
		return fmt.Errorf("entry %q: %w", raw.Field, err)
	}

	var value any
	if len(raw.Value) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw.Value))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("entry %q: invalid value: %w", raw.Field, err)
		}
	}

	e.Field = raw.Field
	e.Operator = op
	e.Value = normalizeNumbers(value)
	return nil
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	default:
		return value
	}
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %v", e.Field, e.Operator, e.Value)
}
