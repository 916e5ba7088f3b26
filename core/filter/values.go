package filter

import (
	"fmt"
	"maps"
	"slices"

	"github.com/asaidimu/go-sieve/core/schema"
)

// Values is a typed view over the interpreted value of every declared field.
// Writes go back into the facade's entries, so a later Apply reflects them.
type Values struct {
	f *Facade
}

// Values returns the values view of the facade.
func (f *Facade) Values() Values {
	return Values{f: f}
}

// Get returns the interpreted value of field, or nil when the request carries
// no entries for it.
func (v Values) Get(field string) any {
	return v.f.values[field]
}

// Map returns a snapshot of all interpreted values keyed by field name.
func (v Values) Map() map[string]any {
	return maps.Clone(v.f.values)
}

// Set overwrites the value of field. value must have the runtime type of the
// current value. Interval values are split back into their two bound entries.
// On failure nothing is modified.
func (v Values) Set(field string, value any) error {
	def, ok := v.f.def.Field(field)
	if !ok {
		return newFieldError(field, ErrUnknownField, "not declared by %q", v.f.def.Name())
	}
	current := v.f.values[field]
	if current == nil {
		return newFieldError(field, ErrValueAssignment, "no value to overwrite")
	}
	if !schema.SameType(current, value) {
		return newFieldError(field, ErrValueAssignment, "expected %T, got %T", current, value)
	}

	var indexes []int
	for i, e := range v.f.entries {
		if e.Field == field {
			indexes = append(indexes, i)
		}
	}
	setter, ok := valueSetters[def.Kind.Name()]
	if !ok {
		setter = setScalar
	}

	// Rewrite a copy and commit only once the group passes its kind again.
	entries := slices.Clone(v.f.entries)
	if err := setter(entries, indexes, value); err != nil {
		return &FieldError{Field: field, Err: ErrValueAssignment, Cause: err}
	}
	group := make([]Entry, len(indexes))
	for i, idx := range indexes {
		group[i] = entries[idx]
	}
	if err := def.Kind.Validate(group, def.ValueType); err != nil {
		return &FieldError{Field: field, Err: ErrValueAssignment, Cause: err}
	}

	v.f.entries = entries
	v.f.values[field] = value
	return nil
}

// valueSetter writes value into the entries at indexes.
type valueSetter func(entries []Entry, indexes []int, value any) error

var valueSetters = map[string]valueSetter{
	KindInterval.Name(): setInterval,
}

func setScalar(entries []Entry, indexes []int, value any) error {
	if len(indexes) != 1 {
		return newFieldError(fieldAt(entries, indexes), ErrMalformedGroup, "expected one entry, got %d", len(indexes))
	}
	entries[indexes[0]].Value = value
	return nil
}

func setInterval(entries []Entry, indexes []int, value any) error {
	if len(indexes) != 2 {
		return newFieldError(fieldAt(entries, indexes), ErrMalformedGroup, "expected two entries, got %d", len(indexes))
	}
	iv := value.(Interval)
	if _, err := NewInterval(iv.Begin, iv.End); err != nil {
		return err
	}
	lower, upper := sortBounds([]Entry{entries[indexes[0]], entries[indexes[1]]})
	if begin := entries[indexes[lower]].Value; !schema.SameType(begin, iv.Begin) {
		return fmt.Errorf("interval begin: expected %T, got %T", begin, iv.Begin)
	}
	if end := entries[indexes[upper]].Value; !schema.SameType(end, iv.End) {
		return fmt.Errorf("interval end: expected %T, got %T", end, iv.End)
	}
	entries[indexes[lower]].Value = iv.Begin
	entries[indexes[upper]].Value = iv.End
	return nil
}

func fieldAt(entries []Entry, indexes []int) string {
	if len(indexes) == 0 {
		return ""
	}
	return entries[indexes[0]].Field
}
