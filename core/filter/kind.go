package filter

import (
	"fmt"
	"reflect"

	"github.com/asaidimu/go-sieve/core/schema"
)

// Kind interprets and validates the group of entries submitted for one field.
type Kind interface {
	// Name identifies the kind in definition files.
	Name() string
	// InterpretValue turns a group into its semantic value without modifying it.
	InterpretValue(group []Entry) (any, error)
	// Validate checks arity, operators and value types of a group.
	Validate(group []Entry, valueType schema.FieldType) error
}

// The query kinds a field can be declared with.
var (
	KindCompare  Kind = compareKind{}
	KindInterval Kind = intervalKind{}
	KindInclude  Kind = includeKind{}
	KindOption   Kind = optionKind{}
)

var kindsByName = map[string]Kind{
	KindCompare.Name():  KindCompare,
	KindInterval.Name(): KindInterval,
	KindInclude.Name():  KindInclude,
	KindOption.Name():   KindOption,
}

// KindByName resolves a kind from its name.
func KindByName(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown query kind %q", name)
}

func groupField(group []Entry) string {
	if len(group) == 0 {
		return ""
	}
	return group[0].Field
}

func requireSingle(group []Entry) error {
	if len(group) != 1 {
		return newFieldError(groupField(group), ErrArity, "expected exactly one entry, got %d", len(group))
	}
	return nil
}

func singleValue(group []Entry) (any, error) {
	if len(group) != 1 {
		return nil, newFieldError(groupField(group), ErrMalformedGroup, "expected one entry, got %d", len(group))
	}
	return group[0].Value, nil
}

// compareKind accepts a single comparison entry.
type compareKind struct{}

func (compareKind) Name() string { return "compare" }

func (compareKind) InterpretValue(group []Entry) (any, error) {
	return singleValue(group)
}

func (k compareKind) Validate(group []Entry, valueType schema.FieldType) error {
	if err := requireSingle(group); err != nil {
		return err
	}
	e := group[0]
	if !CompareOperators.Contains(e.Operator) {
		return newFieldError(e.Field, ErrOperatorMismatch, "%q is not a comparison operator", e.Operator)
	}
	value, err := k.InterpretValue(group)
	if err != nil {
		return asTypeMismatch(e.Field, err)
	}
	// is_null carries a switch, not a field value
	if e.Operator == OperatorIsNull {
		if _, ok := value.(bool); !ok {
			return newFieldError(e.Field, ErrTypeMismatch, "is_null expects a boolean, got %T", value)
		}
		return nil
	}
	if !valueType.Matches(value) {
		return newFieldError(e.Field, ErrTypeMismatch, "expected %s, got %T", valueType, value)
	}
	return nil
}

// intervalKind pairs a lower bound (gt/ge) with an upper bound (lt/le).
type intervalKind struct{}

func (intervalKind) Name() string { return "interval" }

func (intervalKind) InterpretValue(group []Entry) (any, error) {
	if len(group) != 2 {
		return nil, newFieldError(groupField(group), ErrMalformedGroup, "expected two entries, got %d", len(group))
	}
	iv, err := IntervalFromValues(group[0].Value, group[1].Value)
	if err != nil {
		return nil, &FieldError{Field: group[0].Field, Err: ErrMalformedGroup, Cause: err}
	}
	return iv, nil
}

func (k intervalKind) Validate(group []Entry, valueType schema.FieldType) error {
	field := groupField(group)
	if len(group) != 2 {
		return newFieldError(field, ErrArity, "expected exactly two entries, got %d", len(group))
	}
	var more, less int
	for _, e := range group {
		switch {
		case MoreOperators.Contains(e.Operator):
			more++
		case LessOperators.Contains(e.Operator):
			less++
		default:
			return newFieldError(field, ErrOperatorMismatch, "%q cannot bound an interval", e.Operator)
		}
	}
	if more != 1 || less != 1 {
		return newFieldError(field, ErrOperatorMismatch, "an interval needs one lower and one upper bound")
	}

	value, err := k.InterpretValue(group)
	if err != nil {
		return asTypeMismatch(field, err)
	}
	iv := value.(Interval)
	if !valueType.Matches(iv.Begin) || !valueType.Matches(iv.End) {
		return newFieldError(field, ErrTypeMismatch, "expected %s bounds, got %T and %T", valueType, iv.Begin, iv.End)
	}

	lower, _ := sortBounds(group)
	if !MoreOperators.Contains(group[lower].Operator) {
		return newFieldError(field, ErrOperatorMismatch,
			"bounds are crossed: %s %v is above %s %v",
			group[lower].Operator, group[lower].Value, group[1-lower].Operator, group[1-lower].Value)
	}
	return nil
}

// sortBounds returns the indexes of the lower and the upper entry of a
// two-entry group ordered by value. On equal values the lower-bound operator
// comes first.
func sortBounds(group []Entry) (lower, upper int) {
	c, err := schema.Compare(group[0].Value, group[1].Value)
	switch {
	case err != nil, c < 0:
		return 0, 1
	case c > 0:
		return 1, 0
	case LessOperators.Contains(group[0].Operator):
		return 1, 0
	default:
		return 0, 1
	}
}

// includeKind accepts a single set-membership entry carrying a list.
type includeKind struct{}

func (includeKind) Name() string { return "include" }

func (includeKind) InterpretValue(group []Entry) (any, error) {
	value, err := singleValue(group)
	if err != nil {
		return nil, err
	}
	items, ok := toList(value)
	if !ok {
		return nil, newFieldError(group[0].Field, ErrMalformedGroup, "expected a list, got %T", value)
	}
	return items, nil
}

func (k includeKind) Validate(group []Entry, valueType schema.FieldType) error {
	if err := requireSingle(group); err != nil {
		return err
	}
	e := group[0]
	if !IncludeOperators.Contains(e.Operator) {
		return newFieldError(e.Field, ErrOperatorMismatch, "%q is not a membership operator", e.Operator)
	}
	value, err := k.InterpretValue(group)
	if err != nil {
		return asTypeMismatch(e.Field, err)
	}
	items := value.([]any)
	for i, item := range items {
		if !valueType.Matches(item) {
			return newFieldError(e.Field, ErrTypeMismatch, "element %d: expected %s, got %T", i, valueType, item)
		}
		if i > 0 && !schema.SameType(items[0], item) {
			return newFieldError(e.Field, ErrTypeMismatch, "element %d: mixed %T and %T", i, items[0], item)
		}
	}
	return nil
}

// toList converts any slice or array into []any. Strings are not lists.
func toList(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// optionKind is a presence switch: a truthy value includes the field's target
// expression as a predicate of its own.
type optionKind struct{}

func (optionKind) Name() string { return "option" }

func (optionKind) InterpretValue(group []Entry) (any, error) {
	return singleValue(group)
}

func (k optionKind) Validate(group []Entry, _ schema.FieldType) error {
	if err := requireSingle(group); err != nil {
		return err
	}
	e := group[0]
	if e.Operator != OperatorOption {
		return newFieldError(e.Field, ErrOperatorMismatch, "only %q is permitted, got %q", OperatorOption, e.Operator)
	}
	value, err := k.InterpretValue(group)
	if err != nil {
		return asTypeMismatch(e.Field, err)
	}
	if _, ok := value.(bool); !ok {
		return newFieldError(e.Field, ErrTypeMismatch, "expected boolean, got %T", value)
	}
	return nil
}

func asTypeMismatch(field string, err error) error {
	return &FieldError{Field: field, Err: ErrTypeMismatch, Reason: "cannot interpret value", Cause: err}
}
