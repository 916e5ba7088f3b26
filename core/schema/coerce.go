package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire layouts for temporal values.
const (
	LayoutDateTime = "2006-01-02 15:04:05"
	LayoutDate     = "2006-01-02"
	LayoutTime     = "15:04:05"
)

// ParseTemporal tries the datetime, time and date layouts in that order and
// reports which field type matched.
func ParseTemporal(s string) (time.Time, FieldType, bool) {
	if t, err := time.Parse(LayoutDateTime, s); err == nil {
		return t, FieldTypeDateTime, true
	}
	if t, err := time.Parse(LayoutTime, s); err == nil {
		return t, FieldTypeTime, true
	}
	if t, err := time.Parse(LayoutDate, s); err == nil {
		return t, FieldTypeDate, true
	}
	return time.Time{}, "", false
}

// CoerceValue converts a decoded wire value into the Go type expected for
// fieldType. Lists are coerced element by element. Values that already match
// are returned unchanged; strings are parsed where the type calls for it.
func CoerceValue(value any, fieldType FieldType) (any, error) {
	if value == nil {
		return nil, nil
	}

	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			coerced, err := CoerceValue(item, fieldType)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = coerced
		}
		return out, nil
	}

	switch fieldType {
	case FieldTypeInteger:
		if f, ok := value.(float64); ok && f == float64(int64(f)) {
			return int64(f), nil
		}
		if i, ok := value.(int); ok {
			return int64(i), nil
		}
	case FieldTypeNumber:
		if i, ok := value.(int); ok {
			return float64(i), nil
		}
		if i, ok := value.(int64); ok {
			return float64(i), nil
		}
	}

	str, ok := value.(string)
	if !ok {
		return value, nil
	}

	switch fieldType {
	case FieldTypeBoolean:
		switch strings.ToLower(str) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("cannot coerce %q to %s", str, fieldType)
	case FieldTypeInteger:
		i, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to %s: %w", str, fieldType, err)
		}
		return i, nil
	case FieldTypeNumber:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to %s: %w", str, fieldType, err)
		}
		return f, nil
	case FieldTypeDateTime:
		return parseLayout(str, LayoutDateTime, fieldType)
	case FieldTypeDate:
		return parseLayout(str, LayoutDate, fieldType)
	case FieldTypeTime:
		return parseLayout(str, LayoutTime, fieldType)
	case FieldTypeAny:
		if t, _, ok := ParseTemporal(str); ok {
			return t, nil
		}
	}
	return str, nil
}

func parseLayout(s, layout string, fieldType FieldType) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot coerce %q to %s: %w", s, fieldType, err)
	}
	return t, nil
}
