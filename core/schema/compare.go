package schema

import (
	"cmp"
	"fmt"
	"reflect"
	"time"
)

// SameType reports whether a and b share the same runtime type.
func SameType(a, b any) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// Compare orders two values of the same runtime type. It returns -1, 0 or +1
// and an error when the values differ in type or are not orderable.
func Compare(a, b any) (int, error) {
	if !SameType(a, b) {
		return 0, fmt.Errorf("cannot compare %T with %T", a, b)
	}
	switch x := a.(type) {
	case int:
		return cmp.Compare(x, b.(int)), nil
	case int8:
		return cmp.Compare(x, b.(int8)), nil
	case int16:
		return cmp.Compare(x, b.(int16)), nil
	case int32:
		return cmp.Compare(x, b.(int32)), nil
	case int64:
		return cmp.Compare(x, b.(int64)), nil
	case uint:
		return cmp.Compare(x, b.(uint)), nil
	case uint8:
		return cmp.Compare(x, b.(uint8)), nil
	case uint16:
		return cmp.Compare(x, b.(uint16)), nil
	case uint32:
		return cmp.Compare(x, b.(uint32)), nil
	case uint64:
		return cmp.Compare(x, b.(uint64)), nil
	case float32:
		return cmp.Compare(x, b.(float32)), nil
	case float64:
		return cmp.Compare(x, b.(float64)), nil
	case string:
		return cmp.Compare(x, b.(string)), nil
	case time.Time:
		return x.Compare(b.(time.Time)), nil
	case time.Duration:
		return cmp.Compare(x, b.(time.Duration)), nil
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		return 0, fmt.Errorf("values of type %T are not orderable", a)
	}
}
